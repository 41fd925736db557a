package services

import (
	"context"
	"errors"
	"fmt"
	"police_case_app_go/db"
	"police_case_app_go/models"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// MaxActiveCaseload is the workload at which an investigator becomes busy.
// Policy constant, not read from configuration.
const MaxActiveCaseload = 5

// Availability constants
const (
	AvailabilityAvailable = "available"
	AvailabilityBusy      = "busy"
)

// AssignRequest describes a new active investigator set for a case
type AssignRequest struct {
	InvestigatorIDs []string
	LeadID          string
	Deadline        *time.Time
	Notes           string
}

// Workload is an investigator's open caseload
type Workload struct {
	InvestigatorID   string `json:"investigator_id"`
	InvestigatorName string `json:"investigator_name,omitempty"`
	ActiveCases      int64  `json:"active_cases"`
	Availability     string `json:"availability"`
}

// assignmentPlan is a fully validated request, ready to be written
type assignmentPlan struct {
	investigatorIDs []string
	leadID          string
	deadline        *time.Time
	notes           *string
	names           map[string]string
}

// AssignmentEngine allocates investigators to cases and tracks their workload
type AssignmentEngine struct {
	DB        *gorm.DB
	Directory CenterDirectory
	Courier   *Courier
	Logger    zerolog.Logger
}

func NewAssignmentEngine(database *gorm.DB, directory CenterDirectory, notifier Notifier, logger zerolog.Logger) *AssignmentEngine {
	return &AssignmentEngine{DB: database, Directory: directory, Courier: NewCourier(notifier, logger), Logger: logger}
}

// dedupe keeps the first occurrence of each non-empty id
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// prepare validates a request against the case's center without writing anything.
// ctx must carry the operation's transaction.
func (e *AssignmentEngine) prepare(ctx context.Context, c *models.Case, req AssignRequest) (*assignmentPlan, error) {
	ids := dedupe(req.InvestigatorIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one investigator is required", ErrInvalidInput)
	}

	isMember := false
	for _, id := range ids {
		if id == req.LeadID {
			isMember = true
			break
		}
	}
	if !isMember {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLead, req.LeadID)
	}

	members, err := e.Directory.InvestigatorsOf(ctx, c.CenterID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]CenterMember, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			if err := e.requireUserExists(ctx, id); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s does not belong to center %s", ErrIneligibleInvestigator, id, c.CenterID)
		}
		if m.Role != models.RoleInvestigator {
			return nil, fmt.Errorf("%w: %s has role %s", ErrIneligibleInvestigator, id, m.Role)
		}
		if !m.IsActive {
			return nil, fmt.Errorf("%w: %s is inactive", ErrIneligibleInvestigator, id)
		}
		names[id] = m.Name
	}

	return &assignmentPlan{
		investigatorIDs: ids,
		leadID:          req.LeadID,
		deadline:        req.Deadline,
		notes:           optionalText(req.Notes),
		names:           names,
	}, nil
}

func (e *AssignmentEngine) requireUserExists(ctx context.Context, userID string) error {
	var count int64
	if err := db.From(ctx, e.DB).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up investigator: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: investigator %s", ErrNotFound, userID)
	}
	return nil
}

// apply supersedes the current active set and inserts the planned one.
// Returns the new rows and how many rows were superseded.
func (e *AssignmentEngine) apply(tx *gorm.DB, c *models.Case, plan *assignmentPlan, actor ActorContext, now time.Time, box *outbox) ([]models.CaseAssignment, int64, error) {
	superseded, err := e.supersedeActive(tx, c.ID, now)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]models.CaseAssignment, 0, len(plan.investigatorIDs))
	for _, id := range plan.investigatorIDs {
		rows = append(rows, models.CaseAssignment{
			CaseID:         c.ID,
			InvestigatorID: id,
			AssignedBy:     actor.UserID,
			AssignedAt:     now,
			Deadline:       plan.deadline,
			IsLead:         id == plan.leadID,
			Notes:          plan.notes,
			Status:         models.AssignmentStatusActive,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to create assignments: %w", err)
	}

	for _, row := range rows {
		role := "investigator"
		if row.IsLead {
			role = "lead investigator"
		}
		box.add(Notice{
			UserID:  row.InvestigatorID,
			Type:    models.NotificationTypeCaseAssigned,
			Title:   fmt.Sprintf("Case %s assigned", c.CaseNumber),
			Message: fmt.Sprintf("You have been assigned as %s on case %s (%s).", role, c.CaseNumber, c.Title),
			CaseID:  c.ID,
		})
	}

	return rows, superseded, nil
}

// supersedeActive flips the current active set to reassigned
func (e *AssignmentEngine) supersedeActive(tx *gorm.DB, caseID string, now time.Time) (int64, error) {
	result := tx.Model(&models.CaseAssignment{}).
		Where("case_id = ? AND status = ?", caseID, models.AssignmentStatusActive).
		Updates(map[string]interface{}{
			"status":       models.AssignmentStatusReassigned,
			"completed_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to supersede assignments: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// completeActive marks the active set completed when a case closes
func (e *AssignmentEngine) completeActive(tx *gorm.DB, caseID string, now time.Time) error {
	return tx.Model(&models.CaseAssignment{}).
		Where("case_id = ? AND status = ?", caseID, models.AssignmentStatusActive).
		Updates(map[string]interface{}{
			"status":       models.AssignmentStatusCompleted,
			"completed_at": now,
		}).Error
}

// activeAssigneeSet returns the investigator ids of the active set
func (e *AssignmentEngine) activeAssigneeSet(ctx context.Context, caseID string) (map[string]bool, error) {
	var ids []string
	if err := db.From(ctx, e.DB).Model(&models.CaseAssignment{}).
		Where("case_id = ? AND status = ?", caseID, models.AssignmentStatusActive).
		Pluck("investigator_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load active assignments: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// reactivateOrCreateLead gives a reopened case a single active lead. A prior
// completed assignment of the same investigator is reused instead of duplicated.
func (e *AssignmentEngine) reactivateOrCreateLead(ctx context.Context, tx *gorm.DB, c *models.Case, investigatorID string, notes *string, actor ActorContext, now time.Time, box *outbox) (*models.CaseAssignment, error) {
	var existing models.CaseAssignment
	err := tx.Where("case_id = ? AND investigator_id = ? AND status = ?", c.ID, investigatorID, models.AssignmentStatusCompleted).
		Order("assigned_at DESC").
		First(&existing).Error

	switch {
	case err == nil:
		updates := map[string]interface{}{
			"status":       models.AssignmentStatusActive,
			"assigned_at":  now,
			"assigned_by":  actor.UserID,
			"completed_at": nil,
			"is_lead":      true,
			"deadline":     c.InvestigationDeadline,
		}
		if notes != nil {
			updates["notes"] = *notes
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to reactivate assignment: %w", err)
		}
		if err := tx.First(&existing, "id = ?", existing.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to reload assignment: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = models.CaseAssignment{
			CaseID:         c.ID,
			InvestigatorID: investigatorID,
			AssignedBy:     actor.UserID,
			AssignedAt:     now,
			Deadline:       c.InvestigationDeadline,
			IsLead:         true,
			Notes:          notes,
			Status:         models.AssignmentStatusActive,
		}
		if err := tx.Create(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to create assignment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to look up previous assignment: %w", err)
	}

	box.add(Notice{
		UserID:  investigatorID,
		Type:    models.NotificationTypeCaseReopened,
		Title:   fmt.Sprintf("Case %s reopened", c.CaseNumber),
		Message: fmt.Sprintf("Case %s has been reopened and assigned to you as lead investigator.", c.CaseNumber),
		CaseID:  c.ID,
	})
	return &existing, nil
}

// UpdateDeadline moves the investigation deadline of a case and of every active
// assignment in one transaction, then notifies the affected investigators
func (e *AssignmentEngine) UpdateDeadline(ctx context.Context, caseID string, deadline time.Time, actor ActorContext) (*models.Case, error) {
	if deadline.IsZero() {
		return nil, fmt.Errorf("%w: deadline is required", ErrInvalidInput)
	}

	uow := unitOfWork{db: e.DB, engine: e, courier: e.Courier, logger: e.Logger}
	return uow.run(ctx, "update_deadline", caseID, ActionAssign, actor, func(op *caseOp) error {
		c := op.c()
		if c.Status.IsTerminal() {
			return fmt.Errorf("%w: case %s is %s", ErrInvalidInput, c.ID, c.Status)
		}
		previous := c.InvestigationDeadline

		if err := op.update(map[string]interface{}{"investigation_deadline": deadline}); err != nil {
			return err
		}
		if err := op.tx.Model(&models.CaseAssignment{}).
			Where("case_id = ? AND status = ?", c.ID, models.AssignmentStatusActive).
			Update("deadline", deadline).Error; err != nil {
			return fmt.Errorf("failed to update assignment deadlines: %w", err)
		}

		for investigatorID := range op.scope.ActiveAssignees {
			op.box.add(Notice{
				UserID:  investigatorID,
				Type:    models.NotificationTypeDeadlineChanged,
				Title:   fmt.Sprintf("Deadline changed for case %s", c.CaseNumber),
				Message: fmt.Sprintf("The investigation deadline of case %s is now %s.", c.CaseNumber, deadline.Format("2006-01-02")),
				CaseID:  c.ID,
			})
		}

		audit := caseAuditEntry(c, models.AuditActionDeadlineChange, "Investigation deadline updated")
		audit.Before = map[string]interface{}{"investigation_deadline": previous}
		audit.After = map[string]interface{}{"investigation_deadline": deadline}
		return WriteAuditLog(op.tx, auditContextFor(op.actor, c.CenterID), audit)
	})
}

// Workload counts an investigator's active assignments on cases that are still open
func (e *AssignmentEngine) Workload(ctx context.Context, investigatorID string) (*Workload, error) {
	if err := e.requireUserExists(ctx, investigatorID); err != nil {
		return nil, err
	}

	var count int64
	err := e.DB.WithContext(ctx).Model(&models.CaseAssignment{}).
		Joins("JOIN cases ON cases.id = case_assignments.case_id").
		Where("case_assignments.investigator_id = ? AND case_assignments.status = ?", investigatorID, models.AssignmentStatusActive).
		Where("cases.status NOT IN ?", models.TerminalStatuses()).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute workload: %w", err)
	}
	return &Workload{
		InvestigatorID: investigatorID,
		ActiveCases:    count,
		Availability:   availabilityFor(count),
	}, nil
}

func availabilityFor(activeCases int64) string {
	if activeCases < MaxActiveCaseload {
		return AvailabilityAvailable
	}
	return AvailabilityBusy
}

// CenterWorkloads lists every active investigator of a center, least loaded first
func (e *AssignmentEngine) CenterWorkloads(ctx context.Context, centerID string) ([]Workload, error) {
	members, err := e.Directory.InvestigatorsOf(ctx, centerID)
	if err != nil {
		return nil, err
	}

	type countRow struct {
		InvestigatorID string
		Count          int64
	}
	var counts []countRow
	err = e.DB.WithContext(ctx).Model(&models.CaseAssignment{}).
		Select("case_assignments.investigator_id, COUNT(*) AS count").
		Joins("JOIN cases ON cases.id = case_assignments.case_id").
		Where("cases.center_id = ? AND case_assignments.status = ?", centerID, models.AssignmentStatusActive).
		Where("cases.status NOT IN ?", models.TerminalStatuses()).
		Group("case_assignments.investigator_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute center workloads: %w", err)
	}
	byID := make(map[string]int64, len(counts))
	for _, c := range counts {
		byID[c.InvestigatorID] = c.Count
	}

	var workloads []Workload
	for _, m := range members {
		if m.Role != models.RoleInvestigator || !m.IsActive {
			continue
		}
		n := byID[m.ID]
		workloads = append(workloads, Workload{
			InvestigatorID:   m.ID,
			InvestigatorName: m.Name,
			ActiveCases:      n,
			Availability:     availabilityFor(n),
		})
	}
	sort.SliceStable(workloads, func(i, j int) bool {
		return workloads[i].ActiveCases < workloads[j].ActiveCases
	})
	return workloads, nil
}

// Assignments returns every assignment row of a case, current set first
func (e *AssignmentEngine) Assignments(ctx context.Context, caseID string) ([]models.CaseAssignment, error) {
	var rows []models.CaseAssignment
	err := e.DB.WithContext(ctx).
		Preload("Investigator").
		Where("case_id = ?", caseID).
		Order("CASE WHEN status = 'active' THEN 0 ELSE 1 END").
		Order("assigned_at DESC").
		Find(&rows).Error
	return rows, err
}

// ActiveAssignments returns the current investigator set of a case
func (e *AssignmentEngine) ActiveAssignments(ctx context.Context, caseID string) ([]models.CaseAssignment, error) {
	var rows []models.CaseAssignment
	err := e.DB.WithContext(ctx).
		Preload("Investigator").
		Where("case_id = ? AND status = ?", caseID, models.AssignmentStatusActive).
		Order("is_lead DESC").
		Find(&rows).Error
	return rows, err
}
