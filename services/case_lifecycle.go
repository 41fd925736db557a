package services

import (
	"context"
	"fmt"
	"police_case_app_go/metrics"
	"police_case_app_go/models"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AssignResult is the outcome of an assignment or reassignment
type AssignResult struct {
	Case        *models.Case            `json:"case"`
	Assignments []models.CaseAssignment `json:"assignments"`
	Superseded  int64                   `json:"superseded"`
}

// CaseLifecycle validates and applies case status and court status transitions.
// Every operation runs in one transaction together with its ledger rows.
type CaseLifecycle struct {
	DB       *gorm.DB
	Trail    *AuditTrail
	Engine  *AssignmentEngine
	Courier *Courier
	Logger  zerolog.Logger
}

// NewCaseLifecycle shares the engine's courier so one Wait covers both
func NewCaseLifecycle(database *gorm.DB, trail *AuditTrail, engine *AssignmentEngine, logger zerolog.Logger) *CaseLifecycle {
	return &CaseLifecycle{
		DB:      database,
		Trail:   trail,
		Engine:  engine,
		Courier: engine.Courier,
		Logger:  logger,
	}
}

func (l *CaseLifecycle) uow() unitOfWork {
	return unitOfWork{db: l.DB, trail: l.Trail, engine: l.Engine, courier: l.Courier, logger: l.Logger}
}

// Submit hands a draft or returned case over for review
func (l *CaseLifecycle) Submit(ctx context.Context, caseID string, actor ActorContext) (*models.Case, error) {
	return l.uow().run(ctx, "submit", caseID, ActionSubmit, actor, func(op *caseOp) error {
		return op.setStatus(models.CaseStatusSubmitted, map[string]interface{}{
			"submitted_at": op.now,
		}, nil)
	})
}

// Approve accepts a submitted case for investigation
func (l *CaseLifecycle) Approve(ctx context.Context, caseID string, actor ActorContext) (*models.Case, error) {
	return l.uow().run(ctx, "approve", caseID, ActionReview, actor, func(op *caseOp) error {
		return op.setStatus(models.CaseStatusApproved, map[string]interface{}{
			"approved_at": op.now,
			"approved_by": op.actor.UserID,
		}, nil)
	})
}

// ReturnForRevision sends a case back to its creator with a reason
func (l *CaseLifecycle) ReturnForRevision(ctx context.Context, caseID, reason string, actor ActorContext) (*models.Case, error) {
	clean, err := requireReason("return reason", reason, MinReturnReasonLength)
	if err != nil {
		metrics.ObserveRejected("return_for_revision")
		return nil, err
	}

	return l.uow().run(ctx, "return_for_revision", caseID, ActionReview, actor, func(op *caseOp) error {
		if err := op.setStatus(models.CaseStatusReturned, map[string]interface{}{
			"returned_at":   op.now,
			"return_reason": clean,
		}, &clean); err != nil {
			return err
		}

		c := op.c()
		op.box.add(Notice{
			UserID:  c.CreatedBy,
			Type:    models.NotificationTypeCaseReturned,
			Title:   fmt.Sprintf("Case %s returned for revision", c.CaseNumber),
			Message: clean,
			CaseID:  c.ID,
		})
		return nil
	})
}

// MarkPendingParties parks a submitted case until party details are complete
func (l *CaseLifecycle) MarkPendingParties(ctx context.Context, caseID, reason string, actor ActorContext) (*models.Case, error) {
	note := optionalText(reason)
	return l.uow().run(ctx, "mark_pending_parties", caseID, ActionReview, actor, func(op *caseOp) error {
		return op.setStatus(models.CaseStatusPendingParties, nil, note)
	})
}

// Assign allocates investigators. From approved or reopened this is the first
// assignment and moves the case to assigned; otherwise the active set is
// superseded and the status is left as it is.
func (l *CaseLifecycle) Assign(ctx context.Context, caseID string, req AssignRequest, actor ActorContext) (*AssignResult, error) {
	result := &AssignResult{}
	updated, err := l.uow().run(ctx, "assign", caseID, ActionAssign, actor, func(op *caseOp) error {
		c := op.c()
		if !c.Status.IsAssignable() {
			return invalidTransition(c.Status, models.CaseStatusAssigned)
		}

		plan, err := l.Engine.prepare(op.ctx, c, req)
		if err != nil {
			return err
		}
		if plan.deadline == nil {
			plan.deadline = c.InvestigationDeadline
		}

		rows, superseded, err := l.Engine.apply(op.tx, c, plan, op.actor, op.now, op.box)
		if err != nil {
			return err
		}
		result.Assignments = rows
		result.Superseded = superseded

		fields := map[string]interface{}{}
		if req.Deadline != nil {
			fields["investigation_deadline"] = *req.Deadline
		}

		if c.Status.IsFirstAssignment() {
			fields["assigned_at"] = op.now
			op.observe(func() { metrics.ObserveAssignment("first") })
			return op.setStatus(models.CaseStatusAssigned, fields, nil)
		}

		if len(fields) > 0 {
			if err := op.update(fields); err != nil {
				return err
			}
		}
		op.observe(func() { metrics.ObserveAssignment("reassign") })
		audit := caseAuditEntry(c, models.AuditActionReassign, "Investigators reassigned")
		audit.Before = map[string]interface{}{"investigators": sortedKeys(op.scope.ActiveAssignees)}
		audit.After = map[string]interface{}{"investigators": plan.investigatorIDs, "lead": plan.leadID}
		return WriteAuditLog(op.tx, auditContextFor(op.actor, c.CenterID), audit)
	})
	if err != nil {
		return nil, err
	}
	result.Case = updated
	return result, nil
}

// TransitionStatus advances an investigation one step along its linear chain
func (l *CaseLifecycle) TransitionStatus(ctx context.Context, caseID string, to models.CaseStatus, reason string, actor ActorContext) (*models.Case, error) {
	note := optionalText(reason)
	return l.uow().run(ctx, "transition_status", caseID, ActionAdvance, actor, func(op *caseOp) error {
		if !models.IsInvestigationStep(to) {
			return invalidTransition(op.c().Status, to)
		}
		return op.setStatus(to, nil, note)
	})
}

// Close ends an investigation and completes the active assignments
func (l *CaseLifecycle) Close(ctx context.Context, caseID, closureType, reason string, actor ActorContext) (*models.Case, error) {
	if !models.IsValidClosureType(closureType) {
		metrics.ObserveRejected("close")
		return nil, fmt.Errorf("%w: unknown closure type %q", ErrInvalidInput, closureType)
	}
	clean, err := requireReason("closure reason", reason, 1)
	if err != nil {
		metrics.ObserveRejected("close")
		return nil, err
	}

	return l.uow().run(ctx, "close", caseID, ActionClose, actor, func(op *caseOp) error {
		if err := op.setStatus(models.CaseStatusClosed, map[string]interface{}{
			"closed_at":      op.now,
			"closed_by":      op.actor.UserID,
			"closure_type":   closureType,
			"closure_reason": clean,
		}, &clean); err != nil {
			return err
		}
		if err := l.Engine.completeActive(op.tx, op.c().ID, op.now); err != nil {
			return fmt.Errorf("failed to complete assignments: %w", err)
		}
		return nil
	})
}

// Archive retires a closed case
func (l *CaseLifecycle) Archive(ctx context.Context, caseID string, actor ActorContext) (*models.Case, error) {
	return l.uow().run(ctx, "archive", caseID, ActionArchive, actor, func(op *caseOp) error {
		return op.setStatus(models.CaseStatusArchived, map[string]interface{}{
			"archived_at": op.now,
		}, nil)
	})
}

// SendToCourt refers an assigned case to the court
func (l *CaseLifecycle) SendToCourt(ctx context.Context, caseID, notes string, actor ActorContext) (*models.Case, error) {
	note := optionalText(notes)
	return l.uow().run(ctx, "send_to_court", caseID, ActionCourt, actor, func(op *caseOp) error {
		return op.setCourtStatus(models.CourtStatusSent, map[string]interface{}{
			"sent_to_court_at": op.now,
		}, note)
	})
}

// CourtAssign records that the court has taken the case up
func (l *CaseLifecycle) CourtAssign(ctx context.Context, caseID, notes string, actor ActorContext) (*models.Case, error) {
	note := optionalText(notes)
	return l.uow().run(ctx, "court_assign", caseID, ActionCourt, actor, func(op *caseOp) error {
		return op.setCourtStatus(models.CourtStatusCourtAssigned, map[string]interface{}{
			"court_assigned_at": op.now,
		}, note)
	})
}

// CourtClose records the court's closure of the case
func (l *CaseLifecycle) CourtClose(ctx context.Context, caseID, notes string, actor ActorContext) (*models.Case, error) {
	note := optionalText(notes)
	return l.uow().run(ctx, "court_close", caseID, ActionCourt, actor, func(op *caseOp) error {
		return op.setCourtStatus(models.CourtStatusCourtClosed, map[string]interface{}{
			"court_closed_at": op.now,
		}, note)
	})
}

// Get returns a case the actor is allowed to see
func (l *CaseLifecycle) Get(ctx context.Context, caseID string, actor ActorContext) (*models.Case, error) {
	scope, err := loadScope(ctx, l.DB.WithContext(ctx), caseID, l.Engine, false)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, ActionView, scope); err != nil {
		return nil, err
	}
	return scope.Case, nil
}

// History returns the status ledger of a case the actor is allowed to see
func (l *CaseLifecycle) History(ctx context.Context, caseID string, actor ActorContext) ([]HistoryEntry, error) {
	if _, err := l.Get(ctx, caseID, actor); err != nil {
		return nil, err
	}
	return l.Trail.History(ctx, caseID)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
