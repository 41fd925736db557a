package services

import (
	"context"
	"fmt"
	"police_case_app_go/metrics"
	"police_case_app_go/models"

	"gorm.io/gorm"
)

// ReopenInput carries the reopen request
type ReopenInput struct {
	Reason                 string
	AssignToInvestigatorID string
	AssignmentNotes        string
}

// ReopenWorkflow reopens closed cases, optionally handing them straight back
// to an investigator
type ReopenWorkflow struct {
	Lifecycle *CaseLifecycle
}

func NewReopenWorkflow(lifecycle *CaseLifecycle) *ReopenWorkflow {
	return &ReopenWorkflow{Lifecycle: lifecycle}
}

// Reopen moves a closed case to reopened, snapshotting the closure it undoes.
// With an investigator the case continues to assigned in the same transaction.
func (w *ReopenWorkflow) Reopen(ctx context.Context, caseID string, input ReopenInput, actor ActorContext) (*models.Case, error) {
	reason, err := requireReason("reopen reason", input.Reason, 1)
	if err != nil {
		metrics.ObserveRejected("reopen")
		return nil, err
	}
	notes := optionalText(input.AssignmentNotes)
	engine := w.Lifecycle.Engine

	return w.Lifecycle.uow().run(ctx, "reopen", caseID, ActionReopen, actor, func(op *caseOp) error {
		c := op.c()
		if c.Status != models.CaseStatusClosed {
			return fmt.Errorf("%w: case %s is %s", ErrNotClosed, c.ID, c.Status)
		}
		if c.IsCourtClosed() {
			return fmt.Errorf("%w: case %s", ErrCourtApprovalRequired, c.ID)
		}

		if input.AssignToInvestigatorID != "" {
			if _, err := engine.prepare(op.ctx, c, AssignRequest{
				InvestigatorIDs: []string{input.AssignToInvestigatorID},
				LeadID:          input.AssignToInvestigatorID,
			}); err != nil {
				return err
			}
		}

		entry := models.CaseReopenHistory{
			CaseID:                c.ID,
			ReopenedBy:            op.actor.UserID,
			Reason:                reason,
			PreviousClosedAt:      c.ClosedAt,
			PreviousClosureType:   c.ClosureType,
			PreviousClosureReason: c.ClosureReason,
			PreviousClosedBy:      c.ClosedBy,
		}

		if err := op.setStatus(models.CaseStatusReopened, map[string]interface{}{
			"reopened_at":             op.now,
			"reopened_by":             op.actor.UserID,
			"reopen_reason":           reason,
			"reopened_count":          gorm.Expr("reopened_count + 1"),
			"previous_closed_at":      c.ClosedAt,
			"previous_closure_type":   c.ClosureType,
			"previous_closure_reason": c.ClosureReason,
			"previous_closed_by":      c.ClosedBy,
			"closed_at":               nil,
			"closed_by":               nil,
			"closure_type":            nil,
			"closure_reason":          nil,
		}, &reason); err != nil {
			return err
		}
		op.observe(metrics.ObserveReopen)

		if input.AssignToInvestigatorID != "" {
			assignment, err := engine.reactivateOrCreateLead(op.ctx, op.tx, c, input.AssignToInvestigatorID, notes, op.actor, op.now, op.box)
			if err != nil {
				return err
			}
			entry.NewAssignmentID = &assignment.ID

			if err := op.setStatus(models.CaseStatusAssigned, map[string]interface{}{
				"assigned_at": op.now,
			}, nil); err != nil {
				return err
			}
			op.observe(func() { metrics.ObserveAssignment("reopen") })
		}

		if err := op.tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to record reopen history: %w", err)
		}

		audit := caseAuditEntry(c, models.AuditActionReopen, "Case reopened")
		audit.Before = map[string]interface{}{"closure_type": entry.PreviousClosureType, "closed_at": entry.PreviousClosedAt}
		audit.After = map[string]interface{}{"reason": reason, "investigator_id": input.AssignToInvestigatorID}
		return WriteAuditLog(op.tx, auditContextFor(op.actor, c.CenterID), audit)
	})
}

// ReopenHistory returns every reopen of a case, newest first
func (w *ReopenWorkflow) ReopenHistory(ctx context.Context, caseID string, actor ActorContext) ([]models.CaseReopenHistory, error) {
	if _, err := w.Lifecycle.Get(ctx, caseID, actor); err != nil {
		return nil, err
	}

	var entries []models.CaseReopenHistory
	err := w.Lifecycle.DB.WithContext(ctx).
		Preload("Reopener").
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reopen history: %w", err)
	}
	return entries, nil
}
