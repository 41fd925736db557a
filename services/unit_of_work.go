package services

import (
	"context"
	"errors"
	"fmt"
	"police_case_app_go/db"
	"police_case_app_go/metrics"
	"police_case_app_go/models"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loadScope reads a case and everything authorize needs. With lock set the
// case row is locked for update on dialects that support it.
func loadScope(ctx context.Context, conn *gorm.DB, caseID string, engine *AssignmentEngine, lock bool) (caseScope, error) {
	query := conn
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var c models.Case
	if err := query.First(&c, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return caseScope{}, fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}
		return caseScope{}, fmt.Errorf("failed to load case: %w", err)
	}

	scope := caseScope{Case: &c}
	var creator models.User
	err := conn.Unscoped().Select("id", "role", "center_id").First(&creator, "id = ?", c.CreatedBy).Error
	switch {
	case err == nil:
		scope.Creator = &creator
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return caseScope{}, fmt.Errorf("failed to load case creator: %w", err)
	}

	active, err := engine.activeAssigneeSet(db.WithTx(ctx, conn), c.ID)
	if err != nil {
		return caseScope{}, err
	}
	scope.ActiveAssignees = active
	return scope, nil
}

// caseOp is one workflow operation in flight inside its transaction
type caseOp struct {
	ctx      context.Context
	tx       *gorm.DB
	trail    *AuditTrail
	scope    caseScope
	actor    ActorContext
	now      time.Time
	box      *outbox
	observed []func()
}

func (op *caseOp) c() *models.Case {
	return op.scope.Case
}

// update writes fields with a compare-and-set on the status pair the case was
// loaded with. Zero rows affected means another operation got there first.
func (op *caseOp) update(fields map[string]interface{}) error {
	c := op.c()
	fields["updated_at"] = op.now
	result := op.tx.Model(&models.Case{}).
		Where("id = ? AND status = ? AND court_status = ?", c.ID, c.Status, c.CourtStatus).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update case: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: case %s", ErrConcurrentUpdate, c.ID)
	}
	return nil
}

// setStatus applies a status change allowed by the transition table and
// records it in the ledger
func (op *caseOp) setStatus(to models.CaseStatus, fields map[string]interface{}, reason *string) error {
	c := op.c()
	from := c.Status
	if !models.CanTransition(from, to) {
		return invalidTransition(from, to)
	}

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["status"] = to
	if err := op.update(fields); err != nil {
		return err
	}

	if _, err := op.trail.Record(op.tx, StatusChange{
		CaseID:              c.ID,
		PreviousStatus:      from,
		NewStatus:           to,
		PreviousCourtStatus: c.CourtStatus,
		NewCourtStatus:      c.CourtStatus,
		ActorID:             op.actor.UserID,
		Reason:              reason,
	}); err != nil {
		return err
	}

	c.Status = to
	op.observe(func() { metrics.ObserveTransition(string(from), string(to)) })
	return nil
}

// setCourtStatus advances the court axis by one step. The case status is untouched
// but the ledger still gets a row carrying the court delta.
func (op *caseOp) setCourtStatus(to models.CourtStatus, fields map[string]interface{}, reason *string) error {
	c := op.c()
	from := c.CourtStatus
	if !c.Status.HasReachedAssignment() {
		return &TransitionError{Current: string(c.Status), Requested: string(to)}
	}
	if next, ok := models.NextCourtStatus(from); !ok || next != to {
		return invalidCourtTransition(from, to)
	}

	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["court_status"] = to
	if err := op.update(fields); err != nil {
		return err
	}

	if _, err := op.trail.Record(op.tx, StatusChange{
		CaseID:              c.ID,
		PreviousStatus:      c.Status,
		NewStatus:           c.Status,
		PreviousCourtStatus: from,
		NewCourtStatus:      to,
		ActorID:             op.actor.UserID,
		Reason:              reason,
	}); err != nil {
		return err
	}

	c.CourtStatus = to
	op.observe(func() { metrics.ObserveCourtTransition(string(to)) })
	return nil
}

// observe defers a metric until the transaction has committed
func (op *caseOp) observe(fn func()) {
	op.observed = append(op.observed, fn)
}

// unitOfWork runs one case operation: lock and load, authorize, apply, commit,
// then count and hand notices to the courier
type unitOfWork struct {
	db       *gorm.DB
	trail    *AuditTrail
	engine   *AssignmentEngine
	courier  *Courier
	logger   zerolog.Logger
}

func (u unitOfWork) run(ctx context.Context, operation, caseID string, action Action, actor ActorContext, apply func(op *caseOp) error) (*models.Case, error) {
	op := &caseOp{trail: u.trail, actor: actor, box: &outbox{}}

	var updated models.Case
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		op.tx = tx
		op.ctx = db.WithTx(ctx, tx)

		scope, err := loadScope(op.ctx, tx, caseID, u.engine, true)
		if err != nil {
			return err
		}
		if err := authorize(actor, action, scope); err != nil {
			return err
		}
		op.scope = scope
		op.now = time.Now()

		if err := apply(op); err != nil {
			return err
		}
		if err := tx.First(&updated, "id = ?", caseID).Error; err != nil {
			return fmt.Errorf("failed to reload case: %w", err)
		}
		return nil
	})
	if err != nil {
		if IsDomainError(err) {
			metrics.ObserveRejected(operation)
			u.logger.Debug().Err(err).
				Str("operation", operation).
				Str("case_id", caseID).
				Str("actor_id", actor.UserID).
				Msg("workflow operation rejected")
		} else {
			u.logger.Error().Err(err).
				Str("operation", operation).
				Str("case_id", caseID).
				Msg("workflow operation failed")
		}
		return nil, err
	}

	for _, fn := range op.observed {
		fn()
	}
	u.logger.Info().
		Str("operation", operation).
		Str("case_id", updated.ID).
		Str("status", string(updated.Status)).
		Str("court_status", string(updated.CourtStatus)).
		Str("actor_id", actor.UserID).
		Msg("case updated")

	u.courier.send(ctx, op.box)
	return &updated, nil
}
