package services

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Workflow wires the case workflow services around one database and notifier
type Workflow struct {
	Trail     *AuditTrail
	Engine    *AssignmentEngine
	Lifecycle *CaseLifecycle
	Reopen    *ReopenWorkflow
}

func NewWorkflow(database *gorm.DB, notifier Notifier, logger zerolog.Logger) *Workflow {
	trail := NewAuditTrail(database)
	engine := NewAssignmentEngine(database, NewCenterDirectory(database), notifier, logger)
	lifecycle := NewCaseLifecycle(database, trail, engine, logger)
	return &Workflow{
		Trail:     trail,
		Engine:    engine,
		Lifecycle: lifecycle,
		Reopen:    NewReopenWorkflow(lifecycle),
	}
}

// Wait blocks until every notification handed off so far has been delivered
func (w *Workflow) Wait() {
	w.Engine.Courier.Wait()
}
