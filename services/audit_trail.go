package services

import (
	"context"
	"fmt"
	"police_case_app_go/models"
	"time"

	"gorm.io/gorm"
)

// StatusChange is the write contract of the audit trail
type StatusChange struct {
	CaseID              string
	PreviousStatus      models.CaseStatus
	NewStatus           models.CaseStatus
	PreviousCourtStatus models.CourtStatus
	NewCourtStatus      models.CourtStatus
	ActorID             string
	Reason              *string
}

// HistoryEntry is the read projection of one ledger row
type HistoryEntry struct {
	ID                  string             `json:"id"`
	CaseID              string             `json:"case_id"`
	PreviousStatus      models.CaseStatus  `json:"previous_status"`
	NewStatus           models.CaseStatus  `json:"new_status"`
	PreviousCourtStatus models.CourtStatus `json:"previous_court_status"`
	NewCourtStatus      models.CourtStatus `json:"new_court_status"`
	ChangedBy           string             `json:"changed_by"`
	ChangedByName       string             `json:"changed_by_name"`
	Reason              *string            `json:"reason,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// AuditTrail is the append-only ledger of case status and court status changes
type AuditTrail struct {
	DB *gorm.DB
}

func NewAuditTrail(db *gorm.DB) *AuditTrail {
	return &AuditTrail{DB: db}
}

// Record inserts exactly one ledger row using tx, which must be the
// transaction that applies the transition
func (t *AuditTrail) Record(tx *gorm.DB, change StatusChange) (*models.CaseStatusHistory, error) {
	if change.CaseID == "" || change.ActorID == "" || change.NewStatus == "" || change.NewCourtStatus == "" {
		return nil, fmt.Errorf("%w: incomplete status change", ErrInvalidInput)
	}

	entry := &models.CaseStatusHistory{
		CaseID:              change.CaseID,
		PreviousStatus:      change.PreviousStatus,
		NewStatus:           change.NewStatus,
		PreviousCourtStatus: change.PreviousCourtStatus,
		NewCourtStatus:      change.NewCourtStatus,
		ChangedBy:           change.ActorID,
		Reason:              change.Reason,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record status history: %w", err)
	}
	return entry, nil
}

// Update is part of the ledger contract only to refuse it
func (t *AuditTrail) Update(ctx context.Context, entryID string, _ map[string]interface{}) error {
	return fmt.Errorf("%w: status history %s", ErrImmutableRecord, entryID)
}

// Delete is part of the ledger contract only to refuse it
func (t *AuditTrail) Delete(ctx context.Context, entryID string) error {
	return fmt.Errorf("%w: status history %s", ErrImmutableRecord, entryID)
}

// History returns every ledger row of a case, newest first, with the actor's display name
func (t *AuditTrail) History(ctx context.Context, caseID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := t.DB.WithContext(ctx).
		Table("case_status_history AS h").
		Select(`h.id, h.case_id, h.previous_status, h.new_status,
			h.previous_court_status, h.new_court_status,
			h.changed_by, COALESCE(u.name, '') AS changed_by_name, h.reason, h.created_at`).
		Joins("LEFT JOIN users u ON u.id = h.changed_by").
		Where("h.case_id = ?", caseID).
		Order("h.created_at DESC").
		Order("h.id DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	return entries, nil
}

// Count returns the number of ledger rows of a case
func (t *AuditTrail) Count(ctx context.Context, caseID string) (int64, error) {
	var count int64
	err := t.DB.WithContext(ctx).Model(&models.CaseStatusHistory{}).
		Where("case_id = ?", caseID).
		Count(&count).Error
	return count, err
}
