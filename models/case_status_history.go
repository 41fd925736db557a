package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrImmutableRecord is returned by the update/delete hooks of append-only ledgers
var ErrImmutableRecord = errors.New("record is immutable")

// CaseStatusHistory is one immutable row per status or court-status transition
type CaseStatusHistory struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_status_history_case_created" json:"created_at"`

	CaseID string `gorm:"type:uuid;not null;index:idx_status_history_case_created" json:"case_id"`

	PreviousStatus      CaseStatus  `gorm:"type:varchar(32)" json:"previous_status"`
	NewStatus           CaseStatus  `gorm:"type:varchar(32);not null" json:"new_status"`
	PreviousCourtStatus CourtStatus `gorm:"type:varchar(32)" json:"previous_court_status"`
	NewCourtStatus      CourtStatus `gorm:"type:varchar(32);not null" json:"new_court_status"`

	ChangedBy string  `gorm:"type:uuid;not null;index" json:"changed_by"`
	Reason    *string `gorm:"type:text" json:"reason,omitempty"`

	// Relationships (for reading, not for data integrity)
	Changer *User `gorm:"foreignKey:ChangedBy" json:"-"`
}

// BeforeCreate hook to generate a time-ordered UUID, so rows sharing a
// timestamp still sort in insertion order by id
func (h *CaseStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.Must(uuid.NewV7()).String()
	}
	return nil
}

// BeforeUpdate prevents modification of history rows
func (h *CaseStatusHistory) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableRecord
}

// BeforeDelete prevents deletion of history rows
func (h *CaseStatusHistory) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableRecord
}

// TableName specifies the table name
func (CaseStatusHistory) TableName() string {
	return "case_status_history"
}

// IsCourtChange reports whether the row records a court referral step
func (h *CaseStatusHistory) IsCourtChange() bool {
	return h.PreviousCourtStatus != h.NewCourtStatus
}
