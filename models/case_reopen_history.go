package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseReopenHistory records one reopen event with the closure it replaced
type CaseReopenHistory struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	CaseID     string `gorm:"type:uuid;not null;index" json:"case_id"`
	ReopenedBy string `gorm:"type:uuid;not null" json:"reopened_by"`
	Reason     string `gorm:"type:text;not null" json:"reason"`

	// Snapshot of the closure being undone
	PreviousClosedAt      *time.Time `json:"previous_closed_at,omitempty"`
	PreviousClosureType   *string    `gorm:"size:40" json:"previous_closure_type,omitempty"`
	PreviousClosureReason *string    `gorm:"type:text" json:"previous_closure_reason,omitempty"`
	PreviousClosedBy      *string    `gorm:"type:uuid" json:"previous_closed_by,omitempty"`

	NewAssignmentID *string `gorm:"type:uuid" json:"new_assignment_id,omitempty"`

	Reopener *User `gorm:"foreignKey:ReopenedBy" json:"-"`
}

// BeforeCreate hook to generate UUID
func (h *CaseReopenHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate prevents modification of reopen history
func (h *CaseReopenHistory) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableRecord
}

// BeforeDelete prevents deletion of reopen history
func (h *CaseReopenHistory) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableRecord
}

func (CaseReopenHistory) TableName() string {
	return "case_reopen_history"
}
