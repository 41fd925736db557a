package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment status constants
const (
	AssignmentStatusActive     = "active"
	AssignmentStatusCompleted  = "completed"
	AssignmentStatusReassigned = "reassigned"
)

// ErrAssignmentNotDeletable is returned by the delete hook; assignment rows are
// superseded, never removed
var ErrAssignmentNotDeletable = errors.New("case assignments cannot be deleted")

// CaseAssignment links a case to one investigator
type CaseAssignment struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID         string `gorm:"type:uuid;not null;index:idx_assignment_case_status" json:"case_id"`
	InvestigatorID string `gorm:"type:uuid;not null;index:idx_assignment_investigator_status" json:"investigator_id"`
	AssignedBy     string `gorm:"type:uuid;not null" json:"assigned_by"`

	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	IsLead     bool       `gorm:"not null;default:false" json:"is_lead"`
	Notes      *string    `gorm:"type:text" json:"notes,omitempty"`

	Status      string     `gorm:"type:varchar(16);not null;default:active;index:idx_assignment_case_status;index:idx_assignment_investigator_status" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	// Relationships
	Case         *Case `gorm:"foreignKey:CaseID" json:"-"`
	Investigator *User `gorm:"foreignKey:InvestigatorID" json:"investigator,omitempty"`
}

// BeforeCreate hook to generate UUID
func (a *CaseAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = AssignmentStatusActive
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now()
	}
	return nil
}

// BeforeDelete keeps superseded assignments reconstructible
func (a *CaseAssignment) BeforeDelete(tx *gorm.DB) error {
	return ErrAssignmentNotDeletable
}

// TableName specifies the table name for CaseAssignment model
func (CaseAssignment) TableName() string {
	return "case_assignments"
}

// IsActive checks if the assignment is part of the current investigator set
func (a *CaseAssignment) IsActive() bool {
	return a.Status == AssignmentStatusActive
}
