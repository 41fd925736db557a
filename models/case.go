package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case priority constants
const (
	CasePriorityLow    = "LOW"
	CasePriorityNormal = "NORMAL"
	CasePriorityHigh   = "HIGH"
	CasePriorityUrgent = "URGENT"
)

// Closure type constants
const (
	ClosureTypeSolved               = "solved"
	ClosureTypeUnsolved             = "unsolved"
	ClosureTypeInsufficientEvidence = "insufficient_evidence"
	ClosureTypeWithdrawn            = "withdrawn"
	ClosureTypeTransferred          = "transferred"
	ClosureTypeReferredToCourt      = "referred_to_court"
)

// Case is the aggregate root of the workflow engine
type Case struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Center relationship
	CenterID string  `gorm:"type:uuid;not null;index:idx_case_center_status;uniqueIndex:idx_center_case_number;uniqueIndex:idx_center_ob_number" json:"center_id"`
	Center   *Center `gorm:"foreignKey:CenterID" json:"center,omitempty"`

	// Identification (numbers embed the year so uniqueness is per center+year)
	CaseNumber  string  `gorm:"not null;uniqueIndex:idx_center_case_number" json:"case_number"`
	OBNumber    string  `gorm:"column:ob_number;not null;uniqueIndex:idx_center_ob_number" json:"ob_number"`
	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	CategoryID  *string `gorm:"type:uuid;index" json:"category_id,omitempty"`

	Priority    string `gorm:"not null;default:NORMAL" json:"priority"`
	IsSensitive bool   `gorm:"not null;default:false" json:"is_sensitive"`

	CreatedBy string `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator   *User  `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`

	// Status and lifecycle
	Status      CaseStatus  `gorm:"type:varchar(32);not null;default:draft;index:idx_case_center_status" json:"status"`
	CourtStatus CourtStatus `gorm:"type:varchar(32);not null;default:not_sent" json:"court_status"`

	InvestigationDeadline *time.Time `json:"investigation_deadline,omitempty"`

	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy   *string    `gorm:"type:uuid" json:"approved_by,omitempty"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	ReturnReason *string    `gorm:"type:text" json:"return_reason,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`

	// Closure
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	ClosedBy      *string    `gorm:"type:uuid" json:"closed_by,omitempty"`
	ClosureType   *string    `gorm:"size:40" json:"closure_type,omitempty"`
	ClosureReason *string    `gorm:"type:text" json:"closure_reason,omitempty"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`

	// Reopening (previous closure is snapshotted before the closure fields are cleared)
	ReopenedAt            *time.Time `json:"reopened_at,omitempty"`
	ReopenedBy            *string    `gorm:"type:uuid" json:"reopened_by,omitempty"`
	ReopenReason          *string    `gorm:"type:text" json:"reopen_reason,omitempty"`
	ReopenedCount         int        `gorm:"not null;default:0" json:"reopened_count"`
	PreviousClosedAt      *time.Time `json:"previous_closed_at,omitempty"`
	PreviousClosureType   *string    `gorm:"size:40" json:"previous_closure_type,omitempty"`
	PreviousClosureReason *string    `gorm:"type:text" json:"previous_closure_reason,omitempty"`
	PreviousClosedBy      *string    `gorm:"type:uuid" json:"previous_closed_by,omitempty"`

	// Court referral
	SentToCourtAt   *time.Time `json:"sent_to_court_at,omitempty"`
	CourtAssignedAt *time.Time `json:"court_assigned_at,omitempty"`
	CourtClosedAt   *time.Time `json:"court_closed_at,omitempty"`

	// Relationships
	Assignments []CaseAssignment `gorm:"foreignKey:CaseID" json:"assignments,omitempty"`
}

// BeforeCreate hook to generate UUID and default the workflow columns
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CaseStatusDraft
	}
	if c.CourtStatus == "" {
		c.CourtStatus = CourtStatusNotSent
	}
	if c.Priority == "" {
		c.Priority = CasePriorityNormal
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "cases"
}

// IsClosed checks if the case is closed
func (c *Case) IsClosed() bool {
	return c.Status == CaseStatusClosed
}

// IsCourtClosed checks if the court has closed its side of the case
func (c *Case) IsCourtClosed() bool {
	return c.CourtStatus == CourtStatusCourtClosed
}

// IsValidCasePriority checks if the priority is valid
func IsValidCasePriority(priority string) bool {
	switch priority {
	case CasePriorityLow, CasePriorityNormal, CasePriorityHigh, CasePriorityUrgent:
		return true
	}
	return false
}

// IsValidClosureType checks if the closure type is valid
func IsValidClosureType(closureType string) bool {
	switch closureType {
	case ClosureTypeSolved,
		ClosureTypeUnsolved,
		ClosureTypeInsufficientEvidence,
		ClosureTypeWithdrawn,
		ClosureTypeTransferred,
		ClosureTypeReferredToCourt:
		return true
	}
	return false
}
