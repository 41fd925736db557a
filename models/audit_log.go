package models

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction names the operation an audit entry describes
type AuditAction string

const (
	AuditActionCreate         AuditAction = "CREATE"
	AuditActionUpdate         AuditAction = "UPDATE"
	AuditActionReassign       AuditAction = "REASSIGN"        // Active investigator set superseded
	AuditActionDeadlineChange AuditAction = "DEADLINE_CHANGE" // Investigation deadline moved
	AuditActionReopen         AuditAction = "REOPEN"
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionLogout         AuditAction = "LOGOUT"
)

// Resource types recorded in AuditLog.ResourceType
const (
	AuditResourceCase = "Case"
	AuditResourceUser = "User"
)

// AuditLog is an immutable record of a data operation outside the status
// ledger: case intake, reassignment, deadline moves, reopens and sessions
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_log_created" json:"created_at"`

	// Who. Name and role are copied so the entry survives staff changes.
	UserID   *string `gorm:"type:uuid;index:idx_audit_log_user" json:"user_id,omitempty"`
	UserName string  `gorm:"not null" json:"user_name"`
	UserRole string  `gorm:"not null" json:"user_role"`
	CenterID *string `gorm:"type:uuid;index:idx_audit_log_center" json:"center_id,omitempty"`

	// What
	ResourceType string      `gorm:"not null;index:idx_audit_log_resource" json:"resource_type"`
	ResourceID   string      `gorm:"type:uuid;not null;index:idx_audit_log_resource" json:"resource_id"`
	ResourceName string      `json:"resource_name,omitempty"` // case number or user name
	Action       AuditAction `gorm:"not null;index:idx_audit_log_action" json:"action"`
	Description  string      `gorm:"type:text" json:"description,omitempty"`

	// JSON objects of the values before and after the operation
	OldValues string `gorm:"type:text" json:"old_values,omitempty"`
	NewValues string `gorm:"type:text" json:"new_values,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// AuditChange is one field whose value differs between OldValues and NewValues
type AuditChange struct {
	Field string
	Old   interface{}
	New   interface{}
}

// Changes lists the changed fields sorted by name
func (a *AuditLog) Changes() []AuditChange {
	before := decodeAuditValues(a.OldValues)
	after := decodeAuditValues(a.NewValues)

	fields := make([]string, 0, len(before)+len(after))
	for field := range before {
		fields = append(fields, field)
	}
	for field := range after {
		if _, seen := before[field]; !seen {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	var changes []AuditChange
	for _, field := range fields {
		if !reflect.DeepEqual(before[field], after[field]) {
			changes = append(changes, AuditChange{Field: field, Old: before[field], New: after[field]})
		}
	}
	return changes
}

func decodeAuditValues(raw string) map[string]interface{} {
	values := map[string]interface{}{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &values)
	}
	return values
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate refuses every update
func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableRecord
}

// BeforeDelete refuses every delete
func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableRecord
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
