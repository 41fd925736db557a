package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType tells the UI which case event a notification reports
type NotificationType string

const (
	NotificationTypeCaseReturned     NotificationType = "CASE_RETURNED"
	NotificationTypeCaseAssigned     NotificationType = "CASE_ASSIGNED"
	NotificationTypeDeadlineChanged  NotificationType = "DEADLINE_CHANGED"
	NotificationTypeDeadlineReminder NotificationType = "DEADLINE_REMINDER"
	NotificationTypeCaseReopened     NotificationType = "CASE_REOPENED"
)

// Notification is an in-app message to one staff member about one case
type Notification struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index:idx_notification_inbox,priority:2" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID string           `gorm:"type:uuid;not null;index:idx_notification_inbox,priority:1" json:"user_id"`
	CaseID string           `gorm:"type:uuid;index" json:"case_id,omitempty"`
	Type   NotificationType `gorm:"size:32;not null" json:"type"`

	Title   string `gorm:"not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	// Nil until the recipient opens it
	ReadAt *time.Time `json:"read_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}

// Unread reports whether the recipient has not opened the notification yet
func (n *Notification) Unread() bool {
	return n.ReadAt == nil
}
