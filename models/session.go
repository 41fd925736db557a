package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a bearer login of one staff member for one shift
type Session struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index:idx_session_expiry" json:"expires_at"`

	UserID string `gorm:"type:uuid;not null;index:idx_session_user" json:"user_id"`
	Token  string `gorm:"type:varchar(128);not null;uniqueIndex:idx_session_token" json:"-"`

	// Client that opened the session, kept for the login audit entry
	IPAddress string `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string `gorm:"type:text" json:"user_agent"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (Session) TableName() string {
	return "sessions"
}

// ExpiredAt reports whether the session is no longer valid at now
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
