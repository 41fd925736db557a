package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles. Every role except super_admin is bound to one center.
const (
	RoleSuperAdmin   = "super_admin"
	RoleAdmin        = "admin"
	RoleOBOfficer    = "ob_officer"
	RoleInvestigator = "investigator"
)

// User is a staff account
type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string  `gorm:"not null" json:"name"`
	Email       string  `gorm:"not null;uniqueIndex:idx_user_email" json:"email"`
	Password    string  `gorm:"not null" json:"-"` // bcrypt hash
	BadgeNumber *string `gorm:"size:32" json:"badge_number,omitempty"`

	Role     string  `gorm:"size:16;not null;default:ob_officer;index:idx_user_center_role,priority:2" json:"role"`
	CenterID *string `gorm:"type:uuid;index:idx_user_center_role,priority:1" json:"center_id"`
	IsActive bool    `gorm:"not null;default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`

	Center *Center `gorm:"foreignKey:CenterID" json:"center,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

// HasCenter reports whether the user is bound to a center
func (u *User) HasCenter() bool {
	return u.CenterID != nil && *u.CenterID != ""
}

// IsInCenter reports whether the user is bound to centerID
func (u *User) IsInCenter(centerID string) bool {
	return u.HasCenter() && *u.CenterID == centerID
}

// IsValidRole reports whether role is one of the staff roles
func IsValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleOBOfficer, RoleInvestigator:
		return true
	}
	return false
}
