package services

import (
	"context"
	"fmt"
	"police_case_app_go/db"
	"police_case_app_go/models"

	"gorm.io/gorm"
)

// CenterMember is the directory's view of a center's staff member
type CenterMember struct {
	ID       string
	Name     string
	Role     string
	IsActive bool
}

// CenterDirectory answers who works at a center
type CenterDirectory interface {
	InvestigatorsOf(ctx context.Context, centerID string) ([]CenterMember, error)
}

// GormCenterDirectory reads center staff from the users table
type GormCenterDirectory struct {
	DB *gorm.DB
}

func NewCenterDirectory(database *gorm.DB) *GormCenterDirectory {
	return &GormCenterDirectory{DB: database}
}

// InvestigatorsOf returns every staff member of the center with role and
// active flag; callers decide eligibility
func (d *GormCenterDirectory) InvestigatorsOf(ctx context.Context, centerID string) ([]CenterMember, error) {
	var users []models.User
	if err := db.From(ctx, d.DB).
		Select("id", "name", "role", "is_active").
		Where("center_id = ?", centerID).
		Order("name ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list center staff: %w", err)
	}

	members := make([]CenterMember, 0, len(users))
	for _, u := range users {
		members = append(members, CenterMember{ID: u.ID, Name: u.Name, Role: u.Role, IsActive: u.IsActive})
	}
	return members, nil
}
