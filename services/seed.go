package services

import (
	"fmt"
	"police_case_app_go/models"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// BootstrapAccount is the first super admin of a fresh deployment
type BootstrapAccount struct {
	Email    string
	Password string
	Name     string
}

// SeedSuperAdmin creates the bootstrap super admin. It does nothing when the
// account is incomplete, when a super admin already exists, or when the email
// belongs to someone else.
func SeedSuperAdmin(database *gorm.DB, account BootstrapAccount, logger zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(account.Email))
	if email == "" || account.Password == "" {
		return nil
	}

	name := strings.TrimSpace(account.Name)
	if name == "" {
		name = "Super Admin"
	}

	var count int64
	if err := database.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug().Msg("super admin already exists, skipping seed")
		return nil
	}

	if err := database.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Warn().Str("email", email).Msg("bootstrap email belongs to an existing user, skipping seed")
		return nil
	}

	if err := ValidatePassword(account.Password); err != nil {
		return fmt.Errorf("bootstrap super admin: %w", err)
	}
	hashed, err := HashPassword(account.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}
	if err := database.Create(user).Error; err != nil {
		return err
	}

	logger.Info().Str("email", email).Msg("created bootstrap super admin")
	return nil
}
