package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"police_case_app_go/config"
	"police_case_app_go/db"
	"police_case_app_go/models"
	"police_case_app_go/services"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		Environment: cfg.Environment,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
	}, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")
	fmt.Println()

	name := prompt(reader, "Name: ")
	email := prompt(reader, "Email: ")
	role := prompt(reader, "Role (super_admin, admin, ob_officer, investigator): ")
	badge := prompt(reader, "Badge number (optional): ")

	if !models.IsValidRole(role) {
		logger.Fatal().Str("role", role).Msg("unknown role")
	}

	var center *models.Center
	if role != models.RoleSuperAdmin {
		code := strings.ToUpper(prompt(reader, "Center code: "))
		var existing models.Center
		err := db.DB.Where("code = ?", code).First(&existing).Error
		switch {
		case err == nil:
			center = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			centerName := prompt(reader, fmt.Sprintf("Center %s does not exist. Center name to create it: ", code))
			if centerName == "" {
				logger.Fatal().Msg("center name is required")
			}
			center = &models.Center{Name: centerName, Code: code, IsActive: true}
			if err := db.DB.Create(center).Error; err != nil {
				logger.Fatal().Err(err).Msg("failed to create center")
			}
		default:
			logger.Fatal().Err(err).Msg("failed to look up center")
		}
	}

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read password")
	}
	password := string(passwordBytes)
	fmt.Println()

	if name == "" || email == "" || password == "" {
		logger.Fatal().Msg("name, email, and password are required")
	}
	if err := services.ValidatePassword(password); err != nil {
		logger.Fatal().Err(err).Msg("password rejected")
	}

	email = strings.ToLower(email)
	var existingUser models.User
	if err := db.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		logger.Fatal().Str("email", email).Msg("user already exists")
	}

	hashedPassword, err := services.HashPassword(password)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to hash password")
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
	}
	if badge != "" {
		user.BadgeNumber = &badge
	}
	if center != nil {
		user.CenterID = &center.ID
	}

	if err := db.DB.Create(user).Error; err != nil {
		logger.Fatal().Err(err).Msg("failed to create user")
	}

	fmt.Println()
	fmt.Println("User created successfully")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Name: %s\n", user.Name)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Role: %s\n", user.Role)
	if center != nil {
		fmt.Printf("  Center: %s (%s)\n", center.Name, center.Code)
	}

	if strings.EqualFold(prompt(reader, "Issue an API session token now? [y/N]: "), "y") {
		session, err := services.StartSession(db.DB, user.ID, "127.0.0.1", "create-user")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create session")
		}
		fmt.Printf("  Token: %s\n", session.Token)
		fmt.Printf("  Expires: %s\n", session.ExpiresAt.Format("2006-01-02 15:04"))
	}
}
