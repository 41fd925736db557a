package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"police_case_app_go/models"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	BcryptCost = 10
	// SessionLifetime is one shift
	SessionLifetime = 12 * time.Hour

	sessionTokenBytes = 32
)

// ErrSessionInvalid is returned for unknown or expired session tokens
var ErrSessionInvalid = errors.New("session invalid")

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches the bcrypt hash
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

func newSessionToken() (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// StartSession opens a shift-long session for userID
func StartSession(db *gorm.DB, userID, ipAddress, userAgent string) (*models.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(SessionLifetime),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return session, nil
}

// ResolveSession returns the live session of token with its user loaded.
// Expired sessions are deleted on sight.
func ResolveSession(db *gorm.DB, token string) (*models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrSessionInvalid)
	}

	var session models.Session
	err := db.Preload("User").First(&session, "token = ?", token).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: unknown token", ErrSessionInvalid)
	case err != nil:
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	if session.ExpiredAt(time.Now()) {
		db.Delete(&session)
		return nil, fmt.Errorf("%w: expired", ErrSessionInvalid)
	}
	if !session.User.IsActive {
		return nil, fmt.Errorf("%w: user deactivated", ErrSessionInvalid)
	}
	return &session, nil
}

// EndSession removes the session of token. Unknown tokens are not an error.
func EndSession(db *gorm.DB, token string) error {
	if err := db.Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes every session past its expiry and reports how many went
func PurgeExpiredSessions(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at <= ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ActorFromUser builds the workflow actor of an authenticated user
func ActorFromUser(user *models.User) ActorContext {
	actor := ActorContext{UserID: user.ID, Role: user.Role}
	if user.HasCenter() {
		actor.CenterID = *user.CenterID
	}
	return actor
}
