package handlers

import (
	"errors"
	"net/http"
	"police_case_app_go/config"
	"police_case_app_go/db"
	"police_case_app_go/middleware"
	"police_case_app_go/models"
	"police_case_app_go/services"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Package level variable to hold the dummy hash
var globalDummyHash string

func init() {
	// A real hash keeps the unknown-email path as slow as a wrong password
	hash, _ := services.HashPassword("dummy_password_for_timing_mitigation")
	globalDummyHash = hash
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token for API clients
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func isProduction(c echo.Context) bool {
	cfg, ok := c.Get("config").(*config.Config)
	return ok && cfg.IsProduction()
}

func sessionCookie(c echo.Context, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	}
}

// LoginHandler exchanges credentials for a session token and cookie
func LoginHandler(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	var user models.User
	err := db.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		// Timing attack mitigation
		services.VerifyPassword(globalDummyHash, req.Password)
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, err)
		}
		services.Monitor.RecordFailure(c.RealIP(), email)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	if !services.VerifyPassword(user.Password, req.Password) {
		services.Monitor.RecordFailure(c.RealIP(), email)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if !user.IsActive {
		return echo.NewHTTPError(http.StatusForbidden, "Your account has been deactivated")
	}

	session, err := services.StartSession(db.DB, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(sessionCookie(c, session.Token, int(services.SessionLifetime.Seconds())))

	c.Set(middleware.ContextKeyUser, &user)
	auditCtx := middleware.GetAuditContext(c)
	if err := services.WriteAuditLog(db.DB, auditCtx, services.UserAuditEntry(&user, models.AuditActionLogin, "User logged in")); err != nil {
		logger := middleware.GetLogger(c)
		logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to audit login")
	}

	// Update last login time
	now := time.Now()
	db.DB.Model(&user).Update("last_login_at", now)
	user.LastLoginAt = &now

	return c.JSON(http.StatusOK, LoginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: &user})
}

// LogoutHandler deletes the current session and clears the cookie
func LogoutHandler(c echo.Context) error {
	if user := middleware.GetCurrentUser(c); user != nil {
		auditCtx := middleware.GetAuditContext(c)
		if err := services.WriteAuditLog(db.DB, auditCtx, services.UserAuditEntry(user, models.AuditActionLogout, "User logged out")); err != nil {
			logger := middleware.GetLogger(c)
			logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to audit logout")
		}
	}

	if session, ok := c.Get(middleware.ContextKeySession).(*models.Session); ok {
		if err := services.EndSession(db.DB, session.Token); err != nil {
			return respondError(c, err)
		}
	}

	c.SetCookie(sessionCookie(c, "", -1))
	return c.NoContent(http.StatusNoContent)
}

// GetCurrentUserHandler returns the current user info as JSON
func GetCurrentUserHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	if token := middleware.GetCSRFToken(c); token != "" {
		c.Response().Header().Set(echo.HeaderXCSRFToken, token)
	}
	return c.JSON(http.StatusOK, user)
}

// GetSecurityAlertsHandler lists recent repeated-login-failure alerts
func GetSecurityAlertsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, services.Monitor.RecentAlerts())
}
