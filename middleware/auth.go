package middleware

import (
	"net/http"
	"police_case_app_go/db"
	"police_case_app_go/models"
	"police_case_app_go/services"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "police_case_session"

	ContextKeyUser    = "user"
	ContextKeySession = "session"
)

// sessionToken prefers an Authorization bearer token over the session cookie
func sessionToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth resolves the caller's session and stores the user and session
// on the context. Requests without a live session get 401.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			session, err := services.ResolveSession(db.DB, token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Session invalid or expired")
			}

			c.Set(ContextKeyUser, &session.User)
			c.Set(ContextKeySession, session)
			return next(c)
		}
	}
}

// RequireRole lets through only users holding one of roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			switch {
			case user == nil:
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			case !allowed[user.Role]:
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

// GetCurrentUser returns the authenticated user, or nil on public routes
func GetCurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(ContextKeyUser).(*models.User)
	return user
}

// GetActor builds the workflow actor of the current request
func GetActor(c echo.Context) services.ActorContext {
	user := GetCurrentUser(c)
	if user == nil {
		return services.ActorContext{}
	}
	return services.ActorFromUser(user)
}
