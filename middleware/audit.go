package middleware

import (
	"police_case_app_go/services"

	"github.com/labstack/echo/v4"
)

const ContextKeyAuditContext = "audit_context"

// AuditContext stores who is calling and from where for the audit trail
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyAuditContext, requestAuditContext(c))
			return next(c)
		}
	}
}

func requestAuditContext(c echo.Context) services.AuditContext {
	audit := services.AuditContext{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
	user := GetCurrentUser(c)
	if user == nil {
		return audit
	}

	actor := services.ActorFromUser(user)
	audit.UserID = actor.UserID
	audit.UserRole = actor.Role
	audit.CenterID = actor.CenterID
	audit.UserName = user.Name
	return audit
}

// GetAuditContext returns the stored audit context, or builds one from the
// request on routes mounted without the middleware
func GetAuditContext(c echo.Context) services.AuditContext {
	if audit, ok := c.Get(ContextKeyAuditContext).(services.AuditContext); ok {
		return audit
	}
	return requestAuditContext(c)
}
