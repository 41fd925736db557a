package handlers

import (
	"police_case_app_go/config"
	"police_case_app_go/middleware"
	"police_case_app_go/models"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the JSON API on e
func RegisterRoutes(e *echo.Echo, cfg *config.Config) {
	e.POST("/api/auth/login", LoginHandler, middleware.LoginRateLimiter.Middleware())

	api := e.Group("/api", middleware.RequireAuth(), middleware.CSRF(cfg.IsProduction()), middleware.AuditContext())
	api.POST("/auth/logout", LogoutHandler)
	api.GET("/auth/me", GetCurrentUserHandler)

	cases := api.Group("/cases")
	cases.GET("/:id", GetCaseHandler)
	cases.GET("/:id/history", GetCaseHistoryHandler)
	cases.GET("/:id/reopen-history", GetReopenHistoryHandler)
	cases.GET("/:id/assignments", GetCaseAssignmentsHandler)
	cases.GET("/:id/audit-logs", GetCaseAuditLogsHandler)

	// Mutating routes share a per-user budget
	mutate := cases.Group("", middleware.WorkflowRateLimiter.Middleware())
	mutate.POST("", CreateCaseHandler, middleware.RequireRole(models.RoleOBOfficer, models.RoleAdmin, models.RoleSuperAdmin))
	mutate.POST("/:id/submit", SubmitCaseHandler)
	mutate.POST("/:id/approve", ApproveCaseHandler)
	mutate.POST("/:id/return", ReturnCaseHandler)
	mutate.POST("/:id/pending-parties", MarkPendingPartiesHandler)
	mutate.POST("/:id/assign", AssignCaseHandler)
	mutate.PUT("/:id/deadline", UpdateDeadlineHandler)
	mutate.POST("/:id/transition", TransitionCaseHandler)
	mutate.POST("/:id/close", CloseCaseHandler)
	mutate.POST("/:id/archive", ArchiveCaseHandler)
	mutate.POST("/:id/court/send", CourtHandler("send"))
	mutate.POST("/:id/court/assign", CourtHandler("assign"))
	mutate.POST("/:id/court/close", CourtHandler("close"))
	mutate.POST("/:id/reopen", ReopenCaseHandler)

	admin := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	api.GET("/centers/:id/workloads", GetCenterWorkloadsHandler, admin)
	api.GET("/investigators/:id/workload", GetInvestigatorWorkloadHandler)
	api.GET("/audit-logs", GetAuditLogsHandler, admin)

	api.GET("/security/alerts", GetSecurityAlertsHandler, middleware.RequireRole(models.RoleSuperAdmin))

	api.GET("/notifications", GetNotificationsHandler)
	api.POST("/notifications/:id/read", MarkNotificationReadHandler)
	api.POST("/notifications/read-all", MarkAllNotificationsReadHandler)
}
