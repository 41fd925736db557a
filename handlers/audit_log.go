package handlers

import (
	"fmt"
	"net/http"
	"police_case_app_go/db"
	"police_case_app_go/middleware"
	"police_case_app_go/services"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// GetAuditLogsHandler returns filtered and paginated audit logs of a center
func GetAuditLogsHandler(c echo.Context) error {
	actor := middleware.GetActor(c)
	centerID := actor.CenterID
	if actor.IsSuperAdmin() && c.QueryParam("center_id") != "" {
		centerID = c.QueryParam("center_id")
	}
	if centerID == "" {
		return respondError(c, fmt.Errorf("%w: no center context", services.ErrForbidden))
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	q := services.AuditLogQuery{
		UserID:       c.QueryParam("user_id"),
		ResourceType: c.QueryParam("resource_type"),
		Action:       c.QueryParam("action"),
		Search:       c.QueryParam("search"),
		Page:         page,
	}
	if day, ok := parseDay(c.QueryParam("date_from")); ok {
		q.From = day
	}
	if day, ok := parseDay(c.QueryParam("date_to")); ok {
		q.To = day.Add(24*time.Hour - time.Second)
	}

	result, err := services.CenterAuditLogs(db.DB, centerID, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// parseDay reads a YYYY-MM-DD filter; malformed values are ignored
func parseDay(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	day, err := time.Parse("2006-01-02", value)
	return day, err == nil
}

// GetCaseAuditLogsHandler returns the data-operation log of one case
func GetCaseAuditLogsHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	found, err := wf.Lifecycle.Get(c.Request().Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}

	logs, err := services.CaseAuditLogs(db.DB, found.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
