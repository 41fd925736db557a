package handlers

import (
	"net/http"
	"police_case_app_go/db"
	"police_case_app_go/middleware"
	"police_case_app_go/services"

	"github.com/labstack/echo/v4"
)

func inboxService(c echo.Context) *services.NotificationService {
	return services.NewNotificationService(db.DB, nil, middleware.GetLogger(c))
}

// GetNotificationsHandler returns the current user's unread notifications
func GetNotificationsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	inbox, err := inboxService(c).Inbox(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inbox)
}

func MarkNotificationReadHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if err := inboxService(c).MarkRead(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func MarkAllNotificationsReadHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if _, err := inboxService(c).MarkAllRead(c.Request().Context(), user.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
