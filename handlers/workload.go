package handlers

import (
	"fmt"
	"net/http"
	"police_case_app_go/middleware"
	"police_case_app_go/models"
	"police_case_app_go/services"

	"github.com/labstack/echo/v4"
)

// GetCenterWorkloadsHandler lists the investigators of a center, least loaded first
func GetCenterWorkloadsHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	actor := middleware.GetActor(c)
	centerID := c.Param("id")
	if !actor.IsSuperAdmin() && actor.CenterID != centerID {
		return respondError(c, fmt.Errorf("%w: center %s", services.ErrForbidden, centerID))
	}

	workloads, err := wf.Engine.CenterWorkloads(c.Request().Context(), centerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, workloads)
}

// GetInvestigatorWorkloadHandler returns one investigator's caseload
func GetInvestigatorWorkloadHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	actor := middleware.GetActor(c)
	investigatorID := c.Param("id")
	if actor.UserID != investigatorID && actor.Role != models.RoleAdmin && !actor.IsSuperAdmin() {
		return respondError(c, fmt.Errorf("%w: workload of %s", services.ErrForbidden, investigatorID))
	}

	workload, err := wf.Engine.Workload(c.Request().Context(), investigatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, workload)
}
