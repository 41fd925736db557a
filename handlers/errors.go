package handlers

import (
	"errors"
	"net/http"
	"police_case_app_go/middleware"
	"police_case_app_go/services"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Current   string `json:"current,omitempty"`
	Requested string `json:"requested,omitempty"`
}

// respondError maps workflow errors to HTTP statuses. Anything that is not a
// domain error is reported generically.
func respondError(c echo.Context, err error) error {
	var transitionErr *services.TransitionError
	if errors.As(err, &transitionErr) {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:     err.Error(),
			Code:      "invalid_transition",
			Current:   transitionErr.Current,
			Requested: transitionErr.Requested,
		})
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, services.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "You are not allowed to perform this action", Code: "forbidden"})
	case errors.Is(err, services.ErrNotClosed):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "not_closed"})
	case errors.Is(err, services.ErrCourtApprovalRequired):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "court_approval_required"})
	case errors.Is(err, services.ErrConcurrentUpdate):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "The case was modified by someone else, please retry", Code: "concurrent_update"})
	case errors.Is(err, services.ErrIneligibleInvestigator):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "ineligible_investigator"})
	case errors.Is(err, services.ErrInvalidLead):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "invalid_lead"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "invalid_input"})
	case errors.Is(err, services.ErrImmutableRecord):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "immutable_record"})
	}

	logger := middleware.GetLogger(c)
	logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: "internal"})
}
