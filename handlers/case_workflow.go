package handlers

import (
	"fmt"
	"net/http"
	"police_case_app_go/middleware"
	"police_case_app_go/models"
	"police_case_app_go/services"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// ContextKeyWorkflow is the context key for the workflow services
const ContextKeyWorkflow = "workflow"

func getWorkflow(c echo.Context) (*services.Workflow, error) {
	wf, ok := c.Get(ContextKeyWorkflow).(*services.Workflow)
	if !ok || wf == nil {
		return nil, fmt.Errorf("workflow services not configured")
	}
	return wf, nil
}

// parseDeadline accepts RFC 3339 timestamps or plain dates (end of day UTC)
func parseDeadline(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: deadline must be RFC 3339 or YYYY-MM-DD", services.ErrInvalidInput)
	}
	d = d.Add(24*time.Hour - time.Second)
	return &d, nil
}

func bindRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request body", services.ErrInvalidInput)
	}
	return nil
}

// CreateCaseRequest is the body of POST /api/cases
type CreateCaseRequest struct {
	CenterID              string `json:"center_id"`
	Title                 string `json:"title"`
	Description           string `json:"description"`
	CategoryID            string `json:"category_id"`
	Priority              string `json:"priority"`
	IsSensitive           bool   `json:"is_sensitive"`
	InvestigationDeadline string `json:"investigation_deadline"`
}

// CreateCaseHandler opens a draft case
func CreateCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CreateCaseRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}
	deadline, err := parseDeadline(req.InvestigationDeadline)
	if err != nil {
		return respondError(c, err)
	}

	created, err := wf.Lifecycle.CreateCase(c.Request().Context(), services.CreateCaseInput{
		CenterID:              req.CenterID,
		Title:                 req.Title,
		Description:           req.Description,
		CategoryID:            req.CategoryID,
		Priority:              req.Priority,
		IsSensitive:           req.IsSensitive,
		InvestigationDeadline: deadline,
	}, middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetCaseHandler returns one case with its active assignments
func GetCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	found, err := wf.Lifecycle.Get(ctx, c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	active, err := wf.Engine.ActiveAssignments(ctx, found.ID)
	if err != nil {
		return respondError(c, err)
	}
	found.Assignments = active
	return c.JSON(http.StatusOK, found)
}

// GetCaseHistoryHandler returns the status ledger of a case
func GetCaseHistoryHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	entries, err := wf.Lifecycle.History(c.Request().Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// GetReopenHistoryHandler returns every reopen of a case
func GetReopenHistoryHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	entries, err := wf.Reopen.ReopenHistory(c.Request().Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// GetCaseAssignmentsHandler returns every assignment row of a case
func GetCaseAssignmentsHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	found, err := wf.Lifecycle.Get(ctx, c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	rows, err := wf.Engine.Assignments(ctx, found.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// ReasonRequest carries an optional or mandatory free-text reason
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// SubmitCaseHandler submits a draft or returned case
func SubmitCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	updated, err := wf.Lifecycle.Submit(c.Request().Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ApproveCaseHandler approves a submitted case
func ApproveCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	updated, err := wf.Lifecycle.Approve(c.Request().Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ReturnCaseHandler returns a case to its creator for revision
func ReturnCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	var req ReasonRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := wf.Lifecycle.ReturnForRevision(c.Request().Context(), c.Param("id"), req.Reason, middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// MarkPendingPartiesHandler parks a submitted case until its parties are complete
func MarkPendingPartiesHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	var req ReasonRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := wf.Lifecycle.MarkPendingParties(c.Request().Context(), c.Param("id"), req.Reason, middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// AssignRequest is the body of POST /api/cases/:id/assign
type AssignRequest struct {
	InvestigatorIDs []string `json:"investigator_ids"`
	LeadID          string   `json:"lead_id"`
	Deadline        string   `json:"deadline"`
	Notes           string   `json:"notes"`
}

// AssignCaseHandler assigns or reassigns investigators
func AssignCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	var req AssignRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return respondError(c, err)
	}

	result, err := wf.Lifecycle.Assign(c.Request().Context(), c.Param("id"), services.AssignRequest{
		InvestigatorIDs: req.InvestigatorIDs,
		LeadID:          req.LeadID,
		Deadline:        deadline,
		Notes:           req.Notes,
	}, middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// DeadlineRequest is the body of PUT /api/cases/:id/deadline
type DeadlineRequest struct {
	Deadline string `json:"deadline"`
}

// UpdateDeadlineHandler moves the investigation deadline
func UpdateDeadlineHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	var req DeadlineRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return respondError(c, err)
	}
	if deadline == nil {
		return respondError(c, fmt.Errorf("%w: deadline is required", services.ErrInvalidInput))
	}

	updated, err := wf.Engine.UpdateDeadline(c.Request().Context(), c.Param("id"), *deadline, middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// TransitionRequest is the body of POST /api/cases/:id/transition
type TransitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// TransitionCaseHandler advances an investigation one step
func TransitionCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	var req TransitionRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := wf.Lifecycle.TransitionStatus(c.Request().Context(), c.Param("id"), models.CaseStatus(req.Status), req.Reason, middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// CloseRequest is the body of POST /api/cases/:id/close
type CloseRequest struct {
	ClosureType string `json:"closure_type"`
	Reason      string `json:"reason"`
}

// CloseCaseHandler closes an investigation
func CloseCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CloseRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := wf.Lifecycle.Close(c.Request().Context(), c.Param("id"), req.ClosureType, req.Reason, middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ArchiveCaseHandler archives a closed case
func ArchiveCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	updated, err := wf.Lifecycle.Archive(c.Request().Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// CourtHandler builds the handler of one court step
func CourtHandler(step string) echo.HandlerFunc {
	return func(c echo.Context) error {
		wf, err := getWorkflow(c)
		if err != nil {
			return respondError(c, err)
		}

		var req ReasonRequest
		if err := bindRequest(c, &req); err != nil {
			return respondError(c, err)
		}

		ctx := c.Request().Context()
		caseID := c.Param("id")
		actor := middleware.GetActor(c)

		var updated *models.Case
		switch step {
		case "send":
			updated, err = wf.Lifecycle.SendToCourt(ctx, caseID, req.Reason, actor)
		case "assign":
			updated, err = wf.Lifecycle.CourtAssign(ctx, caseID, req.Reason, actor)
		case "close":
			updated, err = wf.Lifecycle.CourtClose(ctx, caseID, req.Reason, actor)
		default:
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Unknown court step", Code: "not_found"})
		}
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

// ReopenRequest is the body of POST /api/cases/:id/reopen
type ReopenRequest struct {
	Reason                 string `json:"reason"`
	AssignToInvestigatorID string `json:"assign_to_investigator_id"`
	AssignmentNotes        string `json:"assignment_notes"`
}

// ReopenCaseHandler reopens a closed case
func ReopenCaseHandler(c echo.Context) error {
	wf, err := getWorkflow(c)
	if err != nil {
		return respondError(c, err)
	}

	var req ReopenRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	updated, err := wf.Reopen.Reopen(c.Request().Context(), c.Param("id"), services.ReopenInput{
		Reason:                 req.Reason,
		AssignToInvestigatorID: req.AssignToInvestigatorID,
		AssignmentNotes:        req.AssignmentNotes,
	}, middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}
