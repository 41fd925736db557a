package services

import (
	"errors"
	"fmt"
	"police_case_app_go/models"
)

// Workflow errors. Every one of them is detected before the first write.
var (
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrForbidden              = errors.New("forbidden")
	ErrIneligibleInvestigator = errors.New("ineligible investigator")
	ErrInvalidLead            = errors.New("lead investigator is not in the assignee set")
	ErrNotClosed              = errors.New("case is not closed")
	ErrCourtApprovalRequired  = errors.New("court approval required to reopen a court-closed case")
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")

	// ErrConcurrentUpdate means another transaction changed the case first; the caller may retry
	ErrConcurrentUpdate = errors.New("case was modified concurrently")

	// ErrImmutableRecord is returned for any attempt to rewrite the audit ledgers
	ErrImmutableRecord = models.ErrImmutableRecord
)

var domainErrors = []error{
	ErrInvalidTransition,
	ErrForbidden,
	ErrIneligibleInvestigator,
	ErrInvalidLead,
	ErrNotClosed,
	ErrCourtApprovalRequired,
	ErrNotFound,
	ErrInvalidInput,
	ErrConcurrentUpdate,
	ErrImmutableRecord,
}

// TransitionError carries the state the case was in and the state that was requested
type TransitionError struct {
	Current   string
	Requested string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.Current, e.Requested)
}

// Unwrap lets errors.Is match ErrInvalidTransition
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func invalidTransition(current, requested models.CaseStatus) error {
	return &TransitionError{Current: string(current), Requested: string(requested)}
}

func invalidCourtTransition(current, requested models.CourtStatus) error {
	return &TransitionError{Current: string(current), Requested: string(requested)}
}

// IsDomainError reports whether err is a workflow rejection rather than an infrastructure failure
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
