package models

// CaseStatus is the lifecycle state of a case
type CaseStatus string

// Case status constants (workflow states - must remain fixed)
const (
	CaseStatusDraft             CaseStatus = "draft"
	CaseStatusSubmitted         CaseStatus = "submitted"
	CaseStatusPendingParties    CaseStatus = "pending_parties" // Awaiting complainant/suspect details
	CaseStatusReturned          CaseStatus = "returned"        // Sent back to the OB officer for edits
	CaseStatusApproved          CaseStatus = "approved"
	CaseStatusAssigned          CaseStatus = "assigned"
	CaseStatusInvestigating     CaseStatus = "investigating"
	CaseStatusEvidenceCollected CaseStatus = "evidence_collected"
	CaseStatusSuspectIdentified CaseStatus = "suspect_identified"
	CaseStatusUnderReview       CaseStatus = "under_review"
	CaseStatusClosed            CaseStatus = "closed"
	CaseStatusArchived          CaseStatus = "archived"
	CaseStatusReopened          CaseStatus = "reopened" // Behaves like assigned for downstream transitions
)

// CourtStatus tracks court referral independently of CaseStatus
type CourtStatus string

const (
	CourtStatusNotSent       CourtStatus = "not_sent"
	CourtStatusSent          CourtStatus = "sent"
	CourtStatusCourtAssigned CourtStatus = "court_assigned"
	CourtStatusCourtClosed   CourtStatus = "court_closed"
)

// caseTransitions is the single source of truth for legal status changes.
// A reviewer may send back an approved case that has not been assigned yet,
// and may approve a returned case directly, so approve, return, approve
// is legal and leaves exactly three history rows.
// Self-transitions (assigned -> assigned, investigating -> investigating)
// are reassignments and never appear here.
var caseTransitions = map[CaseStatus]map[CaseStatus]bool{
	CaseStatusDraft:             {CaseStatusSubmitted: true},
	CaseStatusSubmitted:         {CaseStatusApproved: true, CaseStatusReturned: true, CaseStatusPendingParties: true},
	CaseStatusPendingParties:    {CaseStatusApproved: true, CaseStatusReturned: true},
	CaseStatusReturned:          {CaseStatusSubmitted: true, CaseStatusApproved: true},
	CaseStatusApproved:          {CaseStatusAssigned: true, CaseStatusReturned: true},
	CaseStatusAssigned:          {CaseStatusInvestigating: true},
	CaseStatusReopened:          {CaseStatusInvestigating: true, CaseStatusAssigned: true},
	CaseStatusInvestigating:     {CaseStatusEvidenceCollected: true, CaseStatusClosed: true},
	CaseStatusEvidenceCollected: {CaseStatusSuspectIdentified: true, CaseStatusClosed: true},
	CaseStatusSuspectIdentified: {CaseStatusUnderReview: true, CaseStatusClosed: true},
	CaseStatusUnderReview:       {CaseStatusClosed: true},
	CaseStatusClosed:            {CaseStatusArchived: true, CaseStatusReopened: true},
	CaseStatusArchived:          {},
}

var courtTransitions = map[CourtStatus]CourtStatus{
	CourtStatusNotSent:       CourtStatusSent,
	CourtStatusSent:          CourtStatusCourtAssigned,
	CourtStatusCourtAssigned: CourtStatusCourtClosed,
}

// investigationSteps is the strict linear order walked by generic status advances
var investigationSteps = []CaseStatus{
	CaseStatusInvestigating,
	CaseStatusEvidenceCollected,
	CaseStatusSuspectIdentified,
	CaseStatusUnderReview,
}

// Statuses from which investigators may be (re)assigned
var assignableStatuses = map[CaseStatus]bool{
	CaseStatusApproved:      true,
	CaseStatusAssigned:      true,
	CaseStatusInvestigating: true,
	CaseStatusReopened:      true,
}

// Statuses in which a case has never been allocated to investigators
var preAssignmentStatuses = map[CaseStatus]bool{
	CaseStatusDraft:          true,
	CaseStatusSubmitted:      true,
	CaseStatusPendingParties: true,
	CaseStatusReturned:       true,
	CaseStatusApproved:       true,
}

// IsValid reports whether s is a known case status
func (s CaseStatus) IsValid() bool {
	_, ok := caseTransitions[s]
	return ok
}

// String implements fmt.Stringer
func (s CaseStatus) String() string {
	return string(s)
}

// CanTransition checks the transition table for from -> to
func CanTransition(from, to CaseStatus) bool {
	return caseTransitions[from][to]
}

// IsInvestigationStep reports whether s can be requested through a generic status advance
func IsInvestigationStep(s CaseStatus) bool {
	for _, step := range investigationSteps {
		if step == s {
			return true
		}
	}
	return false
}

// IsAssignable reports whether investigators may be assigned while the case is in s
func (s CaseStatus) IsAssignable() bool {
	return assignableStatuses[s]
}

// IsFirstAssignment reports whether assigning from s moves the case to assigned
// (as opposed to a reassignment that leaves the status untouched)
func (s CaseStatus) IsFirstAssignment() bool {
	return s == CaseStatusApproved || s == CaseStatusReopened
}

// HasReachedAssignment reports whether the case has ever been assigned,
// which gates every court transition
func (s CaseStatus) HasReachedAssignment() bool {
	return s.IsValid() && !preAssignmentStatuses[s]
}

// IsTerminal reports whether s no longer counts towards investigator workload
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusClosed || s == CaseStatusArchived
}

// IsValid reports whether s is a known court status
func (s CourtStatus) IsValid() bool {
	if s == CourtStatusCourtClosed {
		return true
	}
	_, ok := courtTransitions[s]
	return ok
}

// String implements fmt.Stringer
func (s CourtStatus) String() string {
	return string(s)
}

// NextCourtStatus returns the only court status reachable from s
func NextCourtStatus(s CourtStatus) (CourtStatus, bool) {
	next, ok := courtTransitions[s]
	return next, ok
}

// TerminalStatuses lists the statuses excluded from workload counts
func TerminalStatuses() []CaseStatus {
	return []CaseStatus{CaseStatusClosed, CaseStatusArchived}
}
