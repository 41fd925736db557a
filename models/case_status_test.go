package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to CaseStatus
		want     bool
	}{
		{CaseStatusDraft, CaseStatusSubmitted, true},
		{CaseStatusDraft, CaseStatusApproved, false},
		{CaseStatusSubmitted, CaseStatusPendingParties, true},
		{CaseStatusReturned, CaseStatusSubmitted, true},
		{CaseStatusReturned, CaseStatusApproved, true},
		{CaseStatusApproved, CaseStatusReturned, true},
		{CaseStatusApproved, CaseStatusInvestigating, false},
		{CaseStatusAssigned, CaseStatusInvestigating, true},
		{CaseStatusAssigned, CaseStatusAssigned, false},
		{CaseStatusReopened, CaseStatusAssigned, true},
		{CaseStatusInvestigating, CaseStatusSuspectIdentified, false},
		{CaseStatusUnderReview, CaseStatusClosed, true},
		{CaseStatusClosed, CaseStatusReopened, true},
		{CaseStatusClosed, CaseStatusInvestigating, false},
		{CaseStatusArchived, CaseStatusReopened, false},
		{CaseStatus("lost"), CaseStatusSubmitted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	for status := range caseTransitions {
		assert.False(t, CanTransition(CaseStatusArchived, status), "archived -> %s", status)
	}
}

func TestInvestigationStepsAreLinear(t *testing.T) {
	for i := 0; i+1 < len(investigationSteps); i++ {
		from, to := investigationSteps[i], investigationSteps[i+1]
		assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		for j := i + 2; j < len(investigationSteps); j++ {
			assert.False(t, CanTransition(from, investigationSteps[j]), "%s skips to %s", from, investigationSteps[j])
		}
	}
	assert.True(t, IsInvestigationStep(CaseStatusEvidenceCollected))
	assert.False(t, IsInvestigationStep(CaseStatusClosed))
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, CaseStatusApproved.IsFirstAssignment())
	assert.True(t, CaseStatusReopened.IsFirstAssignment())
	assert.False(t, CaseStatusAssigned.IsFirstAssignment())

	assert.True(t, CaseStatusInvestigating.IsAssignable())
	assert.False(t, CaseStatusEvidenceCollected.IsAssignable())

	assert.False(t, CaseStatusApproved.HasReachedAssignment())
	assert.True(t, CaseStatusAssigned.HasReachedAssignment())
	assert.True(t, CaseStatusClosed.HasReachedAssignment())
	assert.False(t, CaseStatus("lost").HasReachedAssignment())

	assert.True(t, CaseStatusArchived.IsTerminal())
	assert.False(t, CaseStatusReopened.IsTerminal())
}

func TestNextCourtStatus(t *testing.T) {
	status := CourtStatusNotSent
	var walked []CourtStatus
	for {
		next, ok := NextCourtStatus(status)
		if !ok {
			break
		}
		walked = append(walked, next)
		status = next
	}
	assert.Equal(t, []CourtStatus{CourtStatusSent, CourtStatusCourtAssigned, CourtStatusCourtClosed}, walked)
	assert.True(t, CourtStatusCourtClosed.IsValid())
	assert.False(t, CourtStatus("appealed").IsValid())
}
