package services

import (
	"fmt"
	"police_case_app_go/models"
)

// ActorContext is the pre-authenticated caller of a workflow operation
type ActorContext struct {
	UserID   string
	Role     string
	CenterID string
}

// IsSuperAdmin checks if the actor has global scope
func (a ActorContext) IsSuperAdmin() bool {
	return a.Role == models.RoleSuperAdmin
}

// IsAdminOf checks if the actor administers the given center
func (a ActorContext) IsAdminOf(centerID string) bool {
	return a.Role == models.RoleAdmin && a.CenterID != "" && a.CenterID == centerID
}

// Action names a class of workflow operations that share one authorization rule
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionReview  Action = "review" // approve, return for revision, mark pending parties
	ActionAssign  Action = "assign" // assign, reassign, deadline changes
	ActionAdvance Action = "advance"
	ActionClose   Action = "close"
	ActionCourt   Action = "court"
	ActionReopen  Action = "reopen"
	ActionArchive Action = "archive"
	ActionView    Action = "view"
)

// caseScope is everything the authorization predicate needs to know about a case
type caseScope struct {
	Case            *models.Case
	Creator         *models.User
	ActiveAssignees map[string]bool
}

// authorize is evaluated once per operation, before any write
func authorize(actor ActorContext, action Action, scope caseScope) error {
	if actor.UserID == "" {
		return fmt.Errorf("%w: missing actor", ErrForbidden)
	}
	c := scope.Case
	assignee := scope.ActiveAssignees[actor.UserID]

	// Investigation steps are taken by the team on the case, whatever the role
	if actor.IsSuperAdmin() && action != ActionAdvance {
		return nil
	}
	centerAdmin := actor.IsAdminOf(c.CenterID)

	var allowed bool
	switch action {
	case ActionSubmit:
		allowed = centerAdmin || (actor.UserID == c.CreatedBy && actor.CenterID == c.CenterID)
	case ActionReview:
		allowed = centerAdmin && reviewableBy(actor, scope)
	case ActionAssign, ActionReopen, ActionArchive:
		allowed = centerAdmin
	case ActionAdvance:
		allowed = assignee
	case ActionClose, ActionCourt:
		allowed = centerAdmin || assignee
	case ActionView:
		if c.IsSensitive {
			allowed = centerAdmin || assignee || actor.UserID == c.CreatedBy
		} else {
			allowed = actor.CenterID == c.CenterID
		}
	}

	if !allowed {
		return fmt.Errorf("%w: %s %s cannot %s case %s", ErrForbidden, actor.Role, actor.UserID, action, c.ID)
	}
	return nil
}

// reviewableBy is the center-admin review filter: the case must have been
// created by the admin, or by an OB officer of the admin's own center.
func reviewableBy(actor ActorContext, scope caseScope) bool {
	if scope.Case.CreatedBy == actor.UserID {
		return true
	}
	creator := scope.Creator
	if creator == nil {
		return false
	}
	return creator.Role == models.RoleOBOfficer && creator.IsInCenter(actor.CenterID)
}
