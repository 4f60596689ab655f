package leave

import (
	"errors"
	"time"

	"leavedesk/internal/domain/auth"
)

var (
	ErrUnauthorizedAction  = errors.New("actor is not authorized for this action")
	ErrInvalidTransition   = errors.New("application state does not accept this action")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrConflict            = errors.New("application was modified concurrently")
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func ParseAction(value string) (Action, error) {
	switch Action(value) {
	case ActionApprove, ActionReject:
		return Action(value), nil
	}
	return "", errors.New("action must be approve or reject")
}

// Actor identifies the reviewer attempting a transition.
// IsApplicantHOD is resolved by the caller: whether the actor is the
// HOD of the applicant's department.
type Actor struct {
	ID             string
	Role           auth.Role
	IsApplicantHOD bool
}

// InitialStatus routes a new application by the applicant's role. An
// HOD cannot approve their own request, so HOD applications go
// straight to the principal secretary stage, as do principal
// secretaries' own applications.
func InitialStatus(applicantRole auth.Role) (Status, error) {
	switch applicantRole {
	case auth.RoleStaff:
		return StatusPendingHOD, nil
	case auth.RoleHOD, auth.RolePrincipalSecretary:
		return StatusPendingPS, nil
	}
	return "", auth.ErrUnknownRole
}

// Transition applies one reviewer decision in place and reports
// whether the applicant's balance must be deducted (final approval
// only). It is pure apart from mutating app; persistence and locking
// are the caller's concern.
func Transition(app *Application, actor Actor, action Action, comments string, now time.Time) (bool, error) {
	switch app.Status {
	case StatusPendingHOD:
		if actor.Role != auth.RoleHOD || !actor.IsApplicantHOD {
			return false, ErrUnauthorizedAction
		}
		decidedAt := now
		app.HODComments = comments
		app.HODDecidedAt = &decidedAt
		app.ApproverID = actor.ID
		if action == ActionReject {
			app.Status = StatusRejected
			return false, nil
		}
		app.Status = StatusPendingPS
		return false, nil

	case StatusPendingPS:
		if actor.Role != auth.RolePrincipalSecretary {
			return false, ErrUnauthorizedAction
		}
		if actor.ID == app.ApplicantID {
			return false, ErrUnauthorizedAction
		}
		decidedAt := now
		app.PSComments = comments
		app.PSDecidedAt = &decidedAt
		app.ApproverID = actor.ID
		if action == ActionReject {
			app.Status = StatusRejected
			return false, nil
		}
		app.Status = StatusApproved
		return true, nil

	case StatusApproved, StatusRejected, StatusCancelled:
		return false, ErrInvalidTransition
	}
	return false, ErrInvalidTransition
}
