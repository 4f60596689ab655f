package leave

import (
	"errors"
	"testing"
	"time"

	"leavedesk/internal/domain/auth"
)

func pendingApp(status Status) Application {
	return Application{
		ID:          "app-1",
		ApplicantID: "staff-1",
		Status:      status,
		Days:        5,
	}
}

func TestInitialStatusByRole(t *testing.T) {
	cases := []struct {
		role auth.Role
		want Status
	}{
		{auth.RoleStaff, StatusPendingHOD},
		{auth.RoleHOD, StatusPendingPS},
		{auth.RolePrincipalSecretary, StatusPendingPS},
	}
	for _, tc := range cases {
		got, err := InitialStatus(tc.role)
		if err != nil {
			t.Fatalf("InitialStatus(%s): %v", tc.role, err)
		}
		if got != tc.want {
			t.Errorf("InitialStatus(%s) = %s, want %s", tc.role, got, tc.want)
		}
	}
	if _, err := InitialStatus(auth.Role("intern")); !errors.Is(err, auth.ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestTransitionHODApprove(t *testing.T) {
	app := pendingApp(StatusPendingHOD)
	actor := Actor{ID: "hod-1", Role: auth.RoleHOD, IsApplicantHOD: true}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	deduct, err := Transition(&app, actor, ActionApprove, "endorsed", now)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if deduct {
		t.Error("HOD approval must not deduct balance")
	}
	if app.Status != StatusPendingPS {
		t.Errorf("status = %s, want %s", app.Status, StatusPendingPS)
	}
	if app.HODComments != "endorsed" || app.HODDecidedAt == nil || !app.HODDecidedAt.Equal(now) {
		t.Errorf("HOD decision fields not recorded: %+v", app)
	}
	if app.ApproverID != "hod-1" {
		t.Errorf("approver = %q, want hod-1", app.ApproverID)
	}
}

func TestTransitionHODReject(t *testing.T) {
	app := pendingApp(StatusPendingHOD)
	actor := Actor{ID: "hod-1", Role: auth.RoleHOD, IsApplicantHOD: true}

	deduct, err := Transition(&app, actor, ActionReject, "short staffed", time.Now())
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if deduct {
		t.Error("rejection must not deduct balance")
	}
	if app.Status != StatusRejected {
		t.Errorf("status = %s, want %s", app.Status, StatusRejected)
	}
}

func TestTransitionPSApproveDeducts(t *testing.T) {
	app := pendingApp(StatusPendingPS)
	actor := Actor{ID: "ps-1", Role: auth.RolePrincipalSecretary}

	deduct, err := Transition(&app, actor, ActionApprove, "", time.Now())
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if !deduct {
		t.Error("final approval must deduct balance")
	}
	if app.Status != StatusApproved {
		t.Errorf("status = %s, want %s", app.Status, StatusApproved)
	}
	if app.PSDecidedAt == nil {
		t.Error("PS decision timestamp not recorded")
	}
}

func TestTransitionAuthorization(t *testing.T) {
	cases := []struct {
		name   string
		status Status
		actor  Actor
	}{
		{"staff cannot review", StatusPendingHOD, Actor{ID: "staff-2", Role: auth.RoleStaff}},
		{"hod of another department", StatusPendingHOD, Actor{ID: "hod-2", Role: auth.RoleHOD, IsApplicantHOD: false}},
		{"ps cannot skip hod stage", StatusPendingHOD, Actor{ID: "ps-1", Role: auth.RolePrincipalSecretary}},
		{"hod cannot give final approval", StatusPendingPS, Actor{ID: "hod-1", Role: auth.RoleHOD, IsApplicantHOD: true}},
		{"ps cannot decide own request", StatusPendingPS, Actor{ID: "staff-1", Role: auth.RolePrincipalSecretary}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := pendingApp(tc.status)
			if _, err := Transition(&app, tc.actor, ActionApprove, "", time.Now()); !errors.Is(err, ErrUnauthorizedAction) {
				t.Errorf("expected ErrUnauthorizedAction, got %v", err)
			}
			if app.Status != tc.status {
				t.Errorf("status changed on refused action: %s", app.Status)
			}
		})
	}
}

func TestTransitionTerminalStates(t *testing.T) {
	actor := Actor{ID: "ps-1", Role: auth.RolePrincipalSecretary}
	for _, status := range []Status{StatusApproved, StatusRejected, StatusCancelled} {
		app := pendingApp(status)
		if _, err := Transition(&app, actor, ActionApprove, "", time.Now()); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s: expected ErrInvalidTransition, got %v", status, err)
		}
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction("approve"); err != nil || a != ActionApprove {
		t.Errorf("ParseAction(approve) = %v, %v", a, err)
	}
	if a, err := ParseAction("reject"); err != nil || a != ActionReject {
		t.Errorf("ParseAction(reject) = %v, %v", a, err)
	}
	if _, err := ParseAction("escalate"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusPendingHOD.Pending() || !StatusPendingPS.Pending() {
		t.Error("pending sub-states must report Pending")
	}
	if StatusApproved.Pending() {
		t.Error("approved is not pending")
	}
	for _, s := range []Status{StatusApproved, StatusRejected, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if StatusPendingHOD.Terminal() {
		t.Error("pending_hod_approval is not terminal")
	}
}
