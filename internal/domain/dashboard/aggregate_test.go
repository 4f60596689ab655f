package dashboard

import (
	"testing"
	"time"

	"leavedesk/internal/domain/leave"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func app(status leave.Status, start, end time.Time) leave.Application {
	return leave.Application{Status: status, StartDate: start, EndDate: end}
}

func TestCountByStatusAggregatesPending(t *testing.T) {
	apps := []leave.Application{
		app(leave.StatusPendingHOD, day(2026, 3, 2), day(2026, 3, 6)),
		app(leave.StatusPendingPS, day(2026, 4, 1), day(2026, 4, 3)),
		app(leave.StatusApproved, day(2026, 5, 4), day(2026, 5, 8)),
		app(leave.StatusRejected, day(2026, 6, 1), day(2026, 6, 2)),
		app(leave.StatusCancelled, day(2026, 7, 1), day(2026, 7, 2)),
	}
	c := CountByStatus(apps)
	if c.Pending != 2 || c.AwaitingHOD != 1 || c.AwaitingPS != 1 {
		t.Errorf("pending buckets = %+v", c)
	}
	if c.Approved != 1 || c.Rejected != 1 || c.Cancelled != 1 || c.Total != 5 {
		t.Errorf("counts = %+v", c)
	}
}

func TestCurrentLeave(t *testing.T) {
	today := day(2026, 3, 4)
	apps := []leave.Application{
		app(leave.StatusApproved, day(2026, 3, 2), day(2026, 3, 6)),
	}
	cur := Current(apps, today)
	if cur == nil {
		t.Fatal("expected current leave")
	}
	if cur.DaysRemaining != 3 {
		t.Errorf("days remaining = %d, want 3 (today through Friday)", cur.DaysRemaining)
	}

	if got := Current(apps, day(2026, 3, 9)); got != nil {
		t.Errorf("leave ended, got %+v", got)
	}
	pending := []leave.Application{
		app(leave.StatusPendingPS, day(2026, 3, 2), day(2026, 3, 6)),
	}
	if got := Current(pending, today); got != nil {
		t.Error("pending application must not count as on leave")
	}
}

func TestUpcomingSorted(t *testing.T) {
	today := day(2026, 3, 1)
	apps := []leave.Application{
		app(leave.StatusApproved, day(2026, 5, 4), day(2026, 5, 8)),
		app(leave.StatusApproved, day(2026, 4, 6), day(2026, 4, 10)),
		app(leave.StatusApproved, day(2026, 2, 2), day(2026, 2, 6)), // past
		app(leave.StatusRejected, day(2026, 3, 16), day(2026, 3, 20)),
	}
	up := Upcoming(apps, today)
	if len(up) != 2 {
		t.Fatalf("len = %d, want 2", len(up))
	}
	if !up[0].StartDate.Equal(day(2026, 4, 6)) {
		t.Errorf("not sorted by start: %v", up[0].StartDate)
	}
}

func TestNextBoundary(t *testing.T) {
	apps := []leave.Application{
		app(leave.StatusApproved, day(2026, 3, 2), day(2026, 3, 6)),
	}

	onLeave := NextBoundary(apps, day(2026, 3, 4))
	if onLeave == nil || onLeave.Kind != "returns" {
		t.Fatalf("expected return countdown, got %+v", onLeave)
	}
	if onLeave.Days != 3 || !onLeave.Date.Equal(day(2026, 3, 7)) {
		t.Errorf("return countdown = %+v", onLeave)
	}

	before := NextBoundary(apps, day(2026, 2, 20))
	if before == nil || before.Kind != "starts" {
		t.Fatalf("expected start countdown, got %+v", before)
	}
	if before.Days != 10 {
		t.Errorf("days until start = %d, want 10", before.Days)
	}

	if got := NextBoundary(apps, day(2026, 4, 1)); got != nil {
		t.Errorf("no future boundary expected, got %+v", got)
	}
	if got := NextBoundary(nil, day(2026, 4, 1)); got != nil {
		t.Errorf("empty input: got %+v", got)
	}
}

func TestOnLeave(t *testing.T) {
	apps := []leave.Application{
		app(leave.StatusApproved, day(2026, 3, 2), day(2026, 3, 6)),
		app(leave.StatusApproved, day(2026, 3, 9), day(2026, 3, 13)),
	}
	if got := OnLeave(apps, day(2026, 3, 4)); len(got) != 1 {
		t.Errorf("on leave = %d, want 1", len(got))
	}
	if got := OnLeave(apps, day(2026, 3, 7)); len(got) != 0 {
		t.Errorf("weekend gap: got %d", len(got))
	}
}
