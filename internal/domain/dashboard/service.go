package dashboard

import (
	"context"
	"time"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/leave"
)

type Overview struct {
	Year         int                 `json:"year"`
	Balances     []leave.Balance     `json:"balances"`
	StatusCounts StatusCounts        `json:"statusCounts"`
	Current      *CurrentLeave       `json:"currentLeave,omitempty"`
	Upcoming     []leave.Application `json:"upcoming"`
	Countdown    *Countdown          `json:"countdown,omitempty"`
	Review       *ReviewStats        `json:"review,omitempty"`
}

// ReviewStats is only populated for reviewers (HOD sees their
// department, principal secretaries see the whole service).
type ReviewStats struct {
	PendingQueue int `json:"pendingQueue"`
	OnLeaveToday int `json:"onLeaveToday"`
}

type CalendarEntry struct {
	Application leave.Application `json:"application"`
}

// Store is the slice of the leave storage the dashboard reads from.
type Store interface {
	ApplicantByID(ctx context.Context, userID string) (leave.Applicant, error)
	Balances(ctx context.Context, userID string, year int) ([]leave.Balance, error)
	List(ctx context.Context, f leave.Filter) ([]leave.Application, int, error)
}

type Service struct {
	Store Store
	Now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) Overview(ctx context.Context, userID string, year int) (Overview, error) {
	now := s.Now().UTC()
	if year == 0 {
		year = now.Year()
	}

	user, err := s.Store.ApplicantByID(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	balances, err := s.Store.Balances(ctx, userID, year)
	if err != nil {
		return Overview{}, err
	}
	// Unfiltered by year: a leave that started in December is still
	// current in January, so the range views scan everything the
	// applicant has.
	own, _, err := s.Store.List(ctx, leave.Filter{ApplicantID: userID})
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{
		Year:         year,
		Balances:     balances,
		StatusCounts: CountByStatus(startedIn(own, year)),
		Current:      Current(own, now),
		Upcoming:     Upcoming(own, now),
		Countdown:    NextBoundary(own, now),
	}

	review, err := s.reviewStats(ctx, user, now)
	if err != nil {
		return Overview{}, err
	}
	ov.Review = review
	return ov, nil
}

func (s *Service) reviewStats(ctx context.Context, user leave.Applicant, now time.Time) (*ReviewStats, error) {
	var scope leave.Filter
	switch user.Role {
	case auth.RoleHOD:
		if user.DepartmentID == "" {
			return &ReviewStats{}, nil
		}
		scope = leave.Filter{DepartmentID: user.DepartmentID}
	case auth.RolePrincipalSecretary:
		scope = leave.Filter{}
	default:
		return nil, nil
	}

	pendingStatus := leave.StatusPendingHOD
	if user.Role == auth.RolePrincipalSecretary {
		pendingStatus = leave.StatusPendingPS
	}
	pendingScope := scope
	pendingScope.Status = string(pendingStatus)
	_, pending, err := s.Store.List(ctx, pendingScope)
	if err != nil {
		return nil, err
	}

	// No year filter: leave spanning the year boundary must still
	// count as on leave today.
	approvedScope := scope
	approvedScope.Status = string(leave.StatusApproved)
	approved, _, err := s.Store.List(ctx, approvedScope)
	if err != nil {
		return nil, err
	}
	return &ReviewStats{
		PendingQueue: pending,
		OnLeaveToday: len(OnLeave(approved, now)),
	}, nil
}

// Calendar lists approved leave in the actor's scope for the year.
// Staff see their department; reviewers see their review scope.
func (s *Service) Calendar(ctx context.Context, userID string, year int) ([]CalendarEntry, error) {
	now := s.Now().UTC()
	if year == 0 {
		year = now.Year()
	}
	user, err := s.Store.ApplicantByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := leave.Filter{Status: string(leave.StatusApproved), Year: year}
	if user.Role != auth.RolePrincipalSecretary {
		if user.DepartmentID == "" {
			f.ApplicantID = userID
		} else {
			f.DepartmentID = user.DepartmentID
		}
	}
	apps, _, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	entries := make([]CalendarEntry, 0, len(apps))
	for _, app := range apps {
		entries = append(entries, CalendarEntry{Application: app})
	}
	return entries, nil
}
