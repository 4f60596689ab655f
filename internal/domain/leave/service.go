package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/ids"
)

// Notifier receives best-effort workflow notifications. Failures are
// logged by the implementation, never surfaced to the applicant.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string, string) {}

type Service struct {
	Store  StoreAPI
	Notify Notifier
	Now    func() time.Time
}

func NewService(store StoreAPI, notify Notifier) *Service {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &Service{Store: store, Notify: notify, Now: time.Now}
}

func (s *Service) Types(ctx context.Context) ([]LeaveType, error) {
	return s.Store.ActiveTypes(ctx)
}

func (s *Service) Balances(ctx context.Context, userID string, year int) ([]Balance, error) {
	if year == 0 {
		year = s.Now().UTC().Year()
	}
	return s.Store.Balances(ctx, userID, year)
}

func (s *Service) InitBalances(ctx context.Context, userID string, year int) error {
	return s.Store.InitBalances(ctx, userID, year)
}

func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	return s.Store.ApplicationByID(ctx, id)
}

// Submit validates a draft against the applicant's balance and leave
// calendar and creates the application in its initial workflow state.
func (s *Service) Submit(ctx context.Context, applicantID string, draft Draft) (Application, error) {
	applicant, err := s.Store.ApplicantByID(ctx, applicantID)
	if err != nil {
		return Application{}, err
	}

	verr := &ValidationError{}
	var lt LeaveType
	if draft.LeaveTypeID == "" {
		verr.add("leaveTypeId", "leave type is required")
	} else {
		lt, err = s.Store.TypeByID(ctx, draft.LeaveTypeID)
		if errors.Is(err, ErrNotFound) {
			verr.add("leaveTypeId", "unknown leave type")
		} else if err != nil {
			return Application{}, err
		} else if !lt.IsActive {
			verr.add("leaveTypeId", "leave type is no longer offered")
		}
	}
	if len(verr.Fields) > 0 {
		return Application{}, verr.sorted()
	}

	var holidays map[string]struct{}
	if !draft.StartDate.IsZero() && !draft.EndDate.IsZero() && !draft.EndDate.Before(draft.StartDate) {
		holidays, err = s.Store.HolidaysBetween(ctx, draft.StartDate, draft.EndDate)
		if err != nil {
			return Application{}, err
		}
	}

	draft, days, fieldErr := ValidateDraft(draft, lt, holidays, s.Now())
	if fieldErr != nil {
		return Application{}, fieldErr
	}

	year := draft.StartDate.Year()
	remaining, err := s.Store.Remaining(ctx, applicantID, lt.ID, year)
	if err != nil {
		return Application{}, err
	}
	if days > remaining {
		verr.add("leaveTypeId", fmt.Sprintf("%d days requested but only %d remaining", days, remaining))
	}

	overlap, err := s.Store.HasOverlap(ctx, applicantID, draft.StartDate, draft.EndDate, "")
	if err != nil {
		return Application{}, err
	}
	if overlap {
		verr.add("startDate", "an existing application already covers part of this range")
	}

	if draft.DelegateID != "" {
		if draft.DelegateID == applicantID {
			verr.add("delegateId", "cannot delegate duties to yourself")
		} else {
			available, err := s.Availability(ctx, draft.DelegateID, draft.StartDate, draft.EndDate)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					verr.add("delegateId", "unknown delegate")
				} else {
					return Application{}, err
				}
			} else if !available {
				verr.add("delegateId", "selected person is on leave during this range")
			}
		}
	}

	if len(verr.Fields) > 0 {
		return Application{}, verr.sorted()
	}

	initial, err := InitialStatus(applicant.Role)
	if err != nil {
		return Application{}, err
	}

	app := Application{
		Reference:      ids.New(),
		ApplicantID:    applicantID,
		LeaveTypeID:    lt.ID,
		StartDate:      draft.StartDate,
		EndDate:        draft.EndDate,
		Days:           days,
		ContactInfo:    draft.ContactInfo,
		PaymentPref:    draft.PaymentPref,
		PaymentAddress: draft.PaymentAddress,
		CountryExit:    draft.CountryExit,
		DelegateID:     draft.DelegateID,
		Status:         initial,
	}
	created, err := s.Store.CreateApplication(ctx, app)
	if err != nil {
		return Application{}, err
	}

	s.notifyReviewers(ctx, created)
	return created, nil
}

// Review applies an approve/reject decision. The store serializes
// decisions per application, so a concurrent second decision observes
// the transitioned state and fails with ErrInvalidTransition.
func (s *Service) Review(ctx context.Context, actorID, appID string, action Action, comments string) (Application, error) {
	reviewer, err := s.Store.ApplicantByID(ctx, actorID)
	if err != nil {
		return Application{}, err
	}

	updated, err := s.Store.Decide(ctx, appID, func(app *Application, ledger TxLedger) error {
		actor := Actor{ID: actorID, Role: reviewer.Role}
		if app.Status == StatusPendingHOD {
			hodID, err := s.Store.DepartmentHODUserID(ctx, app.DepartmentID)
			if err != nil {
				return err
			}
			actor.IsApplicantHOD = hodID != "" && hodID == actorID
		}

		deduct, err := Transition(app, actor, action, comments, s.Now())
		if err != nil {
			return err
		}
		if deduct {
			if _, err := ledger.Deduct(ctx, app.ApplicantID, app.LeaveTypeID, app.StartDate.Year(), app.Days); err != nil {
				if errors.Is(err, ErrInsufficientBalance) {
					// Submission validated the balance; reaching this
					// point means the ledger and application diverged.
					slog.Error("balance invariant violated at final approval",
						"application", app.ID, "applicant", app.ApplicantID, "err", err)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Application{}, err
	}

	s.notifyDecision(ctx, updated)
	return updated, nil
}

// Cancel is applicant-initiated. Cancelling an approved application
// restores the deducted balance; pending applications have nothing to
// restore because deduction only happens at final approval.
func (s *Service) Cancel(ctx context.Context, actorID, appID string) (Application, error) {
	return s.Store.Decide(ctx, appID, func(app *Application, ledger TxLedger) error {
		if app.ApplicantID != actorID {
			return ErrUnauthorizedAction
		}
		wasApproved := app.Status == StatusApproved
		if !app.Status.Pending() && !wasApproved {
			return ErrInvalidTransition
		}
		if wasApproved {
			if err := ledger.Restore(ctx, app.ApplicantID, app.LeaveTypeID, app.StartDate.Year(), app.Days); err != nil {
				return err
			}
		}
		app.Status = StatusCancelled
		return nil
	})
}

// Availability reports whether the user has no pending or approved
// leave overlapping the range, for delegate selection.
func (s *Service) Availability(ctx context.Context, userID string, start, end time.Time) (bool, error) {
	if _, err := s.Store.ApplicantByID(ctx, userID); err != nil {
		return false, err
	}
	overlap, err := s.Store.HasOverlap(ctx, userID, start, end, "")
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

// History lists the requester's own applications.
func (s *Service) History(ctx context.Context, userID, status string, year, limit, offset int) ([]Application, int, error) {
	return s.Store.List(ctx, Filter{
		ApplicantID: userID,
		Status:      status,
		Year:        year,
		Limit:       limit,
		Offset:      offset,
	})
}

// PendingForReviewer lists the applications waiting on the actor:
// their department's HOD queue, or the principal secretary queue.
func (s *Service) PendingForReviewer(ctx context.Context, actorID string) ([]Application, error) {
	reviewer, err := s.Store.ApplicantByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	switch reviewer.Role {
	case auth.RoleHOD:
		if reviewer.DepartmentID == "" {
			return nil, nil
		}
		apps, _, err := s.Store.List(ctx, Filter{
			DepartmentID: reviewer.DepartmentID,
			Status:       string(StatusPendingHOD),
		})
		return apps, err
	case auth.RolePrincipalSecretary:
		apps, _, err := s.Store.List(ctx, Filter{Status: string(StatusPendingPS)})
		if err != nil {
			return nil, err
		}
		// A principal secretary never reviews their own request.
		out := apps[:0]
		for _, app := range apps {
			if app.ApplicantID != actorID {
				out = append(out, app)
			}
		}
		return out, nil
	}
	return nil, ErrUnauthorizedAction
}

func (s *Service) notifyReviewers(ctx context.Context, app Application) {
	title := "Leave application submitted"
	body := fmt.Sprintf("%s requested %d day(s) of %s (%s to %s).",
		app.ApplicantName, app.Days, app.LeaveTypeName,
		app.StartDate.Format(dateKey), app.EndDate.Format(dateKey))

	switch app.Status {
	case StatusPendingHOD:
		hodID, err := s.Store.DepartmentHODUserID(ctx, app.DepartmentID)
		if err != nil {
			slog.Warn("resolve department hod failed", "application", app.ID, "err", err)
			return
		}
		if hodID != "" {
			s.Notify.Notify(ctx, hodID, title, body)
		}
	case StatusPendingPS:
		psIDs, err := s.Store.PrincipalSecretaryIDs(ctx)
		if err != nil {
			slog.Warn("resolve principal secretaries failed", "application", app.ID, "err", err)
			return
		}
		for _, id := range psIDs {
			if id != app.ApplicantID {
				s.Notify.Notify(ctx, id, title, body)
			}
		}
	}
}

func (s *Service) notifyDecision(ctx context.Context, app Application) {
	var title, body string
	switch app.Status {
	case StatusPendingPS:
		title = "Leave application endorsed"
		body = fmt.Sprintf("Your %s request (%s) was approved by your HOD and awaits the principal secretary.", app.LeaveTypeName, app.Reference)
		s.Notify.Notify(ctx, app.ApplicantID, title, body)
		psIDs, err := s.Store.PrincipalSecretaryIDs(ctx)
		if err != nil {
			slog.Warn("resolve principal secretaries failed", "application", app.ID, "err", err)
			return
		}
		reviewTitle := "Leave application awaiting approval"
		reviewBody := fmt.Sprintf("%s's %s request (%s) is ready for final review.", app.ApplicantName, app.LeaveTypeName, app.Reference)
		for _, id := range psIDs {
			if id != app.ApplicantID {
				s.Notify.Notify(ctx, id, reviewTitle, reviewBody)
			}
		}
		return
	case StatusApproved:
		title = "Leave application approved"
		body = fmt.Sprintf("Your %s request (%s) is fully approved: %s to %s.", app.LeaveTypeName, app.Reference,
			app.StartDate.Format(dateKey), app.EndDate.Format(dateKey))
	case StatusRejected:
		title = "Leave application rejected"
		body = fmt.Sprintf("Your %s request (%s) was rejected.", app.LeaveTypeName, app.Reference)
	default:
		return
	}
	s.Notify.Notify(ctx, app.ApplicantID, title, body)
}
