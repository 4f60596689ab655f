package leave

import (
	"context"
	"time"
)

// Filter narrows application listings. Status accepts a concrete
// status value or "pending", which covers both pending sub-states.
type Filter struct {
	ApplicantID  string
	DepartmentID string
	Status       string
	Year         int
	Limit        int
	Offset       int
}

// TxLedger is the balance ledger scoped to one storage transaction.
// Implementations must hold the (user, leaveType, year) row exclusively
// for the duration of the transaction.
type TxLedger interface {
	Remaining(ctx context.Context, userID, leaveTypeID string, year int) (int, error)
	Deduct(ctx context.Context, userID, leaveTypeID string, year, days int) (int, error)
	Restore(ctx context.Context, userID, leaveTypeID string, year, days int) error
}

// DecideFunc mutates an application under its row lock. Returning an
// error rolls back every change including ledger movements.
type DecideFunc func(app *Application, ledger TxLedger) error

type StoreAPI interface {
	TypeByID(ctx context.Context, id string) (LeaveType, error)
	ActiveTypes(ctx context.Context) ([]LeaveType, error)
	HolidaysBetween(ctx context.Context, start, end time.Time) (map[string]struct{}, error)

	ApplicantByID(ctx context.Context, userID string) (Applicant, error)
	DepartmentHODUserID(ctx context.Context, departmentID string) (string, error)
	PrincipalSecretaryIDs(ctx context.Context) ([]string, error)

	CreateApplication(ctx context.Context, app Application) (Application, error)
	ApplicationByID(ctx context.Context, id string) (Application, error)
	List(ctx context.Context, f Filter) ([]Application, int, error)
	HasOverlap(ctx context.Context, userID string, start, end time.Time, excludeAppID string) (bool, error)

	// Decide serializes all decisions for one application.
	Decide(ctx context.Context, appID string, fn DecideFunc) (Application, error)

	Remaining(ctx context.Context, userID, leaveTypeID string, year int) (int, error)
	Balances(ctx context.Context, userID string, year int) ([]Balance, error)
	InitBalances(ctx context.Context, userID string, year int) error
}
