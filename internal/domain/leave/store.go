package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/platform/querier"
)

var ErrNotFound = errors.New("not found")

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	DB querier.Querier
	TX TxBeginner
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool, TX: pool}
}

func (s *Store) TypeByID(ctx context.Context, id string) (LeaveType, error) {
	var lt LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, ''), max_days, exclude_weekends, is_active
    FROM leave_types
    WHERE id = $1
  `, id).Scan(&lt.ID, &lt.Name, &lt.Description, &lt.MaxDays, &lt.ExcludeWeekends, &lt.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, ErrNotFound
	}
	return lt, err
}

func (s *Store) ActiveTypes(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(description, ''), max_days, exclude_weekends, is_active
    FROM leave_types
    WHERE is_active
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var lt LeaveType
		if err := rows.Scan(&lt.ID, &lt.Name, &lt.Description, &lt.MaxDays, &lt.ExcludeWeekends, &lt.IsActive); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

func (s *Store) HolidaysBetween(ctx context.Context, start, end time.Time) (map[string]struct{}, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT date FROM holidays WHERE date BETWEEN $1 AND $2
  `, DateOnly(start), DateOnly(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := map[string]struct{}{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		holidays[d.Format(dateKey)] = struct{}{}
	}
	return holidays, rows.Err()
}

func (s *Store) ApplicantByID(ctx context.Context, userID string) (Applicant, error) {
	var a Applicant
	var role string
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name || ' ' || last_name, email, role, COALESCE(department_id::text, '')
    FROM users
    WHERE id = $1
  `, userID).Scan(&a.ID, &a.Name, &a.Email, &role, &a.DepartmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Applicant{}, ErrNotFound
	}
	if err != nil {
		return Applicant{}, err
	}
	a.Role = auth.Role(role)
	return a, nil
}

func (s *Store) DepartmentHODUserID(ctx context.Context, departmentID string) (string, error) {
	if departmentID == "" {
		return "", nil
	}
	var hodID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(hod_id::text, '') FROM departments WHERE id = $1
  `, departmentID).Scan(&hodID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return hodID, err
}

func (s *Store) PrincipalSecretaryIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM users WHERE role = $1 AND is_active AND NOT is_locked
  `, string(auth.RolePrincipalSecretary))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CreateApplication(ctx context.Context, app Application) (Application, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_applications (
      reference, applicant_id, leave_type_id, start_date, end_date, days,
      contact_info, payment_preference, payment_address, country_exit_note,
      delegate_id, status
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8, NULLIF($9,''), NULLIF($10,''), NULLIF($11,'')::uuid, $12)
    RETURNING id, created_at
  `, app.Reference, app.ApplicantID, app.LeaveTypeID, app.StartDate, app.EndDate, app.Days,
		app.ContactInfo, string(app.PaymentPref), app.PaymentAddress, app.CountryExit,
		app.DelegateID, string(app.Status)).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return Application{}, err
	}
	return s.ApplicationByID(ctx, app.ID)
}

const applicationColumns = `
  a.id, a.reference, a.applicant_id, u.first_name || ' ' || u.last_name, u.role,
  COALESCE(u.department_id::text, ''), a.leave_type_id, lt.name,
  a.start_date, a.end_date, a.days, a.contact_info, a.payment_preference,
  COALESCE(a.payment_address, ''), COALESCE(a.country_exit_note, ''),
  COALESCE(a.delegate_id::text, ''), COALESCE(du.first_name || ' ' || du.last_name, ''),
  a.status, COALESCE(a.approved_by::text, ''),
  COALESCE(a.hod_comments, ''), a.hod_decided_at,
  COALESCE(a.ps_comments, ''), a.ps_decided_at, a.created_at
`

const applicationJoins = `
  FROM leave_applications a
  JOIN users u ON a.applicant_id = u.id
  JOIN leave_types lt ON a.leave_type_id = lt.id
  LEFT JOIN users du ON a.delegate_id = du.id
`

func scanApplication(row pgx.Row) (Application, error) {
	var app Application
	var role, pref, status string
	err := row.Scan(&app.ID, &app.Reference, &app.ApplicantID, &app.ApplicantName, &role,
		&app.DepartmentID, &app.LeaveTypeID, &app.LeaveTypeName,
		&app.StartDate, &app.EndDate, &app.Days, &app.ContactInfo, &pref,
		&app.PaymentAddress, &app.CountryExit,
		&app.DelegateID, &app.DelegateName,
		&status, &app.ApproverID,
		&app.HODComments, &app.HODDecidedAt,
		&app.PSComments, &app.PSDecidedAt, &app.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, err
	}
	app.ApplicantRole = auth.Role(role)
	app.PaymentPref = PaymentPreference(pref)
	app.Status = Status(status)
	return app, nil
}

func (s *Store) ApplicationByID(ctx context.Context, id string) (Application, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+applicationColumns+applicationJoins+" WHERE a.id = $1", id)
	return scanApplication(row)
}

func (s *Store) List(ctx context.Context, f Filter) ([]Application, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	addArg := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}

	if f.ApplicantID != "" {
		addArg(" AND a.applicant_id = $%d", f.ApplicantID)
	}
	if f.DepartmentID != "" {
		addArg(" AND u.department_id = $%d", f.DepartmentID)
	}
	switch f.Status {
	case "":
	case "pending":
		where += fmt.Sprintf(" AND a.status IN ($%d,$%d)", len(args)+1, len(args)+2)
		args = append(args, string(StatusPendingHOD), string(StatusPendingPS))
	default:
		addArg(" AND a.status = $%d", f.Status)
	}
	if f.Year > 0 {
		addArg(" AND EXTRACT(YEAR FROM a.start_date) = $%d", f.Year)
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+applicationJoins+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + applicationColumns + applicationJoins + where + " ORDER BY a.created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, app)
	}
	return apps, total, rows.Err()
}

// HasOverlap reports whether the user already has a pending or
// approved application touching the given range.
func (s *Store) HasOverlap(ctx context.Context, userID string, start, end time.Time, excludeAppID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM leave_applications
      WHERE applicant_id = $1
        AND status IN ($2,$3,$4)
        AND start_date <= $6
        AND end_date >= $5
        AND ($7 = '' OR id::text <> $7)
    )
  `, userID, string(StatusPendingHOD), string(StatusPendingPS), string(StatusApproved),
		DateOnly(start), DateOnly(end), excludeAppID).Scan(&exists)
	return exists, err
}

func (s *Store) Decide(ctx context.Context, appID string, fn DecideFunc) (Application, error) {
	tx, err := s.TX.Begin(ctx)
	if err != nil {
		return Application{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the application row; concurrent decisions queue here and
	// the loser sees the already-transitioned status.
	app, err := lockApplication(ctx, tx, appID)
	if err != nil {
		return Application{}, err
	}

	if err := fn(&app, &txLedger{q: tx}); err != nil {
		return Application{}, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE leave_applications
    SET status = $2,
        approved_by = NULLIF($3,'')::uuid,
        hod_comments = NULLIF($4,''),
        hod_decided_at = $5,
        ps_comments = NULLIF($6,''),
        ps_decided_at = $7,
        updated_at = now()
    WHERE id = $1
  `, app.ID, string(app.Status), app.ApproverID,
		app.HODComments, app.HODDecidedAt,
		app.PSComments, app.PSDecidedAt); err != nil {
		return Application{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Application{}, err
	}
	return s.ApplicationByID(ctx, appID)
}

func lockApplication(ctx context.Context, tx pgx.Tx, appID string) (Application, error) {
	var app Application
	var pref, status string
	err := tx.QueryRow(ctx, `
    SELECT a.id, a.reference, a.applicant_id, a.leave_type_id,
           a.start_date, a.end_date, a.days, a.contact_info, a.payment_preference,
           COALESCE(a.payment_address, ''), COALESCE(a.country_exit_note, ''),
           COALESCE(a.delegate_id::text, ''), a.status, COALESCE(a.approved_by::text, ''),
           COALESCE(a.hod_comments, ''), a.hod_decided_at,
           COALESCE(a.ps_comments, ''), a.ps_decided_at, a.created_at
    FROM leave_applications a
    WHERE a.id = $1
    FOR UPDATE
  `, appID).Scan(&app.ID, &app.Reference, &app.ApplicantID, &app.LeaveTypeID,
		&app.StartDate, &app.EndDate, &app.Days, &app.ContactInfo, &pref,
		&app.PaymentAddress, &app.CountryExit,
		&app.DelegateID, &status, &app.ApproverID,
		&app.HODComments, &app.HODDecidedAt,
		&app.PSComments, &app.PSDecidedAt, &app.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, err
	}
	app.PaymentPref = PaymentPreference(pref)
	app.Status = Status(status)

	var role string
	if err := tx.QueryRow(ctx, `
    SELECT role, COALESCE(department_id::text, ''), first_name || ' ' || last_name
    FROM users WHERE id = $1
  `, app.ApplicantID).Scan(&role, &app.DepartmentID, &app.ApplicantName); err != nil {
		return Application{}, err
	}
	app.ApplicantRole = auth.Role(role)
	return app, nil
}

type txLedger struct {
	q querier.Querier
}

func (l *txLedger) Remaining(ctx context.Context, userID, leaveTypeID string, year int) (int, error) {
	return balanceRemaining(ctx, l.q, userID, leaveTypeID, year, true)
}

func (l *txLedger) Deduct(ctx context.Context, userID, leaveTypeID string, year, days int) (int, error) {
	remaining, err := balanceRemaining(ctx, l.q, userID, leaveTypeID, year, true)
	if err != nil {
		return 0, err
	}
	if days > remaining {
		return remaining, fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientBalance, days, remaining)
	}
	var newRemaining int
	err = l.q.QueryRow(ctx, `
    UPDATE leave_balances
    SET used = used + $4, updated_at = now()
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
    RETURNING allocated - used
  `, userID, leaveTypeID, year, days).Scan(&newRemaining)
	return newRemaining, err
}

func (l *txLedger) Restore(ctx context.Context, userID, leaveTypeID string, year, days int) error {
	_, err := l.q.Exec(ctx, `
    UPDATE leave_balances
    SET used = GREATEST(used - $4, 0), updated_at = now()
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
  `, userID, leaveTypeID, year, days)
	return err
}

// balanceRemaining reads the remaining balance, creating the row from
// the leave type's annual maximum the first time it is touched.
func balanceRemaining(ctx context.Context, q querier.Querier, userID, leaveTypeID string, year int, forUpdate bool) (int, error) {
	query := `
    SELECT allocated - used FROM leave_balances
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
  `
	if forUpdate {
		query += " FOR UPDATE"
	}
	var remaining int
	err := q.QueryRow(ctx, query, userID, leaveTypeID, year).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		err = q.QueryRow(ctx, `
      INSERT INTO leave_balances (user_id, leave_type_id, year, allocated)
      SELECT $1, $2, $3, max_days FROM leave_types WHERE id = $2
      ON CONFLICT (user_id, leave_type_id, year) DO UPDATE SET updated_at = now()
      RETURNING allocated - used
    `, userID, leaveTypeID, year).Scan(&remaining)
		if errors.Is(err, pgx.ErrNoRows) {
			// No balance row and no such leave type to seed one from.
			return 0, ErrNotFound
		}
	}
	return remaining, err
}

func (s *Store) Remaining(ctx context.Context, userID, leaveTypeID string, year int) (int, error) {
	return balanceRemaining(ctx, s.DB, userID, leaveTypeID, year, false)
}

func (s *Store) Balances(ctx context.Context, userID string, year int) ([]Balance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT lt.id, lt.name, $2::int,
           COALESCE(b.allocated, lt.max_days), COALESCE(b.used, 0)
    FROM leave_types lt
    LEFT JOIN leave_balances b
      ON b.leave_type_id = lt.id AND b.user_id = $1 AND b.year = $2
    WHERE lt.is_active
    ORDER BY lt.name
  `, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.LeaveTypeID, &b.LeaveTypeName, &b.Year, &b.Allocated, &b.Used); err != nil {
			return nil, err
		}
		b.Remaining = b.Allocated - b.Used
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (s *Store) InitBalances(ctx context.Context, userID string, year int) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (user_id, leave_type_id, year, allocated)
    SELECT $1, id, $2, max_days FROM leave_types WHERE is_active
    ON CONFLICT (user_id, leave_type_id, year) DO NOTHING
  `, userID, year)
	return err
}
