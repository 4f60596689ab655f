package org

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"leavedesk/internal/platform/querier"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("department name already exists")
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const departmentColumns = `
	d.id, d.name, COALESCE(d.description, ''),
	COALESCE(d.hod_id::text, ''),
	COALESCE(h.first_name || ' ' || h.last_name, ''),
	(SELECT COUNT(*) FROM users m WHERE m.department_id = d.id),
	d.created_at`

func scanDepartment(row pgx.Row) (Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.HODID, &d.HODName, &d.MemberCount, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrNotFound
	}
	return d, err
}

func (s *Store) Create(ctx context.Context, name, description string) (Department, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO departments (name, description)
		VALUES ($1, NULLIF($2, ''))
		RETURNING id`,
		name, description,
	).Scan(&id)
	if isUniqueViolation(err) {
		return Department{}, ErrDuplicateName
	}
	if err != nil {
		return Department{}, err
	}
	return s.ByID(ctx, id)
}

func (s *Store) ByID(ctx context.Context, id string) (Department, error) {
	return scanDepartment(s.DB.QueryRow(ctx, `
		SELECT `+departmentColumns+`
		FROM departments d
		LEFT JOIN users h ON h.id = d.hod_id
		WHERE d.id = $1`, id))
}

func (s *Store) List(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+departmentColumns+`
		FROM departments d
		LEFT JOIN users h ON h.id = d.hod_id
		ORDER BY d.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id, name, description string) (Department, error) {
	tag, err := s.DB.Exec(ctx, `
		UPDATE departments
		SET name = $2, description = NULLIF($3, ''), updated_at = now()
		WHERE id = $1`,
		id, name, description,
	)
	if isUniqueViolation(err) {
		return Department{}, ErrDuplicateName
	}
	if err != nil {
		return Department{}, err
	}
	if tag.RowsAffected() == 0 {
		return Department{}, ErrNotFound
	}
	return s.ByID(ctx, id)
}

// Delete removes the department. The users foreign key is ON DELETE
// SET NULL, so members keep their accounts and lose only the
// department association.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetHOD(ctx context.Context, departmentID, userID string) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE departments SET hod_id = NULLIF($2, '')::uuid, updated_at = now()
		WHERE id = $1`,
		departmentID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UserRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return role, err
}

func (s *Store) SetMemberDepartment(ctx context.Context, userID, departmentID string) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE users SET department_id = NULLIF($2, '')::uuid, updated_at = now()
		WHERE id = $1`,
		userID, departmentID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Stats(ctx context.Context, departmentID string, today time.Time) (Stats, error) {
	if _, err := s.ByID(ctx, departmentID); err != nil {
		return Stats{}, err
	}
	st := Stats{DepartmentID: departmentID}
	err := s.DB.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users m WHERE m.department_id = $1),
			(SELECT COUNT(*) FROM leave_applications a
			 JOIN users u ON u.id = a.applicant_id
			 WHERE u.department_id = $1
			   AND a.status = 'approved'
			   AND a.start_date <= $2 AND a.end_date >= $2),
			(SELECT COUNT(*) FROM leave_applications a
			 JOIN users u ON u.id = a.applicant_id
			 WHERE u.department_id = $1
			   AND a.status IN ('pending_hod_approval', 'pending_principal_secretary_approval'))`,
		departmentID, today,
	).Scan(&st.MemberCount, &st.OnLeaveToday, &st.PendingCount)
	return st, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
