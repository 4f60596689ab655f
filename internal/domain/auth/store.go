package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `
  u.id, u.employee_number, u.email, u.phone, u.first_name, u.last_name,
  u.role, COALESCE(u.department_id::text, ''), COALESCE(d.name, ''),
  u.is_active, u.is_locked, u.failed_login_attempts, u.created_at
`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.EmployeeNumber, &u.Email, &u.Phone, &u.FirstName, &u.LastName,
		&role, &u.DepartmentID, &u.DepartmentName,
		&u.IsActive, &u.IsLocked, &u.FailedLoginAttempts, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`
    FROM users u
    LEFT JOIN departments d ON u.department_id = d.id
    WHERE u.id = $1
  `, id)
	return scanUser(row)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, string, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`, u.password_hash
    FROM users u
    LEFT JOIN departments d ON u.department_id = d.id
    WHERE u.email = $1
  `, email)
	var u User
	var role, hash string
	err := row.Scan(&u.ID, &u.EmployeeNumber, &u.Email, &u.Phone, &u.FirstName, &u.LastName,
		&role, &u.DepartmentID, &u.DepartmentName,
		&u.IsActive, &u.IsLocked, &u.FailedLoginAttempts, &u.CreatedAt, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, "", ErrNotFound
	}
	if err != nil {
		return User{}, "", err
	}
	u.Role = Role(role)
	return u, hash, nil
}

func (s *Store) CreateUser(ctx context.Context, u User, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (employee_number, email, phone, first_name, last_name, password_hash, role, department_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7, NULLIF($8,'')::uuid)
    RETURNING id
  `, u.EmployeeNumber, u.Email, u.Phone, u.FirstName, u.LastName, passwordHash, string(u.Role), u.DepartmentID).Scan(&id)
	return id, err
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+userColumns+`
    FROM users u
    LEFT JOIN departments d ON u.department_id = d.id
    ORDER BY u.last_name, u.first_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RecordFailedLogin increments the failure counter and locks the
// account once it reaches maxFailures. Returns whether the account is
// now locked.
func (s *Store) RecordFailedLogin(ctx context.Context, userID string, maxFailures int) (bool, error) {
	var locked bool
	err := s.DB.QueryRow(ctx, `
    UPDATE users
    SET failed_login_attempts = failed_login_attempts + 1,
        is_locked = (failed_login_attempts + 1 >= $2),
        updated_at = now()
    WHERE id = $1
    RETURNING is_locked
  `, userID, maxFailures).Scan(&locked)
	return locked, err
}

func (s *Store) ResetLoginFailures(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET failed_login_attempts = 0, updated_at = now() WHERE id = $1
  `, userID)
	return err
}

func (s *Store) UnlockUser(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET is_locked = false, failed_login_attempts = 0, updated_at = now() WHERE id = $1
  `, userID)
	return err
}

func (s *Store) SetRole(ctx context.Context, userID string, role Role) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET role = $2, updated_at = now() WHERE id = $1
  `, userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID, phone, firstName, lastName string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET phone = $2, first_name = $3, last_name = $4, updated_at = now() WHERE id = $1
  `, userID, phone, firstName, lastName)
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
  `, userID, passwordHash)
	return err
}

func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expires time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO sessions (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
    RETURNING id
  `, userID, tokenHash, expires).Scan(&id)
	return id, err
}

func (s *Store) SessionValid(ctx context.Context, sessionID string) (bool, error) {
	var valid bool
	err := s.DB.QueryRow(ctx, `
    SELECT revoked_at IS NULL AND expires_at > now()
    FROM sessions
    WHERE id = $1
  `, sessionID).Scan(&valid)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return valid, err
}

func (s *Store) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL
  `, sessionID)
	return err
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO password_resets (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) PasswordResetUserID(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id
    FROM password_resets
    WHERE token_hash = $1 AND used_at IS NULL AND expires_at > now()
  `, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}

func (s *Store) MarkPasswordResetUsed(ctx context.Context, tokenHash string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE password_resets SET used_at = now() WHERE token_hash = $1
  `, tokenHash)
	return err
}
