package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/platform/config"
)

type seedLeaveType struct {
	name            string
	description     string
	maxDays         int
	excludeWeekends bool
}

// Maternity and long study leave are continuous absences, so they
// count calendar days. Everything else counts working days.
var seedLeaveTypes = []seedLeaveType{
	{"Annual Leave", "Yearly vacation entitlement", 30, true},
	{"Sick Leave", "Certified medical absence", 14, true},
	{"Maternity Leave", "Continuous maternity absence", 90, false},
	{"Paternity Leave", "Leave following the birth of a child", 14, true},
	{"Bereavement Leave", "Leave following a death in the family", 4, true},
	{"Study Leave (Short)", "Examination and short course attendance", 10, true},
	{"Study Leave (Long)", "Long-term study programme", 502, false},
}

// Seed inserts the leave type catalogue and, when configured, a
// bootstrap principal secretary account. It is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	for _, lt := range seedLeaveTypes {
		_, err := pool.Exec(ctx, `
			INSERT INTO leave_types (name, description, max_days, exclude_weekends)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING`,
			lt.name, lt.description, lt.maxDays, lt.excludeWeekends,
		)
		if err != nil {
			return fmt.Errorf("seed leave type %q: %w", lt.name, err)
		}
	}

	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, cfg.SeedAdminEmail,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check seed admin: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("hash seed admin password: %w", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO users (employee_number, email, first_name, last_name, password_hash, role)
		VALUES ('100000', $1, 'System', 'Administrator', $2, $3)`,
		cfg.SeedAdminEmail, hash, string(auth.RolePrincipalSecretary),
	)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	slog.Info("seeded bootstrap principal secretary", "email", cfg.SeedAdminEmail)
	return nil
}
