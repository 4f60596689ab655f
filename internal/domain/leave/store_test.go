package leave

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/platform/db"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(pool)
}

func TestRemainingUnknownLeaveType(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	var userID string
	nano := time.Now().UnixNano()
	err := store.DB.QueryRow(ctx, `
    INSERT INTO users (employee_number, email, first_name, last_name, password_hash, role)
    VALUES ($1, $2, 'Ledger', 'Tester', 'x', 'staff')
    RETURNING id
  `, fmt.Sprintf("%06d", nano%1000000), fmt.Sprintf("ledger-%d@test.local", nano)).Scan(&userID)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}

	_, err = store.Remaining(ctx, userID, "00000000-0000-0000-0000-000000000000", 2026)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Remaining with unknown leave type: err = %v, want ErrNotFound", err)
	}
}
