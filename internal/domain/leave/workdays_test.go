package leave

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDaysFullWeek(t *testing.T) {
	// 2024-01-01 is a Monday; the week through Sunday holds five
	// working days.
	days, err := WorkingDays(date(2024, time.January, 1), date(2024, time.January, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 5 {
		t.Fatalf("expected 5 working days, got %d", days)
	}
}

func TestWorkingDaysSingleDay(t *testing.T) {
	// Wednesday counts, Saturday does not.
	days, err := WorkingDays(date(2024, time.January, 3), date(2024, time.January, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 working day for a Wednesday, got %d", days)
	}

	days, err = WorkingDays(date(2024, time.January, 6), date(2024, time.January, 6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 0 {
		t.Fatalf("expected 0 working days for a Saturday, got %d", days)
	}
}

func TestWorkingDaysSpansYearBoundary(t *testing.T) {
	// 2024-12-30 (Mon) through 2025-01-03 (Fri): five weekdays.
	days, err := WorkingDays(date(2024, time.December, 30), date(2025, time.January, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 5 {
		t.Fatalf("expected 5 working days across the year boundary, got %d", days)
	}
}

func TestWorkingDaysInvalidRange(t *testing.T) {
	if _, err := WorkingDays(date(2024, time.March, 10), date(2024, time.March, 9)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestWorkingDaysExcludingHolidays(t *testing.T) {
	holidays := map[string]struct{}{"2024-01-01": {}}
	days, err := WorkingDaysExcluding(date(2024, time.January, 1), date(2024, time.January, 7), holidays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 4 {
		t.Fatalf("expected 4 working days with New Year excluded, got %d", days)
	}
}

func TestCalendarDays(t *testing.T) {
	days, err := CalendarDays(date(2024, time.February, 27), date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 4 {
		t.Fatalf("expected 4 calendar days across the leap February, got %d", days)
	}
	if _, err := CalendarDays(date(2024, time.March, 2), date(2024, time.March, 1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
