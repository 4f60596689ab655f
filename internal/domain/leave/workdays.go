package leave

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("end date before start date")

const dateKey = "2006-01-02"

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WorkingDays counts the days between start and end, endpoints
// included, whose weekday is not Saturday or Sunday.
func WorkingDays(start, end time.Time) (int, error) {
	return WorkingDaysExcluding(start, end, nil)
}

// WorkingDaysExcluding additionally skips any date present in the
// holidays set, keyed YYYY-MM-DD.
func WorkingDaysExcluding(start, end time.Time, holidays map[string]struct{}) (int, error) {
	start = DateOnly(start)
	end = DateOnly(end)
	if end.Before(start) {
		return 0, ErrInvalidRange
	}

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if _, holiday := holidays[d.Format(dateKey)]; holiday {
			continue
		}
		days++
	}
	return days, nil
}

// CalendarDays counts every day between start and end inclusive, for
// leave types that do not exclude weekends.
func CalendarDays(start, end time.Time) (int, error) {
	start = DateOnly(start)
	end = DateOnly(end)
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}
