// Package dashboard derives summary views from leave applications.
// Aggregation is pure so it can be tested without a database.
package dashboard

import (
	"sort"
	"time"

	"leavedesk/internal/domain/leave"
)

type StatusCounts struct {
	Pending     int `json:"pending"`
	AwaitingHOD int `json:"awaitingHod"`
	AwaitingPS  int `json:"awaitingPrincipalSecretary"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	Cancelled   int `json:"cancelled"`
	Total       int `json:"total"`
}

// CountByStatus buckets applications; Pending aggregates both
// pending sub-states.
func CountByStatus(apps []leave.Application) StatusCounts {
	var c StatusCounts
	for _, app := range apps {
		c.Total++
		switch app.Status {
		case leave.StatusPendingHOD:
			c.Pending++
			c.AwaitingHOD++
		case leave.StatusPendingPS:
			c.Pending++
			c.AwaitingPS++
		case leave.StatusApproved:
			c.Approved++
		case leave.StatusRejected:
			c.Rejected++
		case leave.StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}

// startedIn keeps applications whose start date falls in the year,
// matching the storage convention for year filters.
func startedIn(apps []leave.Application, year int) []leave.Application {
	var out []leave.Application
	for _, app := range apps {
		if app.StartDate.Year() == year {
			out = append(out, app)
		}
	}
	return out
}

type CurrentLeave struct {
	Application   leave.Application `json:"application"`
	DaysRemaining int               `json:"daysRemaining"`
}

// Current returns the approved application covering today, if any,
// with the number of calendar days left including today.
func Current(apps []leave.Application, today time.Time) *CurrentLeave {
	today = leave.DateOnly(today)
	for _, app := range apps {
		if app.Status != leave.StatusApproved || !app.Covers(today) {
			continue
		}
		remaining := int(leave.DateOnly(app.EndDate).Sub(today).Hours()/24) + 1
		return &CurrentLeave{Application: app, DaysRemaining: remaining}
	}
	return nil
}

// Upcoming returns approved applications starting after today,
// soonest first.
func Upcoming(apps []leave.Application, today time.Time) []leave.Application {
	today = leave.DateOnly(today)
	var out []leave.Application
	for _, app := range apps {
		if app.Status == leave.StatusApproved && app.StartDate.After(today) {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

type Countdown struct {
	Kind string    `json:"kind"` // "returns" or "starts"
	Date time.Time `json:"date"`
	Days int       `json:"days"`
}

// NextBoundary reports the nearest leave boundary: the return date
// when currently on leave, otherwise the start of the next approved
// leave. Nil when neither exists.
func NextBoundary(apps []leave.Application, today time.Time) *Countdown {
	today = leave.DateOnly(today)
	if cur := Current(apps, today); cur != nil {
		ret := leave.DateOnly(cur.Application.EndDate).AddDate(0, 0, 1)
		return &Countdown{Kind: "returns", Date: ret, Days: daysBetween(today, ret)}
	}
	upcoming := Upcoming(apps, today)
	if len(upcoming) == 0 {
		return nil
	}
	start := leave.DateOnly(upcoming[0].StartDate)
	return &Countdown{Kind: "starts", Date: start, Days: daysBetween(today, start)}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// OnLeave filters applications covering the given day.
func OnLeave(apps []leave.Application, day time.Time) []leave.Application {
	day = leave.DateOnly(day)
	var out []leave.Application
	for _, app := range apps {
		if app.Status == leave.StatusApproved && app.Covers(day) {
			out = append(out, app)
		}
	}
	return out
}
