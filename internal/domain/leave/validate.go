package leave

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Draft holds applicant-supplied fields before submission.
type Draft struct {
	LeaveTypeID    string            `json:"leaveTypeId"`
	StartDate      time.Time         `json:"startDate"`
	EndDate        time.Time         `json:"endDate"`
	ContactInfo    string            `json:"contactInfo"`
	PaymentPref    PaymentPreference `json:"paymentPreference"`
	PaymentAddress string            `json:"paymentAddress"`
	CountryExit    string            `json:"countryExitNote"`
	DelegateID     string            `json:"delegateId"`
}

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) sorted() *ValidationError {
	sort.SliceStable(e.Fields, func(i, j int) bool { return e.Fields[i].Field < e.Fields[j].Field })
	return e
}

// ValidateDraft runs the side-effect-free field checks and computes
// the business-day count. Balance, overlap and delegate availability
// are storage lookups layered on by the service. On success the
// returned draft is normalized: trimmed strings, date-only
// timestamps, payment preference defaulted.
func ValidateDraft(d Draft, lt LeaveType, holidays map[string]struct{}, now time.Time) (Draft, int, *ValidationError) {
	verr := &ValidationError{}

	d.LeaveTypeID = strings.TrimSpace(d.LeaveTypeID)
	d.ContactInfo = strings.TrimSpace(d.ContactInfo)
	d.PaymentAddress = strings.TrimSpace(d.PaymentAddress)
	d.CountryExit = strings.TrimSpace(d.CountryExit)
	d.DelegateID = strings.TrimSpace(d.DelegateID)
	if d.PaymentPref == "" {
		d.PaymentPref = PayBankAccount
	}

	if d.LeaveTypeID == "" {
		verr.add("leaveTypeId", "leave type is required")
	}
	if d.ContactInfo == "" {
		verr.add("contactInfo", "contact information is required")
	}
	switch d.PaymentPref {
	case PayBankAccount:
	case PayAddress:
		if d.PaymentAddress == "" {
			verr.add("paymentAddress", "address is required when salary is paid to an address")
		}
	default:
		verr.add("paymentPreference", "must be bank_account or address")
	}

	days := 0
	switch {
	case d.StartDate.IsZero():
		verr.add("startDate", "start date is required")
	case d.EndDate.IsZero():
		verr.add("endDate", "end date is required")
	default:
		d.StartDate = DateOnly(d.StartDate)
		d.EndDate = DateOnly(d.EndDate)
		today := DateOnly(now)
		if d.StartDate.Before(today) {
			verr.add("startDate", "start date must not be in the past")
		}
		if d.EndDate.Before(d.StartDate) {
			verr.add("endDate", "end date must be on or after start date")
		} else {
			var err error
			if lt.ExcludeWeekends {
				days, err = WorkingDaysExcluding(d.StartDate, d.EndDate, holidays)
			} else {
				days, err = CalendarDays(d.StartDate, d.EndDate)
			}
			if err != nil {
				verr.add("endDate", "invalid date range")
			}
		}
	}

	if days > 0 && lt.MaxDays > 0 && days > lt.MaxDays {
		verr.add("endDate", fmt.Sprintf("%d days requested exceeds the %d day limit for %s", days, lt.MaxDays, lt.Name))
	}
	if days == 0 && len(verr.Fields) == 0 {
		verr.add("endDate", "requested range contains no working days")
	}

	if len(verr.Fields) > 0 {
		return d, 0, verr.sorted()
	}
	return d, days, nil
}
