package leave

import (
	"time"

	"leavedesk/internal/domain/auth"
)

type Status string

const (
	StatusPendingHOD Status = "pending_hod_approval"
	StatusPendingPS  Status = "pending_principal_secretary_approval"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
)

// Pending reports whether the application still awaits a decision.
// Both pending sub-states count; summaries must not filter on a bare
// "pending" value.
func (s Status) Pending() bool {
	return s == StatusPendingHOD || s == StatusPendingPS
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type PaymentPreference string

const (
	PayBankAccount PaymentPreference = "bank_account"
	PayAddress     PaymentPreference = "address"
)

type LeaveType struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	MaxDays         int    `json:"maxDays"`
	ExcludeWeekends bool   `json:"excludeWeekends"`
	IsActive        bool   `json:"isActive"`
}

type Application struct {
	ID             string            `json:"id"`
	Reference      string            `json:"reference"`
	ApplicantID    string            `json:"applicantId"`
	ApplicantName  string            `json:"applicantName,omitempty"`
	ApplicantRole  auth.Role         `json:"applicantRole,omitempty"`
	DepartmentID   string            `json:"departmentId,omitempty"`
	LeaveTypeID    string            `json:"leaveTypeId"`
	LeaveTypeName  string            `json:"leaveTypeName,omitempty"`
	StartDate      time.Time         `json:"startDate"`
	EndDate        time.Time         `json:"endDate"`
	Days           int               `json:"days"`
	ContactInfo    string            `json:"contactInfo"`
	PaymentPref    PaymentPreference `json:"paymentPreference"`
	PaymentAddress string            `json:"paymentAddress,omitempty"`
	CountryExit    string            `json:"countryExitNote,omitempty"`
	DelegateID     string            `json:"delegateId,omitempty"`
	DelegateName   string            `json:"delegateName,omitempty"`
	Status         Status            `json:"status"`
	ApproverID     string            `json:"approverId,omitempty"`
	HODComments    string            `json:"hodComments,omitempty"`
	HODDecidedAt   *time.Time        `json:"hodDecidedAt,omitempty"`
	PSComments     string            `json:"psComments,omitempty"`
	PSDecidedAt    *time.Time        `json:"psDecidedAt,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Covers reports whether day falls inside the application's range,
// endpoints included.
func (a Application) Covers(day time.Time) bool {
	d := DateOnly(day)
	return !d.Before(DateOnly(a.StartDate)) && !d.After(DateOnly(a.EndDate))
}

type Balance struct {
	LeaveTypeID   string `json:"leaveTypeId"`
	LeaveTypeName string `json:"leaveTypeName,omitempty"`
	Year          int    `json:"year"`
	Allocated     int    `json:"allocated"`
	Used          int    `json:"used"`
	Remaining     int    `json:"remaining"`
}

// Applicant is the slice of a user the workflow needs.
type Applicant struct {
	ID           string
	Name         string
	Email        string
	Role         auth.Role
	DepartmentID string
}
