package auth

import "time"

type User struct {
	ID                  string    `json:"id"`
	EmployeeNumber      string    `json:"employeeNumber"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	Role                Role      `json:"role"`
	DepartmentID        string    `json:"departmentId,omitempty"`
	DepartmentName      string    `json:"departmentName,omitempty"`
	IsActive            bool      `json:"isActive"`
	IsLocked            bool      `json:"isLocked"`
	FailedLoginAttempts int       `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
}

func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
