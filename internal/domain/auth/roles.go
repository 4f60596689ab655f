package auth

import "errors"

// Role is the closed set of workflow roles. Anything outside it is
// rejected at the edges so the state machine can match exhaustively.
type Role string

const (
	RoleStaff              Role = "staff"
	RoleHOD                Role = "hod"
	RolePrincipalSecretary Role = "principal_secretary"
)

var (
	ErrUnknownRole      = errors.New("unknown role")
	ErrNoClassification = errors.New("employee number does not map to a role")
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleStaff, RoleHOD, RolePrincipalSecretary:
		return Role(value), nil
	}
	return "", ErrUnknownRole
}

// ClassifyEmployeeNumber maps an employee number to a role tier by
// digit length: 4 staff, 5 hod, 6 principal secretary. It is a signup
// UX hint only; the persisted role is assigned server-side and this
// result must never gate access.
func ClassifyEmployeeNumber(employeeNumber string) (Role, error) {
	for _, r := range employeeNumber {
		if r < '0' || r > '9' {
			return "", ErrNoClassification
		}
	}
	switch len(employeeNumber) {
	case 4:
		return RoleStaff, nil
	case 5:
		return RoleHOD, nil
	case 6:
		return RolePrincipalSecretary, nil
	}
	return "", ErrNoClassification
}
