package auth

import (
	"errors"
	"testing"
)

func TestClassifyEmployeeNumber(t *testing.T) {
	cases := []struct {
		input string
		want  Role
	}{
		{"1234", RoleStaff},
		{"12345", RoleHOD},
		{"123456", RolePrincipalSecretary},
	}
	for _, c := range cases {
		got, err := ClassifyEmployeeNumber(c.input)
		if err != nil {
			t.Fatalf("ClassifyEmployeeNumber(%q): unexpected error: %v", c.input, err)
		}
		if got != c.want {
			t.Fatalf("ClassifyEmployeeNumber(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}

func TestClassifyEmployeeNumberRejectsUnknownLengths(t *testing.T) {
	for _, input := range []string{"", "12", "123", "1234567"} {
		if _, err := ClassifyEmployeeNumber(input); !errors.Is(err, ErrNoClassification) {
			t.Fatalf("ClassifyEmployeeNumber(%q): expected ErrNoClassification, got %v", input, err)
		}
	}
}

func TestClassifyEmployeeNumberRejectsNonDigits(t *testing.T) {
	if _, err := ClassifyEmployeeNumber("12a4"); !errors.Is(err, ErrNoClassification) {
		t.Fatalf("expected ErrNoClassification for non-digit input, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	for _, value := range []string{"staff", "hod", "principal_secretary"} {
		if _, err := ParseRole(value); err != nil {
			t.Fatalf("ParseRole(%q): unexpected error: %v", value, err)
		}
	}
	if _, err := ParseRole("admin"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}
