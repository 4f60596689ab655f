package org

import (
	"context"
	"errors"
	"strings"
	"time"

	"leavedesk/internal/domain/auth"
)

var (
	ErrInvalidName = errors.New("department name is required")
	ErrNotHOD      = errors.New("user does not hold the head of department role")
)

type StoreAPI interface {
	Create(ctx context.Context, name, description string) (Department, error)
	ByID(ctx context.Context, id string) (Department, error)
	List(ctx context.Context) ([]Department, error)
	Update(ctx context.Context, id, name, description string) (Department, error)
	Delete(ctx context.Context, id string) error
	SetHOD(ctx context.Context, departmentID, userID string) error
	UserRole(ctx context.Context, userID string) (string, error)
	SetMemberDepartment(ctx context.Context, userID, departmentID string) error
	Stats(ctx context.Context, departmentID string, today time.Time) (Stats, error)
}

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) Create(ctx context.Context, name, description string) (Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Department{}, ErrInvalidName
	}
	return s.Store.Create(ctx, name, strings.TrimSpace(description))
}

func (s *Service) Get(ctx context.Context, id string) (Department, error) {
	return s.Store.ByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Department, error) {
	return s.Store.List(ctx)
}

func (s *Service) Update(ctx context.Context, id, name, description string) (Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Department{}, ErrInvalidName
	}
	return s.Store.Update(ctx, id, name, strings.TrimSpace(description))
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// AssignHOD makes the user the department's single head. The user
// must already hold the hod role; promotion is a separate user-admin
// action so a department change can never escalate privileges.
func (s *Service) AssignHOD(ctx context.Context, departmentID, userID string) (Department, error) {
	if userID != "" {
		role, err := s.Store.UserRole(ctx, userID)
		if err != nil {
			return Department{}, err
		}
		if role != string(auth.RoleHOD) {
			return Department{}, ErrNotHOD
		}
		// The HOD belongs to the department they head.
		if err := s.Store.SetMemberDepartment(ctx, userID, departmentID); err != nil {
			return Department{}, err
		}
	}
	if err := s.Store.SetHOD(ctx, departmentID, userID); err != nil {
		return Department{}, err
	}
	return s.Store.ByID(ctx, departmentID)
}

func (s *Service) AddMember(ctx context.Context, departmentID, userID string) error {
	if _, err := s.Store.ByID(ctx, departmentID); err != nil {
		return err
	}
	return s.Store.SetMemberDepartment(ctx, userID, departmentID)
}

// RemoveMember clears the user's department association. Removing the
// current HOD also vacates the headship.
func (s *Service) RemoveMember(ctx context.Context, departmentID, userID string) error {
	dept, err := s.Store.ByID(ctx, departmentID)
	if err != nil {
		return err
	}
	if err := s.Store.SetMemberDepartment(ctx, userID, ""); err != nil {
		return err
	}
	if dept.HODID == userID {
		return s.Store.SetHOD(ctx, departmentID, "")
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, departmentID string) (Stats, error) {
	return s.Store.Stats(ctx, departmentID, s.Now().UTC().Truncate(24*time.Hour))
}
