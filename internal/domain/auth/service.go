package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked after repeated failed logins")
	ErrAccountInactive    = errors.New("account is not active")
)

// BalanceInitializer lets signup create the applicant's opening leave
// balances without the auth package importing the leave domain.
type BalanceInitializer interface {
	InitBalances(ctx context.Context, userID string, year int) error
}

type Service struct {
	Store            *Store
	Balances         BalanceInitializer
	Secret           string
	TokenTTL         time.Duration
	MaxLoginFailures int
}

func NewService(store *Store, balances BalanceInitializer, secret string, tokenTTL time.Duration, maxLoginFailures int) *Service {
	return &Service{
		Store:            store,
		Balances:         balances,
		Secret:           secret,
		TokenTTL:         tokenTTL,
		MaxLoginFailures: maxLoginFailures,
	}
}

type SignupInput struct {
	EmployeeNumber string
	Email          string
	Phone          string
	FirstName      string
	LastName       string
	Password       string
	DepartmentID   string
}

// Signup creates a user with role staff. Elevated roles are assigned
// afterwards by a principal secretary through SetUserRole; the
// employee-number classifier is advisory and never consulted here.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	if _, err := ClassifyEmployeeNumber(in.EmployeeNumber); err != nil {
		return User{}, fmt.Errorf("employee number: %w", err)
	}
	if !strings.Contains(in.Email, "@") {
		return User{}, errors.New("email is invalid")
	}
	if len(in.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	user := User{
		EmployeeNumber: strings.TrimSpace(in.EmployeeNumber),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:          strings.TrimSpace(in.Phone),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           RoleStaff,
		DepartmentID:   in.DepartmentID,
		IsActive:       true,
	}
	id, err := s.Store.CreateUser(ctx, user, hash)
	if err != nil {
		return User{}, err
	}
	user.ID = id

	if s.Balances != nil {
		if err := s.Balances.InitBalances(ctx, id, time.Now().UTC().Year()); err != nil {
			return User{}, fmt.Errorf("init balances: %w", err)
		}
	}
	return user, nil
}

type LoginResult struct {
	Token string
	User  User
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, hash, err := s.Store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if user.IsLocked {
		return LoginResult{}, ErrAccountLocked
	}
	if !user.IsActive {
		return LoginResult{}, ErrAccountInactive
	}

	if err := CheckPassword(hash, password); err != nil {
		locked, recErr := s.Store.RecordFailedLogin(ctx, user.ID, s.MaxLoginFailures)
		if recErr != nil {
			return LoginResult{}, recErr
		}
		if locked {
			return LoginResult{}, ErrAccountLocked
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.Store.ResetLoginFailures(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}

	opaque, err := NewOpaqueToken()
	if err != nil {
		return LoginResult{}, err
	}
	sessionID, err := s.Store.CreateSession(ctx, user.ID, HashToken(opaque), time.Now().Add(s.TokenTTL))
	if err != nil {
		return LoginResult{}, err
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Role: string(user.Role), SessionID: sessionID}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: user}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, sessionID)
}

// RequestPasswordReset returns the reset token to hand to the mailer.
// It reports success even for unknown emails so the endpoint does not
// leak which addresses exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, User, error) {
	user, _, err := s.Store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", User{}, nil
		}
		return "", User{}, err
	}
	token, err := NewOpaqueToken()
	if err != nil {
		return "", User{}, err
	}
	if err := s.Store.CreatePasswordReset(ctx, user.ID, HashToken(token), time.Now().Add(time.Hour)); err != nil {
		return "", User{}, err
	}
	return token, user, nil
}

// ResetPassword also unlocks the account, which is how a locked-out
// user recovers.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	userID, err := s.Store.PasswordResetUserID(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.Store.UnlockUser(ctx, userID); err != nil {
		return err
	}
	return s.Store.MarkPasswordResetUsed(ctx, HashToken(token))
}

// SetUserRole is the administrative role assignment. The caller must
// already be authorized as a principal secretary; this is enforced at
// the transport layer and re-checked here.
func (s *Service) SetUserRole(ctx context.Context, actor User, userID string, role Role) error {
	if actor.Role != RolePrincipalSecretary {
		return errors.New("only a principal secretary may assign roles")
	}
	return s.Store.SetRole(ctx, userID, role)
}
