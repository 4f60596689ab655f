package authhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Leave   *leave.Service
	Mailer  notifications.Mailer
	From    string
}

func NewHandler(service *auth.Service, leaveSvc *leave.Service, mailer notifications.Mailer, from string) *Handler {
	return &Handler{Service: service, Leave: leaveSvc, Mailer: mailer, From: from}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/request-reset", h.handleRequestReset)
	r.Post("/auth/reset", h.handleReset)
	r.Get("/auth/classify", h.handleClassify)

	r.With(middleware.RequireAuth).Get("/auth/profile", h.handleGetProfile)
	r.With(middleware.RequireAuth).Put("/auth/profile", h.handleUpdateProfile)
	r.With(middleware.RequireAuth).Get("/users/available", h.handleAvailableUsers)
	r.With(middleware.RequireRole(auth.RoleHOD, auth.RolePrincipalSecretary)).Get("/users", h.handleListUsers)
	r.With(middleware.RequireRole(auth.RolePrincipalSecretary)).Put("/users/{userID}/role", h.handleSetRole)
}

type signupPayload struct {
	EmployeeNumber string `json:"employeeNumber"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Password       string `json:"password"`
	DepartmentID   string `json:"departmentId"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload signupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeNumber", payload.EmployeeNumber, "employee number is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, reqID) {
		return
	}

	user, err := h.Service.Signup(r.Context(), auth.SignupInput{
		EmployeeNumber: payload.EmployeeNumber,
		Email:          payload.Email,
		Phone:          payload.Phone,
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Password:       payload.Password,
		DepartmentID:   payload.DepartmentID,
	})
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "signup_failed", err.Error(), reqID)
		return
	}
	api.Created(w, user, reqID)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	switch {
	case errors.Is(err, auth.ErrAccountLocked):
		api.Fail(w, http.StatusForbidden, "account_locked", "account locked after repeated failed logins; reset your password to unlock", reqID)
		return
	case errors.Is(err, auth.ErrAccountInactive):
		api.Fail(w, http.StatusForbidden, "account_inactive", "account is not active", reqID)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", reqID)
		return
	}

	api.Success(w, map[string]any{"token": result.Token, "user": result.User}, reqID)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Success(w, map[string]bool{"loggedOut": true}, reqID)
		return
	}
	if err := h.Service.Logout(r.Context(), user.SessionID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "logout_failed", "logout failed", reqID)
		return
	}
	api.Success(w, map[string]bool{"loggedOut": true}, reqID)
}

func (h *Handler) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	token, user, err := h.Service.RequestPasswordReset(r.Context(), payload.Email)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reset_request_failed", "could not process reset request", reqID)
		return
	}
	if token != "" && h.Mailer != nil {
		body := fmt.Sprintf("A password reset was requested for your account.\n\nReset token: %s\n\nThe token expires in one hour.", token)
		if err := h.Mailer.Send(r.Context(), h.From, user.Email, "Password reset", body); err != nil {
			slog.Warn("send reset email failed", "err", err)
		}
	}
	// Same response whether or not the email exists.
	api.Success(w, map[string]bool{"requested": true}, reqID)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if err := h.Service.ResetPassword(r.Context(), payload.Token, payload.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			api.Fail(w, http.StatusBadRequest, "invalid_token", "reset token is invalid or expired", reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "reset_failed", err.Error(), reqID)
		return
	}
	api.Success(w, map[string]bool{"reset": true}, reqID)
}

// handleClassify is a UX hint for signup forms: it reports which role
// an employee number's shape suggests. Authorization never uses it.
func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	number := r.URL.Query().Get("employeeNumber")
	role, err := auth.ClassifyEmployeeNumber(number)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "unclassifiable", err.Error(), reqID)
		return
	}
	api.Success(w, map[string]string{"employeeNumber": number, "suggestedRole": string(role)}, reqID)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	profile, err := h.Service.Store.UserByID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_failed", "failed to load profile", reqID)
		return
	}
	api.Success(w, profile, reqID)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Phone     string `json:"phone"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	if v.Reject(w, reqID) {
		return
	}

	if err := h.Service.Store.UpdateProfile(r.Context(), user.UserID, payload.Phone, payload.FirstName, payload.LastName); err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_update_failed", "failed to update profile", reqID)
		return
	}
	profile, err := h.Service.Store.UserByID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_failed", "failed to load profile", reqID)
		return
	}
	api.Success(w, profile, reqID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	users, err := h.Service.Store.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to list users", reqID)
		return
	}
	api.Success(w, users, reqID)
}

// handleAvailableUsers returns colleagues free to handle duties over
// a date range, for the delegate picker.
func (h *Handler) handleAvailableUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	start, err := shared.ParseDate(r.URL.Query().Get("start"))
	if err != nil || start.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "start must be a valid date in YYYY-MM-DD format", reqID)
		return
	}
	end, err := shared.ParseDate(r.URL.Query().Get("end"))
	if err != nil || end.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "end must be a valid date in YYYY-MM-DD format", reqID)
		return
	}

	users, err := h.Service.Store.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to list users", reqID)
		return
	}

	available := make([]auth.User, 0, len(users))
	for _, u := range users {
		if u.ID == actor.UserID || !u.IsActive {
			continue
		}
		free, err := h.Leave.Availability(r.Context(), u.ID, start, end)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "availability_failed", "failed to check availability", reqID)
			return
		}
		if free {
			available = append(available, u)
		}
	}
	api.Success(w, available, reqID)
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	var payload struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	role, err := auth.ParseRole(payload.Role)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_role", "role must be staff, hod, or principal_secretary", reqID)
		return
	}

	actorUser, err := h.Service.Store.UserByID(r.Context(), actor.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_update_failed", "failed to update role", reqID)
		return
	}
	if err := h.Service.SetUserRole(r.Context(), actorUser, userID, role); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
			return
		}
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
		return
	}
	updated, err := h.Service.Store.UserByID(r.Context(), userID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_update_failed", "failed to load updated user", reqID)
		return
	}
	api.Success(w, updated, reqID)
}
