package leavehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/platform/metrics"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
}

func NewHandler(service *leave.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/types", h.handleListTypes)
		r.Get("/balances", h.handleListBalances)
		r.Get("/availability", h.handleAvailability)
		r.Get("/requests", h.handleListRequests)
		r.Post("/requests", h.handleCreateRequest)
		r.Get("/requests/{requestID}", h.handleGetRequest)
		r.Get("/requests/{requestID}/pdf", h.handleRequestPDF)
		r.Post("/requests/{requestID}/cancel", h.handleCancelRequest)
		r.With(middleware.RequireRole(auth.RoleHOD, auth.RolePrincipalSecretary)).
			Post("/requests/{requestID}/approve", h.handleDecision(leave.ActionApprove))
		r.With(middleware.RequireRole(auth.RoleHOD, auth.RolePrincipalSecretary)).
			Post("/requests/{requestID}/reject", h.handleDecision(leave.ActionReject))
	})
}

// failDomain maps leave domain errors onto the response envelope.
// Ledger inconsistencies at approval time stay generic on the wire
// and loud in the log.
func failDomain(w http.ResponseWriter, err error, reqID string) {
	var verr *leave.ValidationError
	switch {
	case errors.As(err, &verr):
		issues := make([]shared.ValidationIssue, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			issues = append(issues, shared.ValidationIssue{Field: f.Field, Reason: f.Reason})
		}
		shared.FailValidation(w, reqID, issues)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "application not found", reqID)
	case errors.Is(err, leave.ErrUnauthorizedAction):
		api.Fail(w, http.StatusForbidden, "unauthorized_action", "you are not allowed to perform this action", reqID)
	case errors.Is(err, leave.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_state_transition", "the application no longer accepts this action", reqID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		slog.Error("balance consistency failure", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "could not complete the decision", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", reqID)
	}
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	types, err := h.Service.Types(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", reqID)
		return
	}
	api.Success(w, types, reqID)
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	balances, err := h.Service.Balances(r.Context(), user.UserID, shared.ParseYear(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balances_failed", "failed to list balances", reqID)
		return
	}
	api.Success(w, balances, reqID)
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = user.UserID
	}
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

	available, err := h.Service.Availability(r.Context(), userID, start, end)
	if err != nil {
		failDomain(w, err, reqID)
		return
	}
	api.Success(w, map[string]any{"userId": userID, "available": available}, reqID)
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		LeaveTypeID    string `json:"leaveTypeId"`
		StartDate      string `json:"startDate"`
		EndDate        string `json:"endDate"`
		ContactInfo    string `json:"contactInfo"`
		PaymentPref    string `json:"paymentPreference"`
		PaymentAddress string `json:"paymentAddress"`
		CountryExit    string `json:"countryExitNote"`
		DelegateID     string `json:"delegateId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	start, err := shared.ParseDate(payload.StartDate)
	if payload.StartDate == "" || err != nil {
		v.Add("startDate", "must be a valid date in YYYY-MM-DD format")
	}
	end, err := shared.ParseDate(payload.EndDate)
	if payload.EndDate == "" || err != nil {
		v.Add("endDate", "must be a valid date in YYYY-MM-DD format")
	}
	if v.Reject(w, reqID) {
		return
	}

	app, err := h.Service.Submit(r.Context(), user.UserID, leave.Draft{
		LeaveTypeID:    payload.LeaveTypeID,
		StartDate:      start,
		EndDate:        end,
		ContactInfo:    payload.ContactInfo,
		PaymentPref:    leave.PaymentPreference(payload.PaymentPref),
		PaymentAddress: payload.PaymentAddress,
		CountryExit:    payload.CountryExit,
		DelegateID:     payload.DelegateID,
	})
	if err != nil {
		failDomain(w, err, reqID)
		return
	}
	metrics.ApplicationSubmitted()
	api.Created(w, app, reqID)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if r.URL.Query().Get("scope") == "review" {
		apps, err := h.Service.PendingForReviewer(r.Context(), user.UserID)
		if err != nil {
			failDomain(w, err, reqID)
			return
		}
		api.Success(w, map[string]any{"items": apps, "total": len(apps)}, reqID)
		return
	}

	page := shared.ParsePagination(r, 20, 100)
	apps, total, err := h.Service.History(r.Context(), user.UserID,
		r.URL.Query().Get("status"), shared.ParseYear(r), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requests_failed", "failed to list applications", reqID)
		return
	}
	api.Success(w, map[string]any{"items": apps, "total": total}, reqID)
}

// loadVisible fetches the application and enforces read scope: the
// applicant, their department's reviewers, and principal secretaries.
func (h *Handler) loadVisible(r *http.Request, user auth.UserContext) (leave.Application, error) {
	app, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		return leave.Application{}, err
	}
	if app.ApplicantID == user.UserID || user.Role == auth.RolePrincipalSecretary {
		return app, nil
	}
	if user.Role == auth.RoleHOD {
		viewer, err := h.Service.Store.ApplicantByID(r.Context(), user.UserID)
		if err != nil {
			return leave.Application{}, err
		}
		if viewer.DepartmentID != "" && viewer.DepartmentID == app.DepartmentID {
			return app, nil
		}
	}
	return leave.Application{}, leave.ErrUnauthorizedAction
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	app, err := h.loadVisible(r, user)
	if err != nil {
		failDomain(w, err, reqID)
		return
	}
	api.Success(w, app, reqID)
}

func (h *Handler) handleRequestPDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	app, err := h.loadVisible(r, user)
	if err != nil {
		failDomain(w, err, reqID)
		return
	}

	pdf, err := leave.ApprovalPDF(app)
	if err != nil {
		failDomain(w, err, reqID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-`+app.Reference+`.pdf"`)
	_, _ = w.Write(pdf)
}

func (h *Handler) handleDecision(action leave.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())

		var payload struct {
			Comments string `json:"comments"`
		}
		if r.Body != nil {
			// Comments are optional; an empty body is fine.
			_ = json.NewDecoder(r.Body).Decode(&payload)
		}

		app, err := h.Service.Review(r.Context(), user.UserID, chi.URLParam(r, "requestID"), action, payload.Comments)
		if err != nil {
			failDomain(w, err, reqID)
			return
		}
		metrics.ApplicationDecided(string(app.Status))
		api.Success(w, app, reqID)
	}
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	app, err := h.Service.Cancel(r.Context(), user.UserID, chi.URLParam(r, "requestID"))
	if err != nil {
		failDomain(w, err, reqID)
		return
	}
	metrics.ApplicationDecided(string(app.Status))
	api.Success(w, app, reqID)
}
