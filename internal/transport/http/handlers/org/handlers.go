package orghandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/org"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
}

func NewHandler(service *org.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/departments", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/{departmentID}", h.handleGet)
		r.Get("/{departmentID}/stats", h.handleStats)

		admin := r.With(middleware.RequireRole(auth.RolePrincipalSecretary))
		admin.Post("/", h.handleCreate)
		admin.Put("/{departmentID}", h.handleUpdate)
		admin.Delete("/{departmentID}", h.handleDelete)
		admin.Put("/{departmentID}/hod", h.handleAssignHOD)
		admin.Post("/{departmentID}/members", h.handleAddMember)
		admin.Delete("/{departmentID}/members/{userID}", h.handleRemoveMember)
	})
}

func failOrg(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, org.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "department or user not found", reqID)
	case errors.Is(err, org.ErrDuplicateName):
		api.Fail(w, http.StatusConflict, "duplicate_name", "a department with that name already exists", reqID)
	case errors.Is(err, org.ErrInvalidName):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "name", Reason: "department name is required"}})
	case errors.Is(err, org.ErrNotHOD):
		api.Fail(w, http.StatusBadRequest, "not_hod", "the user must hold the hod role before heading a department", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", reqID)
	}
}

type departmentPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	departments, err := h.Service.List(r.Context())
	if err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Success(w, departments, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	dept, err := h.Service.Get(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Success(w, dept, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload departmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	dept, err := h.Service.Create(r.Context(), payload.Name, payload.Description)
	if err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Created(w, dept, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload departmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	dept, err := h.Service.Update(r.Context(), chi.URLParam(r, "departmentID"), payload.Name, payload.Description)
	if err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Success(w, dept, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "departmentID")); err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Success(w, map[string]bool{"deleted": true}, reqID)
}

func (h *Handler) handleAssignHOD(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	dept, err := h.Service.AssignHOD(r.Context(), chi.URLParam(r, "departmentID"), payload.UserID)
	if err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Success(w, dept, reqID)
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if err := h.Service.AddMember(r.Context(), chi.URLParam(r, "departmentID"), payload.UserID); err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Success(w, map[string]bool{"added": true}, reqID)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Service.RemoveMember(r.Context(), chi.URLParam(r, "departmentID"), chi.URLParam(r, "userID")); err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Success(w, map[string]bool{"removed": true}, reqID)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	stats, err := h.Service.Stats(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		failOrg(w, err, reqID)
		return
	}
	api.Success(w, stats, reqID)
}
