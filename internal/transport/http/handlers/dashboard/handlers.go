package dashboardhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/dashboard"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service *dashboard.Service
}

func NewHandler(service *dashboard.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/dashboard/stats", h.handleStats)
	r.With(middleware.RequireAuth).Get("/dashboard/calendar", h.handleCalendar)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	overview, err := h.Service.Overview(r.Context(), user.UserID, shared.ParseYear(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", reqID)
		return
	}
	api.Success(w, overview, reqID)
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	entries, err := h.Service.Calendar(r.Context(), user.UserID, shared.ParseYear(r))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to build calendar", reqID)
		return
	}
	api.Success(w, entries, reqID)
}
