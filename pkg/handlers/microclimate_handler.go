package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

// MicroclimateHandler exposes live-feedback session lifecycle endpoints.
type MicroclimateHandler struct {
	microclimates services.MicroclimateService
	logger        *zap.Logger
}

// NewMicroclimateHandler creates a new MicroclimateHandler.
func NewMicroclimateHandler(microclimates services.MicroclimateService, logger *zap.Logger) *MicroclimateHandler {
	return &MicroclimateHandler{microclimates: microclimates, logger: logger.Named("microclimate-handler")}
}

// RegisterRoutes registers the microclimate handler's routes on the given mux.
func (h *MicroclimateHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/microclimates"

	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET "+base+"/{mid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("POST "+base+"/{mid}/transition", authMiddleware.RequireAuth(h.Transition))
}

// Create handles POST /api/microclimates.
func (h *MicroclimateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var mc models.Microclimate
	if err := json.NewDecoder(r.Body).Decode(&mc); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", h.logger)
		return
	}

	created, err := h.microclimates.Create(r.Context(), &mc)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, created); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/microclimates/{mid}.
func (h *MicroclimateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseMicroclimateID(w, r, h.logger)
	if !ok {
		return
	}

	mc, err := h.microclimates.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, mc); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Transition handles POST /api/microclimates/{mid}/transition.
func (h *MicroclimateHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseMicroclimateID(w, r, h.logger)
	if !ok {
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", h.logger)
		return
	}
	if req.TargetStatus == "" {
		writeErr(w, http.StatusBadRequest, "invalid_request", "target_status is required", h.logger)
		return
	}

	result, err := h.microclimates.Transition(r.Context(), id, models.MicroclimateStatus(req.TargetStatus), req.Reason)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
