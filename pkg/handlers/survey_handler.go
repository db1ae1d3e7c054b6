package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

// SurveyHandler exposes survey lifecycle endpoints.
type SurveyHandler struct {
	surveys services.SurveyService
	logger  *zap.Logger
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(surveys services.SurveyService, logger *zap.Logger) *SurveyHandler {
	return &SurveyHandler{surveys: surveys, logger: logger.Named("survey-handler")}
}

// RegisterRoutes registers the survey handler's routes on the given mux.
func (h *SurveyHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/surveys"

	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET "+base+"/{sid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("POST "+base+"/{sid}/transition", authMiddleware.RequireAuth(h.Transition))
}

// transitionRequest is the wire shape of a lifecycle transition request.
type transitionRequest struct {
	TargetStatus string `json:"target_status"`
	Reason       string `json:"reason,omitempty"`
}

// Create handles POST /api/surveys.
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var survey models.Survey
	if err := json.NewDecoder(r.Body).Decode(&survey); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", h.logger)
		return
	}

	created, err := h.surveys.Create(r.Context(), &survey)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, created); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/surveys/{sid}.
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseSurveyID(w, r, h.logger)
	if !ok {
		return
	}

	survey, err := h.surveys.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, survey); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Transition handles POST /api/surveys/{sid}/transition.
// Invalid transitions respond 400 with the allowed targets.
func (h *SurveyHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseSurveyID(w, r, h.logger)
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

	result, err := h.surveys.Transition(r.Context(), id, models.SurveyStatus(req.TargetStatus), req.Reason)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
