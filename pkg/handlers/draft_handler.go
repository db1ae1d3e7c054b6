package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

// DraftHandler exposes the survey-builder autosave endpoints.
type DraftHandler struct {
	drafts services.DraftService
	logger *zap.Logger
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(drafts services.DraftService, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{drafts: drafts, logger: logger.Named("draft-handler")}
}

// RegisterRoutes registers the draft handler's routes on the given mux.
// Draft routes use optional auth plus the anonymous session cookie so a
// draft can be started before login.
func (h *DraftHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, sessions *auth.SessionStore) {
	base := "/api/drafts"

	mux.HandleFunc("POST "+base, sessions.EnsureSession(authMiddleware.OptionalAuth(h.Create)))
	mux.HandleFunc("GET "+base+"/{did}", sessions.EnsureSession(authMiddleware.OptionalAuth(h.Get)))
	mux.HandleFunc("POST "+base+"/{did}/autosave", sessions.EnsureSession(authMiddleware.OptionalAuth(h.Autosave)))
	mux.HandleFunc("DELETE "+base+"/{did}", sessions.EnsureSession(authMiddleware.OptionalAuth(h.Delete)))
}

// autosaveRequest is the wire shape of an autosave submission. Version is
// the client's last-known draft version, required for the optimistic lock.
type autosaveRequest struct {
	Version int                `json:"version"`
	Update  models.DraftUpdate `json:"update"`
}

// Create handles POST /api/drafts.
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var update models.DraftUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", h.logger)
		return
	}

	draft, err := h.drafts.Create(r.Context(), update)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, draft); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/drafts/{did}.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDraftID(w, r, h.logger)
	if !ok {
		return
	}

	draft, err := h.drafts.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, draft); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Autosave handles POST /api/drafts/{did}/autosave.
// Responds 409 with the server version when the submitted version is stale.
func (h *DraftHandler) Autosave(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDraftID(w, r, h.logger)
	if !ok {
		return
	}

	var req autosaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", h.logger)
		return
	}
	if req.Version < 1 {
		writeErr(w, http.StatusBadRequest, "invalid_request", "version must be a positive integer", h.logger)
		return
	}

	result, err := h.drafts.Autosave(r.Context(), id, req.Version, req.Update)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/drafts/{did}.
func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDraftID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.drafts.Delete(r.Context(), id); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
