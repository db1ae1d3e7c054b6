package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

// HistoryHandler exposes version history and restore endpoints for
// publishable entities. The entity type in the path selects the collection:
// "surveys" or "microclimates".
type HistoryHandler struct {
	history services.HistoryService
	logger  *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(history services.HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger.Named("history-handler")}
}

// RegisterRoutes registers the history handler's routes on the given mux.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/{collection}/{eid}/versions"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Snapshot))
	mux.HandleFunc("POST "+base+"/{snapid}/restore", authMiddleware.RequireAuth(h.Restore))
}

// entityTypeFromPath maps the path collection segment onto the stored
// entity type. Returns "" for unknown collections.
func entityTypeFromPath(r *http.Request) string {
	switch r.PathValue("collection") {
	case "surveys":
		return models.EntityTypeSurvey
	case "microclimates":
		return models.EntityTypeMicroclimate
	default:
		return ""
	}
}

func (h *HistoryHandler) parseEntity(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	entityType := entityTypeFromPath(r)
	if entityType == "" {
		writeErr(w, http.StatusNotFound, "not_found", "Resource not found", h.logger)
		return "", uuid.Nil, false
	}
	id, ok := ParseEntityID(w, r, h.logger)
	if !ok {
		return "", uuid.Nil, false
	}
	return entityType, id, true
}

// List handles GET /api/{collection}/{eid}/versions.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := h.parseEntity(w, r)
	if !ok {
		return
	}

	snapshots, err := h.history.List(r.Context(), entityType, id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if snapshots == nil {
		snapshots = []*models.Snapshot{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"versions": snapshots}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Snapshot handles POST /api/{collection}/{eid}/versions, capturing the
// current content on demand.
func (h *HistoryHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := h.parseEntity(w, r)
	if !ok {
		return
	}

	snapshot, err := h.history.Snapshot(r.Context(), entityType, id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, snapshot); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Restore handles POST /api/{collection}/{eid}/versions/{snapid}/restore.
func (h *HistoryHandler) Restore(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := h.parseEntity(w, r)
	if !ok {
		return
	}
	snapshotID, ok := ParseSnapshotID(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.history.Restore(r.Context(), entityType, id, snapshotID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
