package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

// defaultAuditLimit bounds unpaginated audit queries.
const defaultAuditLimit = 50

// AuditHandler exposes read access to the audit trail.
type AuditHandler struct {
	audit  services.AuditService
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit services.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger.Named("audit-handler")}
}

// RegisterRoutes registers the audit handler's routes on the given mux.
func (h *AuditHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/audit/{entityType}/{eid}", authMiddleware.RequireAuth(h.ListByEntity))
}

// ListByEntity handles GET /api/audit/{entityType}/{eid}?limit=N.
func (h *AuditHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := r.PathValue("entityType")
	switch entityType {
	case models.EntityTypeSurvey, models.EntityTypeMicroclimate, models.EntityTypeDraft:
	default:
		writeErr(w, http.StatusBadRequest, "invalid_entity_type", "Unknown entity type", h.logger)
		return
	}

	id, ok := ParseEntityID(w, r, h.logger)
	if !ok {
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			writeErr(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 500", h.logger)
			return
		}
		limit = parsed
	}

	entries, err := h.audit.ListByEntity(r.Context(), entityType, id, limit)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"entries": entries}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
