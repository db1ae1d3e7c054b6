package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
)

// WriteError maps a service error onto the wire. Conflict and transition
// errors carry structured payloads so clients can recover without another
// round trip: a conflicting autosave learns the server version, a rejected
// transition learns the allowed targets.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found", "Resource not found", logger)
	case errors.Is(err, apperrors.ErrForbidden):
		writeErr(w, http.StatusForbidden, "forbidden", "You do not have access to this resource", logger)
	case errors.Is(err, apperrors.ErrExpired):
		writeErr(w, http.StatusBadRequest, "draft_expired", "This draft has expired and can no longer be edited", logger)
	case errors.Is(err, apperrors.ErrInvalidState):
		writeErr(w, http.StatusBadRequest, "invalid_state", err.Error(), logger)
	case errors.Is(err, apperrors.ErrValidationFailed):
		writeErr(w, http.StatusBadRequest, "validation_failed", err.Error(), logger)
	default:
		if serverVersion, ok := apperrors.IsVersionConflict(err); ok {
			writeJSONErr(w, http.StatusConflict, map[string]any{
				"error":          "version_conflict",
				"message":        "The draft was modified by another session",
				"server_version": serverVersion,
			}, logger)
			return
		}
		if transErr, ok := apperrors.IsInvalidTransition(err); ok {
			allowed := transErr.Allowed
			if allowed == nil {
				allowed = []string{}
			}
			writeJSONErr(w, http.StatusBadRequest, map[string]any{
				"error":               "invalid_transition",
				"message":             transErr.Error(),
				"current_status":      transErr.Current,
				"target_status":       transErr.Target,
				"allowed_transitions": allowed,
			}, logger)
			return
		}
		if precondErr, ok := apperrors.IsPrecondition(err); ok {
			writeJSONErr(w, http.StatusBadRequest, map[string]any{
				"error":   "precondition_failed",
				"message": precondErr.Reason,
			}, logger)
			return
		}
		logger.Error("Unhandled service error", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal_error", "Something went wrong", logger)
	}
}

func writeErr(w http.ResponseWriter, status int, code, message string, logger *zap.Logger) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func writeJSONErr(w http.ResponseWriter, status int, payload map[string]any, logger *zap.Logger) {
	if err := WriteJSON(w, status, payload); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
