package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseDraftID extracts and validates the draft ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: did
func ParseDraftID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "did", "invalid_draft_id", "Invalid draft ID format", logger)
}

// ParseSurveyID extracts and validates the survey ID from the request path.
// Expects path parameter: sid
func ParseSurveyID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "sid", "invalid_survey_id", "Invalid survey ID format", logger)
}

// ParseMicroclimateID extracts and validates the microclimate ID from the
// request path.
// Expects path parameter: mid
func ParseMicroclimateID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "mid", "invalid_microclimate_id", "Invalid microclimate ID format", logger)
}

// ParseSnapshotID extracts and validates the snapshot ID from the request
// path.
// Expects path parameter: snapid
func ParseSnapshotID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "snapid", "invalid_snapshot_id", "Invalid snapshot ID format", logger)
}

// ParseEntityID extracts and validates the generic entity ID from the
// request path.
// Expects path parameter: eid
func ParseEntityID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "eid", "invalid_entity_id", "Invalid entity ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
