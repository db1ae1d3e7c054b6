package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

func newHistoryTestServer(t *testing.T, svc services.HistoryService) *http.ServeMux {
	t.Helper()
	logger := zap.NewNop()
	validator := &mockTokenValidator{claims: testClaims(uuid.New(), uuid.New())}
	authMiddleware := auth.NewMiddleware(validator, logger)

	mux := http.NewServeMux()
	NewHistoryHandler(svc, logger).RegisterRoutes(mux, authMiddleware)
	return mux
}

func TestHistoryHandlerListVersions(t *testing.T) {
	entityID := uuid.New()
	svc := &mockHistoryService{
		listFn: func(_ context.Context, entityType string, id uuid.UUID) ([]*models.Snapshot, error) {
			assert.Equal(t, models.EntityTypeSurvey, entityType)
			assert.Equal(t, entityID, id)
			return []*models.Snapshot{
				{ID: uuid.New(), EntityType: entityType, EntityID: id, Version: 2, Trigger: models.SnapshotTriggerManual},
				{ID: uuid.New(), EntityType: entityType, EntityID: id, Version: 1, Trigger: models.SnapshotTriggerPublish},
			}, nil
		},
	}
	mux := newHistoryTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/surveys/"+entityID.String()+"/versions", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Versions []*models.Snapshot `json:"versions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Versions, 2)
	assert.Equal(t, 2, resp.Versions[0].Version)
}

func TestHistoryHandlerMicroclimateCollection(t *testing.T) {
	entityID := uuid.New()
	svc := &mockHistoryService{
		listFn: func(_ context.Context, entityType string, _ uuid.UUID) ([]*models.Snapshot, error) {
			assert.Equal(t, models.EntityTypeMicroclimate, entityType)
			return nil, nil
		},
	}
	mux := newHistoryTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/microclimates/"+entityID.String()+"/versions", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	// Empty history serializes as [], not null.
	assert.Equal(t, []any{}, resp["versions"])
}

func TestHistoryHandlerUnknownCollection(t *testing.T) {
	svc := &mockHistoryService{}
	mux := newHistoryTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/widgets/"+uuid.NewString()+"/versions", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryHandlerRestore(t *testing.T) {
	entityID := uuid.New()
	snapshotID := uuid.New()
	svc := &mockHistoryService{
		restoreFn: func(_ context.Context, entityType string, id, snapID uuid.UUID) (*services.RestoreResult, error) {
			assert.Equal(t, models.EntityTypeSurvey, entityType)
			assert.Equal(t, entityID, id)
			assert.Equal(t, snapshotID, snapID)
			return &services.RestoreResult{SnapshotID: snapID, NewContentVersion: 5}, nil
		},
	}
	mux := newHistoryTestServer(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/surveys/"+entityID.String()+"/versions/"+snapshotID.String()+"/restore", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result services.RestoreResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 5, result.NewContentVersion)
}

func TestHistoryHandlerRestoreOutsideDraftReturns400(t *testing.T) {
	svc := &mockHistoryService{
		restoreFn: func(_ context.Context, _ string, _, _ uuid.UUID) (*services.RestoreResult, error) {
			return nil, apperrors.ErrInvalidState
		},
	}
	mux := newHistoryTestServer(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/surveys/"+uuid.NewString()+"/versions/"+uuid.NewString()+"/restore", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid_state", resp["error"])
}

func TestHistoryHandlerManualSnapshot(t *testing.T) {
	entityID := uuid.New()
	svc := &mockHistoryService{
		snapshotFn: func(_ context.Context, entityType string, id uuid.UUID) (*models.Snapshot, error) {
			return &models.Snapshot{ID: uuid.New(), EntityType: entityType, EntityID: id, Trigger: models.SnapshotTriggerManual}, nil
		},
	}
	mux := newHistoryTestServer(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/surveys/"+entityID.String()+"/versions", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}
