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

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

func newAuditTestServer(t *testing.T, svc services.AuditService) *http.ServeMux {
	t.Helper()
	logger := zap.NewNop()
	validator := &mockTokenValidator{claims: testClaims(uuid.New(), uuid.New())}
	authMiddleware := auth.NewMiddleware(validator, logger)

	mux := http.NewServeMux()
	NewAuditHandler(svc, logger).RegisterRoutes(mux, authMiddleware)
	return mux
}

func TestAuditHandlerListByEntity(t *testing.T) {
	entityID := uuid.New()
	svc := &mockAuditService{
		listFn: func(_ context.Context, entityType string, id uuid.UUID, limit int) ([]*models.AuditEntry, error) {
			assert.Equal(t, models.EntityTypeSurvey, entityType)
			assert.Equal(t, entityID, id)
			assert.Equal(t, defaultAuditLimit, limit)
			return []*models.AuditEntry{
				{ID: uuid.New(), Action: models.AuditActionTransition, EntityType: entityType, EntityID: id},
			}, nil
		},
	}
	mux := newAuditTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/survey/"+entityID.String(), nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Entries []*models.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, models.AuditActionTransition, resp.Entries[0].Action)
}

func TestAuditHandlerCustomLimit(t *testing.T) {
	svc := &mockAuditService{
		listFn: func(_ context.Context, _ string, _ uuid.UUID, limit int) ([]*models.AuditEntry, error) {
			assert.Equal(t, 5, limit)
			return nil, nil
		},
	}
	mux := newAuditTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/survey_draft/"+uuid.NewString()+"?limit=5", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []any{}, resp["entries"])
}

func TestAuditHandlerRejectsInvalidLimit(t *testing.T) {
	svc := &mockAuditService{}
	mux := newAuditTestServer(t, svc)

	for _, limit := range []string{"0", "-3", "9999", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/audit/survey/"+uuid.NewString()+"?limit="+limit, nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestAuditHandlerRejectsUnknownEntityType(t *testing.T) {
	svc := &mockAuditService{}
	mux := newAuditTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/widget/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
