package handlers

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

// mockDraftService lets each test script the service layer's response.
type mockDraftService struct {
	createFn   func(ctx context.Context, update models.DraftUpdate) (*models.SurveyDraft, error)
	getFn      func(ctx context.Context, id uuid.UUID) (*models.SurveyDraft, error)
	autosaveFn func(ctx context.Context, id uuid.UUID, version int, update models.DraftUpdate) (*services.AutosaveResult, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) error
}

var _ services.DraftService = (*mockDraftService)(nil)

func (m *mockDraftService) Create(ctx context.Context, update models.DraftUpdate) (*models.SurveyDraft, error) {
	return m.createFn(ctx, update)
}

func (m *mockDraftService) Get(ctx context.Context, id uuid.UUID) (*models.SurveyDraft, error) {
	return m.getFn(ctx, id)
}

func (m *mockDraftService) Autosave(ctx context.Context, id uuid.UUID, version int, update models.DraftUpdate) (*services.AutosaveResult, error) {
	return m.autosaveFn(ctx, id, version, update)
}

func (m *mockDraftService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

type mockSurveyService struct {
	createFn     func(ctx context.Context, survey *models.Survey) (*models.Survey, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*models.Survey, error)
	transitionFn func(ctx context.Context, id uuid.UUID, target models.SurveyStatus, reason string) (*services.SurveyTransitionResult, error)
}

var _ services.SurveyService = (*mockSurveyService)(nil)

func (m *mockSurveyService) Create(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	return m.createFn(ctx, survey)
}

func (m *mockSurveyService) Get(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	return m.getFn(ctx, id)
}

func (m *mockSurveyService) Transition(ctx context.Context, id uuid.UUID, target models.SurveyStatus, reason string) (*services.SurveyTransitionResult, error) {
	return m.transitionFn(ctx, id, target, reason)
}

type mockMicroclimateService struct {
	createFn     func(ctx context.Context, mc *models.Microclimate) (*models.Microclimate, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*models.Microclimate, error)
	transitionFn func(ctx context.Context, id uuid.UUID, target models.MicroclimateStatus, reason string) (*services.MicroclimateTransitionResult, error)
}

var _ services.MicroclimateService = (*mockMicroclimateService)(nil)

func (m *mockMicroclimateService) Create(ctx context.Context, mc *models.Microclimate) (*models.Microclimate, error) {
	return m.createFn(ctx, mc)
}

func (m *mockMicroclimateService) Get(ctx context.Context, id uuid.UUID) (*models.Microclimate, error) {
	return m.getFn(ctx, id)
}

func (m *mockMicroclimateService) Transition(ctx context.Context, id uuid.UUID, target models.MicroclimateStatus, reason string) (*services.MicroclimateTransitionResult, error) {
	return m.transitionFn(ctx, id, target, reason)
}

type mockHistoryService struct {
	listFn     func(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.Snapshot, error)
	snapshotFn func(ctx context.Context, entityType string, entityID uuid.UUID) (*models.Snapshot, error)
	restoreFn  func(ctx context.Context, entityType string, entityID, snapshotID uuid.UUID) (*services.RestoreResult, error)
}

var _ services.HistoryService = (*mockHistoryService)(nil)

func (m *mockHistoryService) List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.Snapshot, error) {
	return m.listFn(ctx, entityType, entityID)
}

func (m *mockHistoryService) Snapshot(ctx context.Context, entityType string, entityID uuid.UUID) (*models.Snapshot, error) {
	return m.snapshotFn(ctx, entityType, entityID)
}

func (m *mockHistoryService) Restore(ctx context.Context, entityType string, entityID, snapshotID uuid.UUID) (*services.RestoreResult, error) {
	return m.restoreFn(ctx, entityType, entityID, snapshotID)
}

type mockAuditService struct {
	recordFn func(ctx context.Context, action, entityType string, entityID uuid.UUID, before, after any) error
	listFn   func(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error)
}

var _ services.AuditService = (*mockAuditService)(nil)

func (m *mockAuditService) Record(ctx context.Context, action, entityType string, entityID uuid.UUID, before, after any) error {
	if m.recordFn != nil {
		return m.recordFn(ctx, action, entityType, entityID, before, after)
	}
	return nil
}

func (m *mockAuditService) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	return m.listFn(ctx, entityType, entityID, limit)
}

// mockTokenValidator accepts any token and returns fixed claims, so handler
// tests can exercise routes behind RequireAuth.
type mockTokenValidator struct {
	claims *auth.Claims
}

func (m *mockTokenValidator) ValidateToken(string) (*auth.Claims, error) {
	return m.claims, nil
}

func testClaims(userID, companyID uuid.UUID) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:      "Test Admin",
		Role:      "company_admin",
		CompanyID: companyID.String(),
	}
}
