package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/broadcast"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
)

// mockDraftRepository is an in-memory DraftRepository with the same
// compare-and-swap semantics as the PostgreSQL implementation.
type mockDraftRepository struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*models.SurveyDraft
}

func newMockDraftRepository() *mockDraftRepository {
	return &mockDraftRepository{drafts: make(map[uuid.UUID]*models.SurveyDraft)}
}

func (m *mockDraftRepository) Create(_ context.Context, draft *models.SurveyDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	draft.Version = 1
	draft.AutoSaveCount = 0
	copied := *draft
	m.drafts[draft.ID] = &copied
	return nil
}

func (m *mockDraftRepository) GetByID(_ context.Context, id uuid.UUID) (*models.SurveyDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.drafts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *draft
	return &copied, nil
}

func (m *mockDraftRepository) UpdateWithVersion(_ context.Context, draft *models.SurveyDraft, expectedVersion int) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.drafts[draft.ID]
	if !ok {
		return time.Time{}, apperrors.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return time.Time{}, &apperrors.VersionConflictError{ServerVersion: stored.Version}
	}
	saved := *draft
	saved.Version = expectedVersion + 1
	saved.AutoSaveCount = stored.AutoSaveCount + 1
	saved.UpdatedAt = time.Now().UTC()
	m.drafts[draft.ID] = &saved
	draft.Version = saved.Version
	draft.AutoSaveCount = saved.AutoSaveCount
	return saved.UpdatedAt, nil
}

func (m *mockDraftRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.drafts, id)
	return nil
}

// mockSurveyRepository mirrors the status CAS of the real repository.
type mockSurveyRepository struct {
	mu      sync.Mutex
	surveys map[uuid.UUID]*models.Survey
}

func newMockSurveyRepository() *mockSurveyRepository {
	return &mockSurveyRepository{surveys: make(map[uuid.UUID]*models.Survey)}
}

func (m *mockSurveyRepository) put(s *models.Survey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.surveys[s.ID] = &copied
}

func (m *mockSurveyRepository) Create(_ context.Context, survey *models.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if survey.ID == uuid.Nil {
		survey.ID = uuid.New()
	}
	survey.Status = models.SurveyStatusDraft
	copied := *survey
	m.surveys[survey.ID] = &copied
	return nil
}

func (m *mockSurveyRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	survey, ok := m.surveys[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *survey
	return &copied, nil
}

func (m *mockSurveyRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.SurveyStatus, change models.StatusChange, participationRate *float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	survey, ok := m.surveys[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if survey.Status != from {
		return false, nil
	}
	survey.Status = to
	survey.StatusHistory = append(survey.StatusHistory, change)
	if participationRate != nil {
		survey.ParticipationRate = participationRate
	}
	return true, nil
}

func (m *mockSurveyRepository) UpdateContent(_ context.Context, id uuid.UUID, content models.SurveyContent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	survey, ok := m.surveys[id]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	if survey.Status != models.SurveyStatusDraft {
		return 0, apperrors.ErrInvalidState
	}
	survey.Title = content.Title
	survey.Description = content.Description
	survey.Questions = content.Questions
	survey.StartDate = content.StartDate
	survey.EndDate = content.EndDate
	survey.ContentVersion++
	return survey.ContentVersion, nil
}

// mockMicroclimateRepository mirrors the status CAS of the real repository.
type mockMicroclimateRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Microclimate
}

func newMockMicroclimateRepository() *mockMicroclimateRepository {
	return &mockMicroclimateRepository{sessions: make(map[uuid.UUID]*models.Microclimate)}
}

func (m *mockMicroclimateRepository) put(mc *models.Microclimate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *mc
	m.sessions[mc.ID] = &copied
}

func (m *mockMicroclimateRepository) Create(_ context.Context, mc *models.Microclimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mc.ID == uuid.Nil {
		mc.ID = uuid.New()
	}
	mc.Status = models.MicroclimateStatusDraft
	copied := *mc
	m.sessions[mc.ID] = &copied
	return nil
}

func (m *mockMicroclimateRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Microclimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *mc
	return &copied, nil
}

func (m *mockMicroclimateRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.MicroclimateStatus, change models.StatusChange, participationRate *float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.sessions[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if mc.Status != from {
		return false, nil
	}
	mc.Status = to
	mc.StatusHistory = append(mc.StatusHistory, change)
	if participationRate != nil {
		mc.ParticipationRate = participationRate
	}
	return true, nil
}

func (m *mockMicroclimateRepository) UpdateContent(_ context.Context, id uuid.UUID, content models.MicroclimateContent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.sessions[id]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	if mc.Status != models.MicroclimateStatusDraft {
		return 0, apperrors.ErrInvalidState
	}
	mc.Title = content.Title
	mc.Description = content.Description
	mc.Questions = content.Questions
	mc.ScheduledStart = content.ScheduledStart
	mc.DurationMinutes = content.DurationMinutes
	mc.Timezone = content.Timezone
	mc.ContentVersion++
	return mc.ContentVersion, nil
}

// mockSnapshotRepository stores snapshots in insertion order.
type mockSnapshotRepository struct {
	mu        sync.Mutex
	snapshots []*models.Snapshot
	createErr error
}

func newMockSnapshotRepository() *mockSnapshotRepository {
	return &mockSnapshotRepository{}
}

func (m *mockSnapshotRepository) Create(_ context.Context, snapshot *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	snapshot.CreatedAt = time.Now().UTC()
	copied := *snapshot
	m.snapshots = append(m.snapshots, &copied)
	return nil
}

func (m *mockSnapshotRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snapshots {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockSnapshotRepository) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Snapshot
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		s := m.snapshots[i]
		if s.EntityType == entityType && s.EntityID == entityID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

// mockAuditRepository records entries for assertion.
type mockAuditRepository struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
}

func newMockAuditRepository() *mockAuditRepository {
	return &mockAuditRepository{}
}

func (m *mockAuditRepository) Create(_ context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *mockAuditRepository) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockAuditRepository) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// mockBroadcaster captures published events.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{}
}

func (m *mockBroadcaster) Publish(_ context.Context, event broadcast.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockBroadcaster) published() []broadcast.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broadcast.Event(nil), m.events...)
}

// testFixtures bundles the collaborators most service tests need.
type testFixtures struct {
	auditRepo   *mockAuditRepository
	broadcaster *mockBroadcaster
	notifier    *Notifier
	logger      *zap.Logger
}

func newTestFixtures() *testFixtures {
	logger := zap.NewNop()
	auditRepo := newMockAuditRepository()
	broadcaster := newMockBroadcaster()
	return &testFixtures{
		auditRepo:   auditRepo,
		broadcaster: broadcaster,
		notifier:    NewNotifier(NewAuditService(auditRepo, logger), broadcaster, logger),
		logger:      logger,
	}
}

func actorContext(userID, companyID uuid.UUID) context.Context {
	return models.WithActor(context.Background(), models.ActorContext{
		ID:        userID,
		Name:      "Test Admin",
		Role:      "company_admin",
		CompanyID: companyID,
	})
}
