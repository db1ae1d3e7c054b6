package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
)

func newHistoryServiceForTest(t *testing.T) (HistoryService, *mockSurveyRepository, *mockMicroclimateRepository, *mockSnapshotRepository, *testFixtures) {
	t.Helper()
	fx := newTestFixtures()
	surveys := newMockSurveyRepository()
	microclimates := newMockMicroclimateRepository()
	snapshots := newMockSnapshotRepository()
	svc := NewHistoryService(snapshots, surveys, microclimates, fx.notifier, fx.logger)
	return svc, surveys, microclimates, snapshots, fx
}

func TestHistoryManualSnapshotAndList(t *testing.T) {
	svc, surveys, _, _, _ := newHistoryServiceForTest(t)
	companyID := uuid.New()
	ctx := actorContext(uuid.New(), companyID)
	survey := seedSurvey(surveys, companyID, models.SurveyStatusDraft)

	snap, err := svc.Snapshot(ctx, models.EntityTypeSurvey, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotTriggerManual, snap.Trigger)

	var content models.SurveyContent
	require.NoError(t, json.Unmarshal(snap.Content, &content))
	assert.Equal(t, survey.Title, content.Title)

	list, err := svc.List(ctx, models.EntityTypeSurvey, survey.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)
}

func TestHistoryRestoreSurvey(t *testing.T) {
	svc, surveys, _, snapshots, fx := newHistoryServiceForTest(t)
	companyID := uuid.New()
	ctx := actorContext(uuid.New(), companyID)
	survey := seedSurvey(surveys, companyID, models.SurveyStatusDraft)

	// Capture the original content, then edit the survey.
	snap, err := svc.Snapshot(ctx, models.EntityTypeSurvey, survey.ID)
	require.NoError(t, err)

	edited := survey.Content()
	edited.Title = "Edited beyond recognition"
	_, err = surveys.UpdateContent(ctx, survey.ID, edited)
	require.NoError(t, err)

	result, err := svc.Restore(ctx, models.EntityTypeSurvey, survey.ID, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, result.SnapshotID)
	assert.Equal(t, 2, result.NewContentVersion)

	restored, err := surveys.GetByID(ctx, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, "Engagement 2026", restored.Title)
	// Status is untouched by the restore.
	assert.Equal(t, models.SurveyStatusDraft, restored.Status)

	// A pre_restore snapshot of the edited content was captured first so
	// the restore itself can be undone.
	history, err := snapshots.ListByEntity(ctx, models.EntityTypeSurvey, survey.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.SnapshotTriggerPreRestore, history[0].Trigger)
	var preContent models.SurveyContent
	require.NoError(t, json.Unmarshal(history[0].Content, &preContent))
	assert.Equal(t, "Edited beyond recognition", preContent.Title)

	assert.Contains(t, fx.auditRepo.actions(), models.AuditActionRestore)
}

func TestHistoryRestoreRejectedOutsideDraft(t *testing.T) {
	svc, surveys, _, snapshots, _ := newHistoryServiceForTest(t)
	companyID := uuid.New()
	ctx := actorContext(uuid.New(), companyID)
	survey := seedSurvey(surveys, companyID, models.SurveyStatusDraft)

	snap, err := svc.Snapshot(ctx, models.EntityTypeSurvey, survey.ID)
	require.NoError(t, err)

	survey.Status = models.SurveyStatusActive
	surveys.put(survey)

	_, err = svc.Restore(ctx, models.EntityTypeSurvey, survey.ID, snap.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)

	// No pre_restore snapshot was taken for the rejected restore.
	history, err := snapshots.ListByEntity(ctx, models.EntityTypeSurvey, survey.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHistoryRestoreSnapshotMustBelongToEntity(t *testing.T) {
	svc, surveys, _, _, _ := newHistoryServiceForTest(t)
	companyID := uuid.New()
	ctx := actorContext(uuid.New(), companyID)
	first := seedSurvey(surveys, companyID, models.SurveyStatusDraft)
	second := seedSurvey(surveys, companyID, models.SurveyStatusDraft)

	snap, err := svc.Snapshot(ctx, models.EntityTypeSurvey, first.ID)
	require.NoError(t, err)

	// Restoring entity B from entity A's snapshot looks like a missing
	// snapshot, not a cross-entity copy.
	_, err = svc.Restore(ctx, models.EntityTypeSurvey, second.ID, snap.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHistoryRestoreMicroclimate(t *testing.T) {
	svc, _, microclimates, _, _ := newHistoryServiceForTest(t)
	companyID := uuid.New()
	ctx := actorContext(uuid.New(), companyID)
	mc := seedMicroclimate(microclimates, companyID, models.MicroclimateStatusDraft)

	snap, err := svc.Snapshot(ctx, models.EntityTypeMicroclimate, mc.ID)
	require.NoError(t, err)

	edited := mc.Content()
	edited.DurationMinutes = 90
	edited.ScheduledStart = edited.ScheduledStart.Add(2 * time.Hour)
	_, err = microclimates.UpdateContent(ctx, mc.ID, edited)
	require.NoError(t, err)

	result, err := svc.Restore(ctx, models.EntityTypeMicroclimate, mc.ID, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewContentVersion)

	restored, err := microclimates.GetByID(ctx, mc.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, restored.DurationMinutes)
}

func TestHistoryForbiddenAcrossCompanies(t *testing.T) {
	svc, surveys, _, _, _ := newHistoryServiceForTest(t)
	survey := seedSurvey(surveys, uuid.New(), models.SurveyStatusDraft)

	outsider := actorContext(uuid.New(), uuid.New())
	_, err := svc.List(outsider, models.EntityTypeSurvey, survey.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Snapshot(outsider, models.EntityTypeSurvey, survey.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestHistoryUnknownEntityType(t *testing.T) {
	svc, _, _, _, _ := newHistoryServiceForTest(t)
	ctx := actorContext(uuid.New(), uuid.New())

	_, err := svc.List(ctx, "widget", uuid.New())
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
