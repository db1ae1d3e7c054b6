package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/repositories"
)

// RestoreResult reports the outcome of restoring an entity from a snapshot.
type RestoreResult struct {
	SnapshotID        uuid.UUID `json:"snapshot_id"`
	NewContentVersion int       `json:"new_content_version"`
}

// HistoryService manages the append-only version history of publishable
// entities and restores from it. Restores only touch content fields; status
// and status_history are never rewound.
type HistoryService interface {
	// List returns an entity's snapshots, newest first.
	List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.Snapshot, error)

	// Snapshot captures the entity's current content on demand.
	Snapshot(ctx context.Context, entityType string, entityID uuid.UUID) (*models.Snapshot, error)

	// Restore overwrites the entity's content from the named snapshot. Only
	// entities still in draft status are restorable; a pre_restore snapshot
	// of the current content is taken first so the restore itself is
	// undoable.
	Restore(ctx context.Context, entityType string, entityID, snapshotID uuid.UUID) (*RestoreResult, error)
}

type historyService struct {
	snapshots     repositories.SnapshotRepository
	surveys       repositories.SurveyRepository
	microclimates repositories.MicroclimateRepository
	notifier      *Notifier
	logger        *zap.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(
	snapshots repositories.SnapshotRepository,
	surveys repositories.SurveyRepository,
	microclimates repositories.MicroclimateRepository,
	notifier *Notifier,
	logger *zap.Logger,
) HistoryService {
	return &historyService{
		snapshots:     snapshots,
		surveys:       surveys,
		microclimates: microclimates,
		notifier:      notifier,
		logger:        logger.Named("history-service"),
	}
}

var _ HistoryService = (*historyService)(nil)

func (s *historyService) List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.Snapshot, error) {
	if _, _, err := s.loadContent(ctx, entityType, entityID); err != nil {
		return nil, err
	}
	return s.snapshots.ListByEntity(ctx, entityType, entityID)
}

func (s *historyService) Snapshot(ctx context.Context, entityType string, entityID uuid.UUID) (*models.Snapshot, error) {
	content, version, err := s.loadContent(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	actor, _ := models.GetActor(ctx)
	snapshot := &models.Snapshot{
		EntityType: entityType,
		EntityID:   entityID,
		Version:    version,
		Content:    content,
		Trigger:    models.SnapshotTriggerManual,
		CreatedBy:  actor.ID,
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *historyService) Restore(ctx context.Context, entityType string, entityID, snapshotID uuid.UUID) (*RestoreResult, error) {
	snapshot, err := s.snapshots.GetByID(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	// Snapshots are addressed through the entity that owns them.
	if snapshot.EntityType != entityType || snapshot.EntityID != entityID {
		return nil, apperrors.ErrNotFound
	}

	switch entityType {
	case models.EntityTypeSurvey:
		return s.restoreSurvey(ctx, entityID, snapshot)
	case models.EntityTypeMicroclimate:
		return s.restoreMicroclimate(ctx, entityID, snapshot)
	default:
		return nil, fmt.Errorf("%w: unknown entity type %q", apperrors.ErrValidationFailed, entityType)
	}
}

func (s *historyService) restoreSurvey(ctx context.Context, id uuid.UUID, snapshot *models.Snapshot) (*RestoreResult, error) {
	survey, err := s.surveys.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCompanyScope(ctx, survey.CompanyID); err != nil {
		return nil, err
	}
	if survey.Status != models.SurveyStatusDraft {
		return nil, fmt.Errorf("%w: only draft surveys can be restored", apperrors.ErrInvalidState)
	}

	var content models.SurveyContent
	if err := json.Unmarshal(snapshot.Content, &content); err != nil {
		return nil, fmt.Errorf("decode snapshot content: %w", err)
	}

	if err := s.preRestoreSnapshot(ctx, models.EntityTypeSurvey, id, survey.ContentVersion, survey.Content()); err != nil {
		return nil, err
	}

	newVersion, err := s.surveys.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, fmt.Errorf("restore survey content: %w", err)
	}

	s.notifier.RecordAudit(ctx, models.AuditActionRestore, models.EntityTypeSurvey, id, survey.Content(), content)

	return &RestoreResult{SnapshotID: snapshot.ID, NewContentVersion: newVersion}, nil
}

func (s *historyService) restoreMicroclimate(ctx context.Context, id uuid.UUID, snapshot *models.Snapshot) (*RestoreResult, error) {
	mc, err := s.microclimates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCompanyScope(ctx, mc.CompanyID); err != nil {
		return nil, err
	}
	if mc.Status != models.MicroclimateStatusDraft {
		return nil, fmt.Errorf("%w: only draft microclimates can be restored", apperrors.ErrInvalidState)
	}

	var content models.MicroclimateContent
	if err := json.Unmarshal(snapshot.Content, &content); err != nil {
		return nil, fmt.Errorf("decode snapshot content: %w", err)
	}

	if err := s.preRestoreSnapshot(ctx, models.EntityTypeMicroclimate, id, mc.ContentVersion, mc.Content()); err != nil {
		return nil, err
	}

	newVersion, err := s.microclimates.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, fmt.Errorf("restore microclimate content: %w", err)
	}

	s.notifier.RecordAudit(ctx, models.AuditActionRestore, models.EntityTypeMicroclimate, id, mc.Content(), content)

	return &RestoreResult{SnapshotID: snapshot.ID, NewContentVersion: newVersion}, nil
}

// preRestoreSnapshot captures the current content before a restore
// overwrites it. Unlike audit and broadcast side effects, this one is
// load-bearing: a restore that cannot be undone is not performed.
func (s *historyService) preRestoreSnapshot(ctx context.Context, entityType string, entityID uuid.UUID, version int, content any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal current content: %w", err)
	}

	actor, _ := models.GetActor(ctx)
	snapshot := &models.Snapshot{
		EntityType: entityType,
		EntityID:   entityID,
		Version:    version,
		Content:    raw,
		Trigger:    models.SnapshotTriggerPreRestore,
		CreatedBy:  actor.ID,
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return fmt.Errorf("pre-restore snapshot: %w", err)
	}
	return nil
}

// loadContent fetches the current content of a publishable entity as JSON,
// together with its content version.
func (s *historyService) loadContent(ctx context.Context, entityType string, entityID uuid.UUID) (json.RawMessage, int, error) {
	switch entityType {
	case models.EntityTypeSurvey:
		survey, err := s.surveys.GetByID(ctx, entityID)
		if err != nil {
			return nil, 0, err
		}
		if err := checkCompanyScope(ctx, survey.CompanyID); err != nil {
			return nil, 0, err
		}
		raw, err := json.Marshal(survey.Content())
		if err != nil {
			return nil, 0, err
		}
		return raw, survey.ContentVersion, nil
	case models.EntityTypeMicroclimate:
		mc, err := s.microclimates.GetByID(ctx, entityID)
		if err != nil {
			return nil, 0, err
		}
		if err := checkCompanyScope(ctx, mc.CompanyID); err != nil {
			return nil, 0, err
		}
		raw, err := json.Marshal(mc.Content())
		if err != nil {
			return nil, 0, err
		}
		return raw, mc.ContentVersion, nil
	default:
		return nil, 0, fmt.Errorf("%w: unknown entity type %q", apperrors.ErrValidationFailed, entityType)
	}
}
