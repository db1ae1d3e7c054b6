package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/concurrency"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/repositories"
)

// AutosaveResult is returned to the client after a committed autosave so it
// can submit the next save against the new version.
type AutosaveResult struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

// DraftService manages the autosaved working copies of the survey builder.
type DraftService interface {
	// Create starts a new draft for the calling user (or the anonymous
	// session when unauthenticated). The draft starts at version 1.
	Create(ctx context.Context, update models.DraftUpdate) (*models.SurveyDraft, error)

	// Get loads a draft. Forbidden unless the caller owns it.
	Get(ctx context.Context, id uuid.UUID) (*models.SurveyDraft, error)

	// Autosave merges a partial update into the draft, guarded by
	// optimistic locking. Checks run in order: ownership, expiry, version.
	Autosave(ctx context.Context, id uuid.UUID, submittedVersion int, update models.DraftUpdate) (*AutosaveResult, error)

	// Delete removes a draft. Forbidden unless the caller owns it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type draftService struct {
	repo     repositories.DraftRepository
	notifier *Notifier
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDraftService creates a new DraftService. ttl is how long a draft stays
// editable after its last save.
func NewDraftService(repo repositories.DraftRepository, notifier *Notifier, ttl time.Duration, logger *zap.Logger) DraftService {
	return &draftService{
		repo:     repo,
		notifier: notifier,
		ttl:      ttl,
		logger:   logger.Named("draft-service"),
		now:      time.Now,
	}
}

var _ DraftService = (*draftService)(nil)

func (s *draftService) Create(ctx context.Context, update models.DraftUpdate) (*models.SurveyDraft, error) {
	draft := &models.SurveyDraft{
		SessionID: auth.GetSessionID(ctx),
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if actor, ok := models.GetActor(ctx); ok {
		draft.UserID = actor.ID
	}
	if draft.UserID == uuid.Nil && draft.SessionID == "" {
		return nil, fmt.Errorf("%w: draft requires a user or session", apperrors.ErrValidationFailed)
	}

	draft.ApplyUpdate(update)

	if err := s.repo.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}

	s.notifier.RecordAudit(ctx, models.AuditActionCreate, models.EntityTypeDraft, draft.ID, nil, draft)

	return draft, nil
}

func (s *draftService) Get(ctx context.Context, id uuid.UUID) (*models.SurveyDraft, error) {
	draft, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, draft); err != nil {
		return nil, err
	}
	if draft.IsExpired(s.now()) {
		return nil, apperrors.ErrExpired
	}
	return draft, nil
}

func (s *draftService) Autosave(ctx context.Context, id uuid.UUID, submittedVersion int, update models.DraftUpdate) (*AutosaveResult, error) {
	draft, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Ownership first (cheapest, security-critical), then expiry, then the
	// optimistic-lock check.
	if err := s.checkOwnership(ctx, draft); err != nil {
		return nil, err
	}
	if draft.IsExpired(s.now()) {
		return nil, apperrors.ErrExpired
	}
	if err := concurrency.CheckVersion(draft.Version, submittedVersion); err != nil {
		if serverVersion, ok := apperrors.IsVersionConflict(err); ok {
			s.notifier.BroadcastDraftConflict(ctx, draft.ID, serverVersion)
		}
		return nil, err
	}

	before := *draft
	draft.ApplyUpdate(update)

	savedAt, err := s.repo.UpdateWithVersion(ctx, draft, submittedVersion)
	if err != nil {
		// The CAS may still lose to a racing writer that committed between
		// our read and our write; exactly one of us wins.
		if serverVersion, ok := apperrors.IsVersionConflict(err); ok {
			s.notifier.BroadcastDraftConflict(ctx, draft.ID, serverVersion)
			return nil, err
		}
		return nil, fmt.Errorf("autosave draft: %w", err)
	}

	s.notifier.RecordAudit(ctx, models.AuditActionAutosave, models.EntityTypeDraft, draft.ID, &before, draft)

	return &AutosaveResult{Version: draft.Version, SavedAt: savedAt}, nil
}

func (s *draftService) Delete(ctx context.Context, id uuid.UUID) error {
	draft, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkOwnership(ctx, draft); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete draft: %w", err)
	}

	s.notifier.RecordAudit(ctx, models.AuditActionDelete, models.EntityTypeDraft, draft.ID, draft, nil)

	return nil
}

// checkOwnership allows the draft's owning user, or, for drafts started
// before login, the anonymous session that created it.
func (s *draftService) checkOwnership(ctx context.Context, draft *models.SurveyDraft) error {
	if actor, ok := models.GetActor(ctx); ok && draft.UserID != uuid.Nil {
		if actor.ID == draft.UserID {
			return nil
		}
		return apperrors.ErrForbidden
	}
	if draft.UserID == uuid.Nil && draft.SessionID != "" && draft.SessionID == auth.GetSessionID(ctx) {
		return nil
	}
	return apperrors.ErrForbidden
}
