package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/repositories"
)

// MicroclimateTransitionResult is returned after a committed session
// transition.
type MicroclimateTransitionResult struct {
	Microclimate   *models.Microclimate      `json:"microclimate"`
	PreviousStatus models.MicroclimateStatus `json:"previous_status"`
}

// MicroclimateService governs the lifecycle of live-feedback sessions.
type MicroclimateService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Microclimate, error)
	Create(ctx context.Context, mc *models.Microclimate) (*models.Microclimate, error)

	// Transition moves the session to target under the session transition
	// table, with compare-and-swap semantics matching SurveyService.
	Transition(ctx context.Context, id uuid.UUID, target models.MicroclimateStatus, reason string) (*MicroclimateTransitionResult, error)
}

type microclimateService struct {
	repo        repositories.MicroclimateRepository
	snapshots   repositories.SnapshotRepository
	notifier    *Notifier
	graceWindow time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewMicroclimateService creates a new MicroclimateService. graceWindow is
// how early a session may go active ahead of its scheduled start.
func NewMicroclimateService(
	repo repositories.MicroclimateRepository,
	snapshots repositories.SnapshotRepository,
	notifier *Notifier,
	graceWindow time.Duration,
	logger *zap.Logger,
) MicroclimateService {
	return &microclimateService{
		repo:        repo,
		snapshots:   snapshots,
		notifier:    notifier,
		graceWindow: graceWindow,
		logger:      logger.Named("microclimate-service"),
		now:         time.Now,
	}
}

var _ MicroclimateService = (*microclimateService)(nil)

func (s *microclimateService) Get(ctx context.Context, id uuid.UUID) (*models.Microclimate, error) {
	mc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCompanyScope(ctx, mc.CompanyID); err != nil {
		return nil, err
	}
	return mc, nil
}

func (s *microclimateService) Create(ctx context.Context, mc *models.Microclimate) (*models.Microclimate, error) {
	actor, ok := models.GetActor(ctx)
	if !ok {
		return nil, apperrors.ErrForbidden
	}
	mc.CreatedBy = actor.ID
	mc.CompanyID = actor.CompanyID

	if err := s.repo.Create(ctx, mc); err != nil {
		return nil, fmt.Errorf("create microclimate: %w", err)
	}

	s.notifier.RecordAudit(ctx, models.AuditActionCreate, models.EntityTypeMicroclimate, mc.ID, nil, mc)

	return mc, nil
}

func (s *microclimateService) Transition(ctx context.Context, id uuid.UUID, target models.MicroclimateStatus, reason string) (*MicroclimateTransitionResult, error) {
	mc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCompanyScope(ctx, mc.CompanyID); err != nil {
		return nil, err
	}

	if err := models.MicroclimateMachine.Validate(mc.Status, target); err != nil {
		return nil, err
	}
	if err := s.checkPreconditions(mc, target); err != nil {
		return nil, err
	}

	actor, _ := models.GetActor(ctx)
	change := models.StatusChange{
		From:      string(mc.Status),
		To:        string(target),
		ActorID:   actor.ID,
		Reason:    reason,
		ChangedAt: s.now().UTC(),
	}

	var rate *float64
	if target == models.MicroclimateStatusCompleted {
		r := mc.ComputeParticipationRate()
		rate = &r
	}

	committed, err := s.repo.TransitionStatus(ctx, id, mc.Status, target, change, rate)
	if err != nil {
		return nil, fmt.Errorf("transition microclimate: %w", err)
	}
	if !committed {
		fresh, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := models.MicroclimateMachine.Validate(fresh.Status, target); err != nil {
			return nil, err
		}
		return nil, &apperrors.InvalidTransitionError{
			Current: string(fresh.Status),
			Target:  string(target),
		}
	}

	previous := mc.Status

	if previous == models.MicroclimateStatusDraft {
		s.takeSnapshot(ctx, mc)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.RecordAudit(ctx, models.AuditActionTransition, models.EntityTypeMicroclimate, id, mc, updated)
	s.notifier.BroadcastStatusChange(ctx, models.EntityTypeMicroclimate, id, string(previous), string(target), actor.ID)

	return &MicroclimateTransitionResult{Microclimate: updated, PreviousStatus: previous}, nil
}

func (s *microclimateService) checkPreconditions(mc *models.Microclimate, target models.MicroclimateStatus) error {
	switch target {
	case models.MicroclimateStatusScheduled:
		if mc.ScheduledStart.Before(s.now()) {
			return &apperrors.PreconditionError{Reason: "scheduled start is in the past"}
		}
		if mc.DurationMinutes <= 0 {
			return &apperrors.PreconditionError{Reason: "session duration must be positive"}
		}
	case models.MicroclimateStatusActive:
		if len(mc.Questions) == 0 {
			return &apperrors.PreconditionError{Reason: "session has no questions"}
		}
		// A session may go live a little ahead of its start, but never
		// past its end.
		now := s.now()
		if now.Before(mc.ScheduledStart.Add(-s.graceWindow)) {
			return &apperrors.PreconditionError{
				Reason: fmt.Sprintf("session cannot go active more than %s before its scheduled start", s.graceWindow),
			}
		}
		if now.After(mc.ScheduledEnd()) {
			return &apperrors.PreconditionError{Reason: "session window has already ended"}
		}
	}
	return nil
}

func (s *microclimateService) takeSnapshot(ctx context.Context, mc *models.Microclimate) {
	content, err := json.Marshal(mc.Content())
	if err != nil {
		s.logger.Error("Failed to marshal microclimate content for snapshot",
			zap.String("microclimate_id", mc.ID.String()), zap.Error(err))
		return
	}

	actor, _ := models.GetActor(ctx)
	snapshot := &models.Snapshot{
		EntityType: models.EntityTypeMicroclimate,
		EntityID:   mc.ID,
		Version:    mc.ContentVersion,
		Content:    content,
		Trigger:    models.SnapshotTriggerPublish,
		CreatedBy:  actor.ID,
	}

	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		s.logger.Error("Failed to snapshot microclimate on schedule",
			zap.String("microclimate_id", mc.ID.String()), zap.Error(err))
	}
}
