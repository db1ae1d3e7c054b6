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

// SurveyTransitionResult is returned after a committed survey transition.
type SurveyTransitionResult struct {
	Survey         *models.Survey      `json:"survey"`
	PreviousStatus models.SurveyStatus `json:"previous_status"`
}

// SurveyService governs the lifecycle of published surveys.
type SurveyService interface {
	// Get loads a survey. Forbidden for callers outside its company.
	Get(ctx context.Context, id uuid.UUID) (*models.Survey, error)

	// Create publishes a new survey in draft status.
	Create(ctx context.Context, survey *models.Survey) (*models.Survey, error)

	// Transition moves the survey to target, validating against the
	// transition table and target-specific preconditions, and commits via
	// compare-and-swap on the current status. Exactly one of two racing
	// admins wins; the loser gets an InvalidTransitionError reflecting the
	// already-moved state.
	Transition(ctx context.Context, id uuid.UUID, target models.SurveyStatus, reason string) (*SurveyTransitionResult, error)
}

type surveyService struct {
	repo        repositories.SurveyRepository
	snapshots   repositories.SnapshotRepository
	notifier    *Notifier
	graceWindow time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewSurveyService creates a new SurveyService. graceWindow is how early a
// survey may go active ahead of its scheduled start.
func NewSurveyService(
	repo repositories.SurveyRepository,
	snapshots repositories.SnapshotRepository,
	notifier *Notifier,
	graceWindow time.Duration,
	logger *zap.Logger,
) SurveyService {
	return &surveyService{
		repo:        repo,
		snapshots:   snapshots,
		notifier:    notifier,
		graceWindow: graceWindow,
		logger:      logger.Named("survey-service"),
		now:         time.Now,
	}
}

var _ SurveyService = (*surveyService)(nil)

func (s *surveyService) Get(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	survey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCompanyScope(ctx, survey.CompanyID); err != nil {
		return nil, err
	}
	return survey, nil
}

func (s *surveyService) Create(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	actor, ok := models.GetActor(ctx)
	if !ok {
		return nil, apperrors.ErrForbidden
	}
	survey.CreatedBy = actor.ID
	survey.CompanyID = actor.CompanyID

	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}

	s.notifier.RecordAudit(ctx, models.AuditActionCreate, models.EntityTypeSurvey, survey.ID, nil, survey)

	return survey, nil
}

func (s *surveyService) Transition(ctx context.Context, id uuid.UUID, target models.SurveyStatus, reason string) (*SurveyTransitionResult, error) {
	survey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCompanyScope(ctx, survey.CompanyID); err != nil {
		return nil, err
	}

	if err := models.SurveyMachine.Validate(survey.Status, target); err != nil {
		return nil, err
	}
	if err := s.checkPreconditions(survey, target); err != nil {
		return nil, err
	}

	actor, _ := models.GetActor(ctx)
	change := models.StatusChange{
		From:      string(survey.Status),
		To:        string(target),
		ActorID:   actor.ID,
		Reason:    reason,
		ChangedAt: s.now().UTC(),
	}

	// Entering completed persists the derived participation rate in the
	// same update as the status change.
	var rate *float64
	if target == models.SurveyStatusCompleted {
		r := survey.ComputeParticipationRate()
		rate = &r
	}

	committed, err := s.repo.TransitionStatus(ctx, id, survey.Status, target, change, rate)
	if err != nil {
		return nil, fmt.Errorf("transition survey: %w", err)
	}
	if !committed {
		// Lost the CAS race: someone moved the status between our read and
		// our write. Re-validate against the fresh state so the caller sees
		// the real allowed-set.
		fresh, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := models.SurveyMachine.Validate(fresh.Status, target); err != nil {
			return nil, err
		}
		// Same-target race: the other admin already applied this
		// transition. Re-entry is not provided, so this is still invalid.
		return nil, &apperrors.InvalidTransitionError{
			Current: string(fresh.Status),
			Target:  string(target),
		}
	}

	previous := survey.Status

	// Leaving the editable draft status freezes content; capture it so the
	// pre-publish state stays restorable from history.
	if previous == models.SurveyStatusDraft {
		s.takeSnapshot(ctx, survey)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.RecordAudit(ctx, models.AuditActionTransition, models.EntityTypeSurvey, id, survey, updated)
	s.notifier.BroadcastStatusChange(ctx, models.EntityTypeSurvey, id, string(previous), string(target), actor.ID)

	return &SurveyTransitionResult{Survey: updated, PreviousStatus: previous}, nil
}

// checkPreconditions enforces the target-specific business rules evaluated
// on top of the transition table.
func (s *surveyService) checkPreconditions(survey *models.Survey, target models.SurveyStatus) error {
	switch target {
	case models.SurveyStatusActive:
		if len(survey.Questions) == 0 {
			return &apperrors.PreconditionError{Reason: "survey has no questions"}
		}
		now := s.now()
		if now.Before(survey.StartDate.Add(-s.graceWindow)) {
			return &apperrors.PreconditionError{
				Reason: fmt.Sprintf("survey cannot go active more than %s before its scheduled start", s.graceWindow),
			}
		}
		if now.After(survey.EndDate) {
			return &apperrors.PreconditionError{Reason: "survey end date has already passed"}
		}
	}
	return nil
}

func (s *surveyService) takeSnapshot(ctx context.Context, survey *models.Survey) {
	content, err := json.Marshal(survey.Content())
	if err != nil {
		s.logger.Error("Failed to marshal survey content for snapshot",
			zap.String("survey_id", survey.ID.String()), zap.Error(err))
		return
	}

	actor, _ := models.GetActor(ctx)
	snapshot := &models.Snapshot{
		EntityType: models.EntityTypeSurvey,
		EntityID:   survey.ID,
		Version:    survey.ContentVersion,
		Content:    content,
		Trigger:    models.SnapshotTriggerPublish,
		CreatedBy:  actor.ID,
	}

	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		s.logger.Error("Failed to snapshot survey on publish",
			zap.String("survey_id", survey.ID.String()), zap.Error(err))
	}
}

// checkCompanyScope rejects callers acting on entities outside their
// organization. Role evaluation itself lives with the auth collaborator.
func checkCompanyScope(ctx context.Context, companyID uuid.UUID) error {
	actor, ok := models.GetActor(ctx)
	if !ok {
		return apperrors.ErrForbidden
	}
	if actor.CompanyID != companyID {
		return apperrors.ErrForbidden
	}
	return nil
}
