package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/database"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
)

// MicroclimateRepository provides data access for live-feedback sessions.
type MicroclimateRepository interface {
	// Create inserts a new session in draft status.
	Create(ctx context.Context, mc *models.Microclimate) error

	// GetByID returns the session or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Microclimate, error)

	// TransitionStatus commits a status change guarded by an atomic
	// compare-and-swap on the current status. See
	// SurveyRepository.TransitionStatus for semantics.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.MicroclimateStatus, change models.StatusChange, participationRate *float64) (bool, error)

	// UpdateContent overwrites mutable content fields from a restore and
	// bumps content_version. Only draft sessions are touched.
	UpdateContent(ctx context.Context, id uuid.UUID, content models.MicroclimateContent) (newContentVersion int, err error)
}

type microclimateRepository struct {
	db *database.DB
}

// NewMicroclimateRepository creates a new MicroclimateRepository.
func NewMicroclimateRepository(db *database.DB) MicroclimateRepository {
	return &microclimateRepository{db: db}
}

var _ MicroclimateRepository = (*microclimateRepository)(nil)

func (r *microclimateRepository) Create(ctx context.Context, mc *models.Microclimate) error {
	if mc.ID == uuid.Nil {
		mc.ID = uuid.New()
	}
	now := time.Now().UTC()
	mc.Status = models.MicroclimateStatusDraft
	mc.ContentVersion = 1
	mc.CreatedAt = now
	mc.UpdatedAt = now

	questions, err := json.Marshal(mc.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}
	history, err := json.Marshal(mc.StatusHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal status history: %w", err)
	}

	query := `
		INSERT INTO microclimates (
			id, title, description, created_by, company_id, department_id,
			status, status_history, questions, scheduled_start, duration_minutes,
			timezone, invited_count, response_count, content_version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.db.Exec(ctx, query,
		mc.ID, mc.Title, mc.Description,
		mc.CreatedBy, mc.CompanyID, mc.DepartmentID,
		mc.Status, history, questions,
		mc.ScheduledStart, mc.DurationMinutes, mc.Timezone,
		mc.InvitedCount, mc.ResponseCount, mc.ContentVersion,
		mc.CreatedAt, mc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create microclimate: %w", err)
	}

	return nil
}

func (r *microclimateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Microclimate, error) {
	query := `
		SELECT id, title, description, created_by, company_id, department_id,
			status, status_history, questions, scheduled_start, duration_minutes,
			timezone, invited_count, response_count, participation_rate,
			content_version, created_at, updated_at
		FROM microclimates
		WHERE id = $1`

	var m models.Microclimate
	var history, questions []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Title, &m.Description,
		&m.CreatedBy, &m.CompanyID, &m.DepartmentID,
		&m.Status, &history, &questions,
		&m.ScheduledStart, &m.DurationMinutes, &m.Timezone,
		&m.InvitedCount, &m.ResponseCount, &m.ParticipationRate,
		&m.ContentVersion, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan microclimate: %w", err)
	}

	if err := json.Unmarshal(history, &m.StatusHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status history: %w", err)
	}
	if err := json.Unmarshal(questions, &m.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}

	return &m, nil
}

func (r *microclimateRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.MicroclimateStatus, change models.StatusChange, participationRate *float64) (bool, error) {
	entry, err := json.Marshal(change)
	if err != nil {
		return false, fmt.Errorf("failed to marshal status change: %w", err)
	}

	query := `
		UPDATE microclimates
		SET status = $3,
			status_history = status_history || $4::jsonb,
			participation_rate = COALESCE($5, participation_rate),
			updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, query, id, from, to, entry, participationRate)
	if err != nil {
		return false, fmt.Errorf("failed to transition microclimate status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *microclimateRepository) UpdateContent(ctx context.Context, id uuid.UUID, content models.MicroclimateContent) (int, error) {
	questions, err := json.Marshal(content.Questions)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		UPDATE microclimates
		SET title = $2, description = $3, questions = $4,
			scheduled_start = $5, duration_minutes = $6, timezone = $7,
			content_version = content_version + 1,
			updated_at = now()
		WHERE id = $1 AND status = 'draft'
		RETURNING content_version`

	var newVersion int
	err = r.db.QueryRow(ctx, query,
		id, content.Title, content.Description, questions,
		content.ScheduledStart, content.DurationMinutes, content.Timezone,
	).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, apperrors.ErrNotFound) {
			return 0, apperrors.ErrNotFound
		}
		return 0, apperrors.ErrInvalidState
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update microclimate content: %w", err)
	}

	return newVersion, nil
}
