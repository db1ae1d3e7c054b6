// Package repositories provides data access over PostgreSQL. Repositories
// receive the connection pool at construction; they hold no other state.
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

// DraftRepository provides data access for survey drafts.
type DraftRepository interface {
	// Create inserts a new draft at version 1.
	Create(ctx context.Context, draft *models.SurveyDraft) error

	// GetByID returns the draft or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.SurveyDraft, error)

	// UpdateWithVersion commits the draft's step data guarded by an atomic
	// compare-and-swap on the version column. On success the stored version
	// is expectedVersion+1 and auto_save_count is bumped. When the CAS loses
	// (another writer committed first) it returns a
	// *apperrors.VersionConflictError with the current stored version.
	UpdateWithVersion(ctx context.Context, draft *models.SurveyDraft, expectedVersion int) (savedAt time.Time, err error)

	// Delete removes the draft. Returns apperrors.ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}

type draftRepository struct {
	db *database.DB
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(db *database.DB) DraftRepository {
	return &draftRepository{db: db}
}

var _ DraftRepository = (*draftRepository)(nil)

func (r *draftRepository) Create(ctx context.Context, draft *models.SurveyDraft) error {
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	now := time.Now().UTC()
	draft.Version = 1
	draft.AutoSaveCount = 0
	draft.CreatedAt = now
	draft.UpdatedAt = now

	step1, step2, step3, step4, err := marshalSteps(draft)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO survey_drafts (
			id, user_id, session_id, current_step,
			step1_data, step2_data, step3_data, step4_data,
			version, auto_save_count, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.Exec(ctx, query,
		draft.ID, draft.UserID, draft.SessionID, int(draft.CurrentStep),
		step1, step2, step3, step4,
		draft.Version, draft.AutoSaveCount, draft.ExpiresAt, draft.CreatedAt, draft.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}

	return nil
}

func (r *draftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SurveyDraft, error) {
	query := `
		SELECT id, user_id, session_id, current_step,
			step1_data, step2_data, step3_data, step4_data,
			version, auto_save_count, expires_at, created_at, updated_at
		FROM survey_drafts
		WHERE id = $1`

	return scanDraft(r.db.QueryRow(ctx, query, id))
}

func (r *draftRepository) UpdateWithVersion(ctx context.Context, draft *models.SurveyDraft, expectedVersion int) (time.Time, error) {
	step1, step2, step3, step4, err := marshalSteps(draft)
	if err != nil {
		return time.Time{}, err
	}

	savedAt := time.Now().UTC()

	query := `
		UPDATE survey_drafts
		SET current_step = $3,
			step1_data = $4, step2_data = $5, step3_data = $6, step4_data = $7,
			version = version + 1,
			auto_save_count = auto_save_count + 1,
			updated_at = $8
		WHERE id = $1 AND version = $2`

	tag, err := r.db.Exec(ctx, query,
		draft.ID, expectedVersion,
		int(draft.CurrentStep), step1, step2, step3, step4, savedAt,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to update draft: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Lost the race or the draft is gone; report the winner's version.
		var serverVersion int
		err := r.db.QueryRow(ctx, `SELECT version FROM survey_drafts WHERE id = $1`, draft.ID).Scan(&serverVersion)
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, apperrors.ErrNotFound
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to read draft version: %w", err)
		}
		return time.Time{}, &apperrors.VersionConflictError{ServerVersion: serverVersion}
	}

	draft.Version = expectedVersion + 1
	draft.AutoSaveCount++
	draft.UpdatedAt = savedAt
	return savedAt, nil
}

func (r *draftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM survey_drafts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func marshalSteps(draft *models.SurveyDraft) (step1, step2, step3, step4 []byte, err error) {
	if step1, err = json.Marshal(draft.BasicInfo); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal step 1: %w", err)
	}
	if step2, err = json.Marshal(draft.Questions); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal step 2: %w", err)
	}
	if step3, err = json.Marshal(draft.Targeting); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal step 3: %w", err)
	}
	if step4, err = json.Marshal(draft.Scheduling); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal step 4: %w", err)
	}
	return step1, step2, step3, step4, nil
}

func scanDraft(row pgx.Row) (*models.SurveyDraft, error) {
	var draft models.SurveyDraft
	var currentStep int
	var step1, step2, step3, step4 []byte

	err := row.Scan(
		&draft.ID, &draft.UserID, &draft.SessionID, &currentStep,
		&step1, &step2, &step3, &step4,
		&draft.Version, &draft.AutoSaveCount, &draft.ExpiresAt, &draft.CreatedAt, &draft.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan draft: %w", err)
	}

	draft.CurrentStep = models.DraftStep(currentStep)
	if err := json.Unmarshal(step1, &draft.BasicInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step 1: %w", err)
	}
	if err := json.Unmarshal(step2, &draft.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step 2: %w", err)
	}
	if err := json.Unmarshal(step3, &draft.Targeting); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step 3: %w", err)
	}
	if err := json.Unmarshal(step4, &draft.Scheduling); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step 4: %w", err)
	}

	return &draft, nil
}
