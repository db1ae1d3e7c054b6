package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/apperrors"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/database"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
)

// SnapshotRepository provides append-only access to entity version history.
// Snapshots are never updated or deleted; concurrent writers need no CAS,
// just independent inserts.
type SnapshotRepository interface {
	// Create inserts a new snapshot.
	Create(ctx context.Context, snapshot *models.Snapshot) error

	// GetByID returns the snapshot or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Snapshot, error)

	// ListByEntity returns an entity's snapshots, newest first.
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.Snapshot, error)
}

type snapshotRepository struct {
	db *database.DB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *database.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

var _ SnapshotRepository = (*snapshotRepository)(nil)

func (r *snapshotRepository) Create(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	snapshot.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO entity_snapshots (
			id, entity_type, entity_id, version, content, trigger, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		snapshot.ID, snapshot.EntityType, snapshot.EntityID,
		snapshot.Version, []byte(snapshot.Content), snapshot.Trigger,
		snapshot.CreatedBy, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	return nil
}

func (r *snapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Snapshot, error) {
	query := `
		SELECT id, entity_type, entity_id, version, content, trigger, created_by, created_at
		FROM entity_snapshots
		WHERE id = $1`

	snapshot, err := scanSnapshot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *snapshotRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]*models.Snapshot, error) {
	query := `
		SELECT id, entity_type, entity_id, version, content, trigger, created_by, created_at
		FROM entity_snapshots
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

func scanSnapshot(row pgx.Row) (*models.Snapshot, error) {
	var s models.Snapshot
	var content []byte

	err := row.Scan(
		&s.ID, &s.EntityType, &s.EntityID, &s.Version,
		&content, &s.Trigger, &s.CreatedBy, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	s.Content = content
	return &s, nil
}
