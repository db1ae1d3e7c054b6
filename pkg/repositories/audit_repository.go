package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/database"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
)

// AuditRepository provides append-only access to the audit log.
type AuditRepository interface {
	// Create inserts a new audit entry.
	Create(ctx context.Context, entry *models.AuditEntry) error

	// ListByEntity returns an entity's audit entries, newest first.
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error)
}

type auditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *database.DB) AuditRepository {
	return &auditRepository{db: db}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()

	actor, err := json.Marshal(entry.Actor)
	if err != nil {
		return fmt.Errorf("failed to marshal actor: %w", err)
	}
	request, err := json.Marshal(entry.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal request metadata: %w", err)
	}

	query := `
		INSERT INTO audit_log (
			id, action, entity_type, entity_id, before, after, actor, request, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID,
		[]byte(entry.Before), []byte(entry.After), actor, request, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, action, entity_type, entity_id, before, after, actor, request, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var before, after, actor, request []byte

		if err := rows.Scan(
			&e.ID, &e.Action, &e.EntityType, &e.EntityID,
			&before, &after, &actor, &request, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		e.Before = before
		e.After = after
		if err := json.Unmarshal(actor, &e.Actor); err != nil {
			return nil, fmt.Errorf("failed to unmarshal actor: %w", err)
		}
		if err := json.Unmarshal(request, &e.Request); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request metadata: %w", err)
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}
