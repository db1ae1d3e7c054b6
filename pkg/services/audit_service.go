// Package services contains the application core: autosave, lifecycle
// transitions, version history and the side effects they trigger.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/repositories"
)

// AuditService records before/after snapshots and actor metadata for every
// mutating operation. The actor is extracted from the request context where
// the auth middleware put it.
type AuditService interface {
	// Record writes one audit entry. before and after may be nil (creates
	// have no before, deletes no after); non-nil values are JSON-marshaled.
	Record(ctx context.Context, action, entityType string, entityID uuid.UUID, before, after any) error

	// ListByEntity returns an entity's audit entries, newest first.
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error)
}

type auditService struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo repositories.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.Named("audit-service"),
	}
}

var _ AuditService = (*auditService)(nil)

func (s *auditService) Record(ctx context.Context, action, entityType string, entityID uuid.UUID, before, after any) error {
	entry := &models.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}

	if actor, ok := models.GetActor(ctx); ok {
		entry.Actor = models.AuditActor{ID: actor.ID, Name: actor.Name, Role: actor.Role}
		entry.Request = models.AuditRequest{IP: actor.IP, UserAgent: actor.UserAgent}
	} else {
		s.logger.Warn("No actor context for audit entry",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()))
	}

	if before != nil {
		data, err := json.Marshal(before)
		if err != nil {
			return fmt.Errorf("marshal audit before state: %w", err)
		}
		entry.Before = data
	}
	if after != nil {
		data, err := json.Marshal(after)
		if err != nil {
			return fmt.Errorf("marshal audit after state: %w", err)
		}
		entry.After = data
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("create audit entry: %w", err)
	}

	return nil
}

func (s *auditService) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	entries, err := s.repo.ListByEntity(ctx, entityType, entityID, limit)
	if err != nil {
		s.logger.Error("Failed to list audit entries",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}
