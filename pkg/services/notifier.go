package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/broadcast"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/models"
)

// Notifier is the single chokepoint for post-commit side effects: audit
// recording and realtime broadcasting. Both are log-and-continue — a failed
// audit write or a missed notification never rolls back a committed state
// change, but every such failure is logged at error severity so operations
// can see it.
type Notifier struct {
	audit       AuditService
	broadcaster broadcast.Broadcaster
	logger      *zap.Logger
}

// NewNotifier creates a Notifier. broadcaster may be broadcast.Noop{} when
// no transport is attached.
func NewNotifier(audit AuditService, broadcaster broadcast.Broadcaster, logger *zap.Logger) *Notifier {
	return &Notifier{
		audit:       audit,
		broadcaster: broadcaster,
		logger:      logger.Named("notifier"),
	}
}

// RecordAudit writes an audit entry, swallowing (but logging) failures.
// It runs synchronously so the entry is durable before the caller responds.
func (n *Notifier) RecordAudit(ctx context.Context, action, entityType string, entityID uuid.UUID, before, after any) {
	if err := n.audit.Record(ctx, action, entityType, entityID, before, after); err != nil {
		n.logger.Error("Audit write failed for committed change",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}

// BroadcastStatusChange publishes a committed status transition.
func (n *Notifier) BroadcastStatusChange(ctx context.Context, entityType string, entityID uuid.UUID, previous, next string, actorID uuid.UUID) {
	event := broadcast.StatusChangeEvent(entityType, entityID, previous, next, actorID)
	if err := n.broadcaster.Publish(ctx, event); err != nil {
		n.logger.Error("Broadcast failed for committed status change",
			zap.String("channel", event.Channel),
			zap.Error(err))
	}
}

// BroadcastDraftConflict notifies other editors of the draft that a
// concurrent autosave won.
func (n *Notifier) BroadcastDraftConflict(ctx context.Context, draftID uuid.UUID, serverVersion int) {
	event := broadcast.DraftConflictEvent(models.EntityTypeDraft, draftID, serverVersion)
	if err := n.broadcaster.Publish(ctx, event); err != nil {
		n.logger.Error("Broadcast failed for draft conflict",
			zap.String("channel", event.Channel),
			zap.Error(err))
	}
}
