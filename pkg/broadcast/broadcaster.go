// Package broadcast hands committed state changes to the realtime transport.
// The core only decides what to publish and on which channel; delivery to
// connected clients is the transport's problem.
package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published on entity channels.
const (
	EventStatusChange  = "status_change"
	EventDraftConflict = "draft_conflict"
)

// Event is the wire shape handed to the transport. Payload is a minimal
// diff, never the full entity, to bound message size and avoid leaking
// fields the recipient may not be authorized to see.
type Event struct {
	Channel   string         `json:"channel"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
	SentAt    time.Time      `json:"sent_at"`
}

// Broadcaster publishes events to interested subscribers. Implementations
// must never fail the caller's operation: a missed realtime notification
// does not roll back a committed change.
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
}

// ChannelFor derives the pub/sub channel key for an entity.
func ChannelFor(entityType string, entityID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", entityType, entityID)
}

// StatusChangeEvent builds the event for a committed status transition.
func StatusChangeEvent(entityType string, entityID uuid.UUID, previous, next string, actorID uuid.UUID) Event {
	return Event{
		Channel:   ChannelFor(entityType, entityID),
		EventType: EventStatusChange,
		Payload: map[string]any{
			"entity_id":       entityID.String(),
			"previous_status": previous,
			"next_status":     next,
			"actor_id":        actorID.String(),
		},
		SentAt: time.Now().UTC(),
	}
}

// DraftConflictEvent notifies other sessions editing the same draft that a
// concurrent autosave won and they must re-fetch.
func DraftConflictEvent(entityType string, draftID uuid.UUID, serverVersion int) Event {
	return Event{
		Channel:   ChannelFor(entityType, draftID),
		EventType: EventDraftConflict,
		Payload: map[string]any{
			"draft_id":       draftID.String(),
			"server_version": serverVersion,
		},
		SentAt: time.Now().UTC(),
	}
}

// Noop is the broadcaster used when no transport is attached. Publish
// always succeeds.
type Noop struct{}

// Publish discards the event.
func (Noop) Publish(ctx context.Context, event Event) error {
	return nil
}

var _ Broadcaster = Noop{}
