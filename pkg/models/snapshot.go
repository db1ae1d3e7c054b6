package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Snapshot trigger constants. These record why a snapshot was taken.
const (
	SnapshotTriggerPublish    = "publish"     // leaving the editable draft status
	SnapshotTriggerPreRestore = "pre_restore" // taken automatically so a restore is undoable
	SnapshotTriggerManual     = "manual"
)

// EntityType constants for snapshots and audit entries.
const (
	EntityTypeSurvey       = "survey"
	EntityTypeMicroclimate = "microclimate"
	EntityTypeDraft        = "survey_draft"
)

// Snapshot is one append-only version history entry: a full copy of an
// entity's content at a point in time. Snapshots belong to exactly one
// entity and are never mutated after creation.
type Snapshot struct {
	ID         uuid.UUID       `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Version    int             `json:"version"` // content version at capture time
	Content    json.RawMessage `json:"content"`
	Trigger    string          `json:"trigger"`
	CreatedBy  uuid.UUID       `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}
