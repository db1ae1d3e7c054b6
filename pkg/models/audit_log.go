package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit action constants.
const (
	AuditActionCreate     = "create"
	AuditActionAutosave   = "autosave"
	AuditActionDelete     = "delete"
	AuditActionTransition = "status_change"
	AuditActionRestore    = "restore"
)

// AuditActor is the identity snapshot recorded on an audit entry.
type AuditActor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
	Role string    `json:"role,omitempty"`
}

// AuditRequest is the request metadata recorded on an audit entry.
type AuditRequest struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// AuditEntry is one append-only record of a mutating operation, capturing
// before/after snapshots plus who did it and from where. Exactly one entry
// is written per committed mutation of a draft or publishable entity.
type AuditEntry struct {
	ID         uuid.UUID       `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Actor      AuditActor      `json:"actor"`
	Request    AuditRequest    `json:"request"`
	CreatedAt  time.Time       `json:"created_at"`
}
