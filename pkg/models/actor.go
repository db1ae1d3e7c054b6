// Package models contains domain types for the climate platform core.
package models

import (
	"context"

	"github.com/google/uuid"
)

// ActorContext carries the already-authorized caller identity and request
// metadata through an operation. It is injected by the auth middleware;
// this core never issues or validates credentials itself.
type ActorContext struct {
	ID        uuid.UUID
	Name      string
	Role      string
	CompanyID uuid.UUID

	// Request metadata, recorded on audit entries.
	IP        string
	UserAgent string
}

// actorKey is the context key for storing actor information.
type actorKey struct{}

// WithActor returns a new context with the actor attached.
func WithActor(ctx context.Context, a ActorContext) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// GetActor retrieves the actor from the context.
// Returns a zero value and false if not present.
func GetActor(ctx context.Context) (ActorContext, bool) {
	a, ok := ctx.Value(actorKey{}).(ActorContext)
	return a, ok
}
