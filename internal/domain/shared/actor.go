package shared

import (
	"context"

	"github.com/google/uuid"
)

type actorKey struct{}

// WithActor stores the acting user on ctx
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the acting user, if the request carried one
func ActorFrom(ctx context.Context) *uuid.UUID {
	id, ok := ctx.Value(actorKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil
	}
	return &id
}
