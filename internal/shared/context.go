package shared

import (
	"context"

	"github.com/google/uuid"
)

type storeContextKey struct{}

type actorContextKey struct{}

// ContextWithStore stores the resolved tenant store id in context.
func ContextWithStore(ctx context.Context, storeID uuid.UUID) context.Context {
	return context.WithValue(ctx, storeContextKey{}, storeID)
}

// StoreFromContext extracts the tenant store id from context.
func StoreFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(storeContextKey{}).(uuid.UUID)
	return id, ok
}

// ContextWithActor stores the authenticated actor id in context.
func ContextWithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext extracts the actor id from context.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorContextKey{}).(uuid.UUID)
	return id, ok
}
