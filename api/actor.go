package api

import "context"

type actorIDKey struct{}

// WithActorID stores the authenticated user ID on the context. The auth
// middleware sets it; handlers read it back with ActorID.
func WithActorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorIDKey{}, id)
}

// ActorID returns the authenticated user ID, empty when the request was not
// authenticated.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey{}).(string)
	return id
}
