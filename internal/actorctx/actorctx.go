package actorctx

import (
	"context"

	"github.com/klaape/klaape-api/internal/domain/identity"
)

type ctxKey struct{}

func WithActor(ctx context.Context, actor identity.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

func ActorFrom(ctx context.Context) (identity.Actor, bool) {
	v, ok := ctx.Value(ctxKey{}).(identity.Actor)

	return v, ok && v.ID > 0
}
