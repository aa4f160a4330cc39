package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/srejanashetty/efarm-backend/pkg/auth"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

type contextKey string

const ctxActor contextKey = "actor"

// ActorFromContext returns the authenticated caller, or a zero Actor when the
// request did not pass through Auth.
func ActorFromContext(ctx context.Context) auth.Actor {
	if ctx == nil {
		return auth.Actor{}
	}
	if v, ok := ctx.Value(ctxActor).(auth.Actor); ok {
		return v
	}
	return auth.Actor{}
}

func UserIDFromContext(ctx context.Context) string {
	actor := ActorFromContext(ctx)
	if actor.UserID == uuid.Nil {
		return ""
	}
	return actor.UserID.String()
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	return ActorFromContext(ctx).Role
}

// WithActor injects the caller into the context.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}
