package auth

import (
	"context"

	"github.com/EnguerranCA/HabitHisson/internal/user"
)

type ctxKey string

const (
	userContextKey    ctxKey = "habithisson.auth.user"
	sessionContextKey ctxKey = "habithisson.auth.session"
)

func withUserContext(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func withSessionContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func UserFromContext(ctx context.Context) (user.User, bool) {
	v := ctx.Value(userContextKey)
	u, ok := v.(user.User)
	return u, ok
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	v := ctx.Value(sessionContextKey)
	s, ok := v.(Session)
	return s, ok
}
