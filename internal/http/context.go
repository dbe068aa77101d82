package http

import (
	"context"

	"github.com/example/barbershop-booking/internal/application"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Session is the authenticated caller resolved from a bearer token.
type Session struct {
	Principal application.Principal
	Role      application.Role
}

// ContextWithSession returns a derived context containing the authenticated session.
func ContextWithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext extracts the authenticated session from context if available.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}
