package core

import "context"

type contextKey string

const (
	ctxKeyActor     contextKey = "actor"
	ctxKeyIPAddress contextKey = "ip"
	ctxKeyUserAgent contextKey = "ua"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64 // 0 for the static admin token
	Role   Role
}

// IsAdmin reports whether the actor may modify records.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// ContextWithActor attaches the authenticated caller to ctx.
func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the caller attached by ContextWithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(Actor)
	return a, ok
}

// ContextWithIPAddress adds the client IP to context for logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds User-Agent to context for logging.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// GetIPAddressFromContext extracts IP address from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts User-Agent from context.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
