package auth

import (
	"context"

	"github.com/complyhq/comply"
)

type principalContextKey struct{}
type sessionIDContextKey struct{}

// ContextWithPrincipal returns a context carrying the authenticated caller's
// profile.
func ContextWithPrincipal(
	ctx context.Context,
	principal comply.UserProfile,
) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the authenticated caller's profile from the
// request context, if the request passed through the token auth filter.
func PrincipalFromContext(ctx context.Context) (comply.UserProfile, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(comply.UserProfile)
	return principal, ok
}

func ContextWithSessionID(
	ctx context.Context,
	sessionID string,
) context.Context {
	return context.WithValue(ctx, sessionIDContextKey{}, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionIDContextKey{}).(string)
	return sessionID
}
