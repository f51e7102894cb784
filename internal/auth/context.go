package auth

import (
	"context"
	"net/http"
)

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func UserFromContext(ctx context.Context) (User, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.User, ok
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.Session, ok
}

// PlayerFromContext reports the caller's player. ok is false for anonymous
// requests and for users without a player.
func PlayerFromContext(ctx context.Context) (PlayerRef, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || !p.HasPlayer() {
		return PlayerRef{}, false
	}
	return p.Player, true
}

// UserID returns the authenticated user id stored on the request context.
func UserID(r *http.Request) string {
	u, _ := UserFromContext(r.Context())
	return u.ID
}
