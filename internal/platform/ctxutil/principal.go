package ctxutil

import (
	"context"

	types "github.com/yungbote/techlearn-backend/internal/domain"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p types.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns the authenticated caller attached by the auth middleware.
func GetPrincipal(ctx context.Context) (types.Principal, bool) {
	if ctx == nil {
		return types.Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(types.Principal)
	return p, ok
}
