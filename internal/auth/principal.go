package auth

import (
	"context"

	"github.com/assembly-hq/assembly/internal/gate"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *gate.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. A nil result
// means the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *gate.Principal {
	p, _ := ctx.Value(principalContextKey{}).(*gate.Principal)
	return p
}
