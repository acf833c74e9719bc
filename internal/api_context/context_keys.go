// Package api_context carries request-scoped values between middlewares,
// handlers and the logger.
package api_context

import (
	"context"
	"slices"

	"github.com/fhuszti/media-pipeline/internal/uuid"
)

type ctxKey int

const (
	mediaIDKey ctxKey = iota
	principalKey
)

// Principal is the caller identified by a verified bearer token.
type Principal struct {
	UserID string
	Roles  []string
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

func WithMediaID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, mediaIDKey, id)
}

func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(mediaIDKey).(uuid.UUID)
	return id, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext reports false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.UserID != ""
}
