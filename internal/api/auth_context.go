package api

import (
	"context"

	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
)

type ctxKey string

const (
	identityKey ctxKey = "identity"
	viewerKey   ctxKey = "viewer"
	clientIPKey ctxKey = "client_ip"
)

// Identity returns the identity resolved for the request, or nil when the
// caller is anonymous.
func Identity(ctx context.Context) *domain.IdentityRef {
	ref, _ := ctx.Value(identityKey).(*domain.IdentityRef)
	return ref
}

// RequireIdentity returns the request identity or a 401 error.
func RequireIdentity(ctx context.Context) (*domain.IdentityRef, error) {
	ref := Identity(ctx)
	if ref == nil {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return ref, nil
}

func viewerFromContext(ctx context.Context) string {
	key, _ := ctx.Value(viewerKey).(string)
	return key
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
