package httpapi

import (
	"context"

	"github.com/tripleclub/travel-group-api/internal/domain"
)

type userIDKey struct{}

func WithUserID(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func UserIDFromContext(ctx context.Context) (domain.UserID, bool) {
	v, ok := ctx.Value(userIDKey{}).(domain.UserID)
	return v, ok && v != 0
}
