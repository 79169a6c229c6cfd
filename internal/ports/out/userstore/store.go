package userstore

import (
	"context"
	"errors"

	"github.com/tripleclub/travel-group-api/internal/domain"
)

// ErrNotFound indicates the requested user does not exist.
var ErrNotFound = errors.New("user not found")

// Store persists user profiles. The OAuth login flow (out of this core)
// provisions rows; the services here only create users in tests and seeds.
type Store interface {
	Create(ctx context.Context, u domain.User) (domain.UserID, error)

	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)

	Exists(ctx context.Context, id domain.UserID) (bool, error)
}
