// Package users exposes the caller's own profile.
package users

import (
	"context"
	"errors"

	"github.com/tripleclub/travel-group-api/internal/domain"
	"github.com/tripleclub/travel-group-api/internal/ports/out/userstore"
)

type Service struct {
	users userstore.Store
}

func NewService(users userstore.Store) *Service {
	return &Service{users: users}
}

// Info returns the user's profile.
func (s *Service) Info(ctx context.Context, userID domain.UserID) (domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return domain.User{}, &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "user not found"}
		}
		return domain.User{}, err
	}
	return u, nil
}
