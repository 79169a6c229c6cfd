package joinapplystore

import (
	"context"
	"time"

	"github.com/tripleclub/travel-group-api/internal/domain"
)

// Store persists join applications. The store enforces uniqueness of
// (group, user): at most one row per pair ever exists.
type Store interface {
	// Create inserts a PENDING application and surfaces the uniqueness check
	// at insert time: losing a concurrent race for the same (group, user)
	// pair yields ErrDuplicate, never a deferred failure.
	Create(ctx context.Context, groupID domain.GroupID, userID domain.UserID, now time.Time) (domain.JoinApply, error)

	GetByGroupAndUser(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (domain.JoinApply, error)

	// Update persists the status and status timestamps of an existing row.
	Update(ctx context.Context, a domain.JoinApply, now time.Time) error

	// ListPendingByGroup returns PENDING applications ordered by id ascending.
	ListPendingByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.JoinApply, error)
}
