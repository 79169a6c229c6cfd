package membershipstore

import (
	"context"
	"time"

	"github.com/tripleclub/travel-group-api/internal/domain"
)

// JoinedMember is a read-model row: an active membership joined with the
// member's nickname for display.
type JoinedMember struct {
	UserID   domain.UserID
	Nickname string
	Role     domain.Role
	JoinedAt time.Time
}

// Store is the read side of memberships. All membership writes go through
// the group store's composite operations, so the group row can serve as the
// lock root.
type Store interface {
	ExistsWithRole(ctx context.Context, groupID domain.GroupID, userID domain.UserID, role domain.Role) (bool, error)

	ExistsJoined(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (bool, error)

	// ListJoined returns JOINED memberships ordered by membership id
	// ascending (join order).
	ListJoined(ctx context.Context, groupID domain.GroupID) ([]JoinedMember, error)
}
