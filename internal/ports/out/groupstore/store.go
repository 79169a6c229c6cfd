package groupstore

import (
	"context"
	"time"

	"github.com/tripleclub/travel-group-api/internal/domain"
)

// Store persists group aggregates.
//
// The composite operations (DeleteOwned, ApproveMember, RemoveMember) are
// transactional: each acquires an exclusive lock on the group row first and
// either applies every effect or none. The group row is the lock root for
// all membership-changing writes.
type Store interface {
	// CreateWithOwner persists the group together with an OWNER/JOINED
	// membership for the creator, atomically, and returns the new id.
	CreateWithOwner(ctx context.Context, g domain.Group, owner domain.UserID, now time.Time) (domain.GroupID, error)

	GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error)

	// ListPublic returns up to limit PUBLIC groups ordered by id descending.
	// cursor == 0 means the first page; otherwise only rows with id < cursor
	// are returned.
	ListPublic(ctx context.Context, cursor domain.GroupID, limit int) ([]domain.Group, error)

	// UpdateVersioned persists g's mutable fields if and only if the stored
	// version still equals g.Version, bumping the version on success. It
	// returns the updated row, ErrVersionConflict when a concurrent update
	// committed first, or ErrNotFound.
	UpdateVersioned(ctx context.Context, g domain.Group, now time.Time) (domain.Group, error)

	// DeleteOwned locks the group row, verifies the requester holds an OWNER
	// membership, then deletes join applications, memberships and the group
	// row in that order. ErrNotFound covers both "never existed" and
	// "deleted by a concurrent call".
	DeleteOwned(ctx context.Context, id domain.GroupID, requester domain.UserID) error

	// ApproveMember locks the group row and, given a PENDING application from
	// applicant, records a JOINED MEMBER membership, increments the member
	// count and removes the application row.
	ApproveMember(ctx context.Context, id domain.GroupID, approver, applicant domain.UserID, now time.Time) error

	// RemoveMember locks the group row, marks the member's JOINED membership
	// LEFT and decrements the member count. The owner cannot be removed.
	RemoveMember(ctx context.Context, id domain.GroupID, member domain.UserID, now time.Time) error
}
