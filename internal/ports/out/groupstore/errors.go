package groupstore

import "errors"

var (
	// ErrNotFound indicates the group does not exist, including the case
	// where a concurrent transaction deleted it first.
	ErrNotFound = errors.New("group not found")

	// ErrVersionConflict indicates an optimistic version mismatch: another
	// update committed between read and write.
	ErrVersionConflict = errors.New("group version conflict")

	// ErrNotOwner indicates the requester holds no OWNER membership.
	ErrNotOwner = errors.New("requester is not the group owner")

	// ErrNotMember indicates the user holds no JOINED membership.
	ErrNotMember = errors.New("user is not a joined member")

	// ErrOwnerCannotLeave indicates an attempt to remove the OWNER membership.
	ErrOwnerCannotLeave = errors.New("group owner cannot leave")

	// ErrNoApplication indicates no PENDING application exists for the user.
	ErrNoApplication = errors.New("no pending join application")

	// ErrGroupFull indicates the member limit has been reached.
	ErrGroupFull = errors.New("group member limit reached")
)
