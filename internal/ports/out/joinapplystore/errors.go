package joinapplystore

import "errors"

var (
	// ErrNotFound indicates no application exists for the (group, user) pair.
	ErrNotFound = errors.New("join application not found")

	// ErrDuplicate indicates an application already exists for the
	// (group, user) pair; the concurrent-insert race was lost.
	ErrDuplicate = errors.New("join application already exists")
)
