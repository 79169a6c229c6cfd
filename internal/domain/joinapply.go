package domain

import (
	"errors"
	"time"
)

// ApplyStatus is the state of a join application. There is no APPROVED
// state: approval removes the row so the (group, user) slot becomes free
// again once the member leaves.
type ApplyStatus string

const (
	ApplyPending  ApplyStatus = "PENDING"
	ApplyRejected ApplyStatus = "REJECTED"
	ApplyCanceled ApplyStatus = "CANCELED"
)

// ErrReapplyNotCanceled is returned by Reapply when the application is not
// in the CANCELED state.
var ErrReapplyNotCanceled = errors.New("only canceled applications can be reapplied")

// JoinApply is a user's request to join a group. At most one row exists per
// (group, user) pair; the row is mutated in place, never re-inserted.
type JoinApply struct {
	ID      JoinApplyID
	UserID  UserID
	GroupID GroupID
	Status  ApplyStatus

	ApprovedAt *time.Time
	RejectedAt *time.Time
	CanceledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *JoinApply) IsCanceled() bool {
	return a.Status == ApplyCanceled
}

// Reapply moves a CANCELED application back to PENDING and clears the
// status timestamps.
func (a *JoinApply) Reapply() error {
	if !a.IsCanceled() {
		return ErrReapplyNotCanceled
	}
	a.Status = ApplyPending
	a.ApprovedAt = nil
	a.RejectedAt = nil
	a.CanceledAt = nil
	return nil
}

func (a *JoinApply) Reject(now time.Time) {
	a.Status = ApplyRejected
	a.RejectedAt = &now
}

func (a *JoinApply) Cancel(now time.Time) {
	a.Status = ApplyCanceled
	a.CanceledAt = &now
}
