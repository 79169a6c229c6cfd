// Package joins implements the join-application lifecycle: apply, cancel,
// reject, approve and the owner's pending list.
//
// An application for a (group, user) pair is a single row mutated in place.
// Approval deletes the row, so "no row" doubles as "free to apply again
// after leaving".
package joins

import (
	"context"
	"errors"
	"time"

	"github.com/tripleclub/travel-group-api/internal/domain"
	clockport "github.com/tripleclub/travel-group-api/internal/ports/out/clock"
	"github.com/tripleclub/travel-group-api/internal/ports/out/groupstore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/joinapplystore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/membershipstore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/userstore"
)

// Application is one pending join request in the owner's review list.
type Application struct {
	UserID    domain.UserID
	Nickname  string
	AppliedAt time.Time
}

type Service struct {
	groups      groupstore.Store
	applies     joinapplystore.Store
	memberships membershipstore.Store
	users       userstore.Store
	clk         clockport.Clock
}

func NewService(groups groupstore.Store, applies joinapplystore.Store, memberships membershipstore.Store, users userstore.Store, clk clockport.Clock) *Service {
	return &Service{
		groups:      groups,
		applies:     applies,
		memberships: memberships,
		users:       users,
		clk:         clk,
	}
}

// Apply requests membership in a group. State machine per (group, user):
// no row or CANCELED row becomes PENDING; a PENDING row rejects the
// duplicate; a REJECTED row can only be reapplied after the user cancels.
func (s *Service) Apply(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error {
	joined, err := s.memberships.ExistsJoined(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if joined {
		return &Error{Status: 409, Code: "ALREADY_JOINED_GROUP", Message: "already a member of this group"}
	}

	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			return errGroupNotFound()
		}
		return err
	}

	a, err := s.applies.GetByGroupAndUser(ctx, groupID, userID)
	if errors.Is(err, joinapplystore.ErrNotFound) {
		// Insert immediately so a concurrent first-apply race resolves at
		// the unique constraint, not at this read.
		if _, err := s.applies.Create(ctx, groupID, userID, s.clk.Now()); err != nil {
			if errors.Is(err, joinapplystore.ErrDuplicate) {
				return errAlreadyApplied()
			}
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}

	switch a.Status {
	case domain.ApplyPending:
		return errAlreadyApplied()
	case domain.ApplyRejected:
		return &Error{Status: 409, Code: "REAPPLY_ALLOWED_ONLY_CANCELED", Message: "rejected applications must be canceled before reapplying"}
	}

	if err := a.Reapply(); err != nil {
		return err
	}
	return s.applies.Update(ctx, a, s.clk.Now())
}

// Cancel withdraws the caller's own PENDING application.
func (s *Service) Cancel(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error {
	a, err := s.applies.GetByGroupAndUser(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, joinapplystore.ErrNotFound) {
			return errApplyNotFound()
		}
		return err
	}
	if a.Status != domain.ApplyPending {
		return errApplyNotPending()
	}

	a.Cancel(s.clk.Now())
	return s.applies.Update(ctx, a, s.clk.Now())
}

// Reject declines an applicant's PENDING application. Owner only.
func (s *Service) Reject(ctx context.Context, groupID domain.GroupID, applicantID, ownerID domain.UserID) error {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			return errGroupNotFound()
		}
		return err
	}
	if err := s.requireOwner(ctx, groupID, ownerID); err != nil {
		return err
	}

	a, err := s.applies.GetByGroupAndUser(ctx, groupID, applicantID)
	if err != nil {
		if errors.Is(err, joinapplystore.ErrNotFound) {
			return errApplyNotFound()
		}
		return err
	}
	if a.Status != domain.ApplyPending {
		return errApplyNotPending()
	}

	a.Reject(s.clk.Now())
	return s.applies.Update(ctx, a, s.clk.Now())
}

// Approve admits an applicant. Under the group row lock the store verifies
// the PENDING application, checks capacity, records the membership,
// increments the member count and removes the application row.
func (s *Service) Approve(ctx context.Context, groupID domain.GroupID, applicantID, ownerID domain.UserID) error {
	err := s.groups.ApproveMember(ctx, groupID, ownerID, applicantID, s.clk.Now())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, groupstore.ErrNotFound):
		return errGroupNotFound()
	case errors.Is(err, groupstore.ErrNotOwner):
		return errNotOwner()
	case errors.Is(err, groupstore.ErrNoApplication):
		return errApplyNotFound()
	case errors.Is(err, groupstore.ErrGroupFull):
		return &Error{Status: 409, Code: "GROUP_FULL", Message: "group is at its member limit"}
	}
	return err
}

// ListPending returns the group's PENDING applications for owner review.
func (s *Service) ListPending(ctx context.Context, groupID domain.GroupID, ownerID domain.UserID) ([]Application, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			return nil, errGroupNotFound()
		}
		return nil, err
	}
	if err := s.requireOwner(ctx, groupID, ownerID); err != nil {
		return nil, err
	}

	as, err := s.applies.ListPendingByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]Application, 0, len(as))
	for _, a := range as {
		app := Application{UserID: a.UserID, AppliedAt: a.CreatedAt}
		if u, err := s.users.GetByID(ctx, a.UserID); err == nil {
			app.Nickname = u.Nickname
		}
		out = append(out, app)
	}
	return out, nil
}

func (s *Service) requireUser(ctx context.Context, userID domain.UserID) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "user not found"}
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error {
	ok, err := s.memberships.ExistsWithRole(ctx, groupID, userID, domain.RoleOwner)
	if err != nil {
		return err
	}
	if !ok {
		return errNotOwner()
	}
	return nil
}

func errGroupNotFound() *Error {
	return &Error{Status: 404, Code: "GROUP_NOT_FOUND", Message: "group not found"}
}

func errNotOwner() *Error {
	return &Error{Status: 403, Code: "NOT_GROUP_OWNER", Message: "only the group owner may do this"}
}

func errAlreadyApplied() *Error {
	return &Error{Status: 409, Code: "ALREADY_APPLY_JOIN_REQUEST", Message: "a join request is already pending"}
}

func errApplyNotFound() *Error {
	return &Error{Status: 404, Code: "JOIN_APPLY_NOT_FOUND", Message: "join application not found"}
}

func errApplyNotPending() *Error {
	return &Error{Status: 409, Code: "JOIN_APPLY_NOT_PENDING", Message: "join application is not pending"}
}
