// Package groups implements the group lifecycle: create, browse, detail,
// update, delete and leave.
package groups

import (
	"context"
	"errors"

	"github.com/tripleclub/travel-group-api/internal/domain"
	clockport "github.com/tripleclub/travel-group-api/internal/ports/out/clock"
	"github.com/tripleclub/travel-group-api/internal/ports/out/groupstore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/membershipstore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/userstore"
)

const (
	minPageSize = 1
	maxPageSize = 10
)

type Service struct {
	groups      groupstore.Store
	memberships membershipstore.Store
	users       userstore.Store
	clk         clockport.Clock
}

func NewService(groups groupstore.Store, memberships membershipstore.Store, users userstore.Store, clk clockport.Clock) *Service {
	return &Service{
		groups:      groups,
		memberships: memberships,
		users:       users,
		clk:         clk,
	}
}

// Create persists a new group and its OWNER membership for userID. The
// creator counts as the first member.
func (s *Service) Create(ctx context.Context, in GroupInput, userID domain.UserID) (domain.GroupID, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return 0, err
	}

	g, err := domain.NewGroup(in.Kind, in.Name, in.Description, in.ThumbnailURL, in.MemberLimit)
	if err != nil {
		return 0, asValidationError(err)
	}

	return s.groups.CreateWithOwner(ctx, g, userID, s.clk.Now())
}

// BrowsePublicGroups pages over PUBLIC groups newest-first. size is clamped
// to [1, 10]; cursor 0 means the first page.
func (s *Service) BrowsePublicGroups(ctx context.Context, cursor domain.GroupID, size int) (CursorPage, error) {
	if size < minPageSize {
		size = minPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	// Fetch one extra row to decide hasNext without a count query.
	rows, err := s.groups.ListPublic(ctx, cursor, size+1)
	if err != nil {
		return CursorPage{}, err
	}

	page := CursorPage{Items: rows}
	if len(rows) > size {
		page.Items = rows[:size]
		page.HasNext = true
		page.NextCursor = page.Items[size-1].ID
	}
	return page, nil
}

// Detail returns the group and its active members. PRIVATE groups are only
// visible to joined members.
func (s *Service) Detail(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (Detail, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return Detail{}, err
	}

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			return Detail{}, errGroupNotFound()
		}
		return Detail{}, err
	}

	if g.Kind == domain.GroupKindPrivate {
		joined, err := s.memberships.ExistsJoined(ctx, groupID, userID)
		if err != nil {
			return Detail{}, err
		}
		if !joined {
			return Detail{}, &Error{Status: 403, Code: "NOT_GROUP_MEMBER", Message: "not a member of this group"}
		}
	}

	ms, err := s.memberships.ListJoined(ctx, groupID)
	if err != nil {
		return Detail{}, err
	}
	members := make([]MemberInfo, 0, len(ms))
	for _, m := range ms {
		members = append(members, MemberInfo{
			UserID:   m.UserID,
			Nickname: m.Nickname,
			Owner:    m.Role == domain.RoleOwner,
		})
	}
	return Detail{Group: g, Members: members}, nil
}

// Update rewrites the group's mutable fields under optimistic concurrency.
// A concurrent update that commits first surfaces as CONCURRENT_GROUP_UPDATE;
// the caller retries with fresh state, the service never retries.
func (s *Service) Update(ctx context.Context, in GroupInput, groupID domain.GroupID, userID domain.UserID) (domain.Group, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			return domain.Group{}, errGroupNotFound()
		}
		return domain.Group{}, err
	}

	if err := s.requireOwner(ctx, groupID, userID); err != nil {
		return domain.Group{}, err
	}

	if err := g.Update(in.Kind, in.Name, in.Description, in.ThumbnailURL, in.MemberLimit); err != nil {
		return domain.Group{}, asValidationError(err)
	}

	updated, err := s.groups.UpdateVersioned(ctx, g, s.clk.Now())
	if err != nil {
		switch {
		case errors.Is(err, groupstore.ErrVersionConflict):
			return domain.Group{}, &Error{Status: 409, Code: "CONCURRENT_GROUP_UPDATE", Message: "group was modified concurrently"}
		case errors.Is(err, groupstore.ErrNotFound):
			return domain.Group{}, errGroupNotFound()
		}
		return domain.Group{}, err
	}
	return updated, nil
}

// Delete removes the group with its memberships and join applications. Only
// the owner may delete; of two concurrent deletes one wins and the other
// sees GROUP_NOT_FOUND.
func (s *Service) Delete(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error {
	err := s.groups.DeleteOwned(ctx, groupID, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, groupstore.ErrNotFound):
		return errGroupNotFound()
	case errors.Is(err, groupstore.ErrNotOwner):
		return errNotOwner()
	}
	return err
}

// Leave marks the caller's membership LEFT and decrements the member count.
// The owner cannot leave their own group.
func (s *Service) Leave(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error {
	err := s.groups.RemoveMember(ctx, groupID, userID, s.clk.Now())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, groupstore.ErrNotFound):
		return errGroupNotFound()
	case errors.Is(err, groupstore.ErrNotMember):
		return &Error{Status: 403, Code: "NOT_GROUP_MEMBER", Message: "not a member of this group"}
	case errors.Is(err, groupstore.ErrOwnerCannotLeave):
		return &Error{Status: 409, Code: "OWNER_CANNOT_LEAVE", Message: "owner cannot leave the group"}
	}
	return err
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

func asValidationError(err error) error {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid group fields",
			Details: map[string]any{fe.Field: fe.Reason},
		}
	}
	return err
}
