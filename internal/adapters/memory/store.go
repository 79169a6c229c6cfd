// Package memory provides an in-memory implementation of every store port.
//
// One Store holds all tables behind a single mutex so that the composite
// group operations (delete cascade, approve, remove) are atomic, mirroring
// the transactions the postgres adapters run. Per-port views are exposed via
// Groups(), Memberships(), JoinApplies(), Users() and Itineraries().
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tripleclub/travel-group-api/internal/domain"
	"github.com/tripleclub/travel-group-api/internal/ports/out/groupstore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/itinerarystore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/joinapplystore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/membershipstore"
	"github.com/tripleclub/travel-group-api/internal/ports/out/userstore"
)

type groupUserKey struct {
	groupID domain.GroupID
	userID  domain.UserID
}

// Store is the shared in-memory state. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	nextUserID       int64
	nextGroupID      int64
	nextMembershipID int64
	nextApplyID      int64
	nextItineraryID  int64

	users            map[domain.UserID]domain.User
	groups           map[domain.GroupID]domain.Group
	memberships      map[domain.MembershipID]domain.Membership
	applies          map[domain.JoinApplyID]domain.JoinApply
	applyByGroupUser map[groupUserKey]domain.JoinApplyID
	itineraries      map[domain.ItineraryID]domain.Itinerary
	itineraryLeaders map[domain.ItineraryID]domain.UserID
}

func New() *Store {
	return &Store{
		users:            make(map[domain.UserID]domain.User),
		groups:           make(map[domain.GroupID]domain.Group),
		memberships:      make(map[domain.MembershipID]domain.Membership),
		applies:          make(map[domain.JoinApplyID]domain.JoinApply),
		applyByGroupUser: make(map[groupUserKey]domain.JoinApplyID),
		itineraries:      make(map[domain.ItineraryID]domain.Itinerary),
		itineraryLeaders: make(map[domain.ItineraryID]domain.UserID),
	}
}

func (s *Store) Groups() groupstore.Store           { return (*groupsView)(s) }
func (s *Store) Memberships() membershipstore.Store { return (*membershipsView)(s) }
func (s *Store) JoinApplies() joinapplystore.Store  { return (*joinAppliesView)(s) }
func (s *Store) Users() userstore.Store             { return (*usersView)(s) }
func (s *Store) Itineraries() itinerarystore.Store  { return (*itinerariesView)(s) }

func (s *Store) hasRoleLocked(groupID domain.GroupID, userID domain.UserID, role domain.Role) bool {
	for _, m := range s.memberships {
		if m.GroupID == groupID && m.UserID == userID && m.Role == role {
			return true
		}
	}
	return false
}

// --- groupstore.Store ---

type groupsView Store

func (v *groupsView) CreateWithOwner(ctx context.Context, g domain.Group, owner domain.UserID, now time.Time) (domain.GroupID, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGroupID++
	g.ID = domain.GroupID(s.nextGroupID)
	g.Version = 0
	g.CreatedAt = now
	g.UpdatedAt = now
	s.groups[g.ID] = g

	s.nextMembershipID++
	m := domain.Membership{
		ID:       domain.MembershipID(s.nextMembershipID),
		UserID:   owner,
		GroupID:  g.ID,
		Role:     domain.RoleOwner,
		Status:   domain.MembershipJoined,
		JoinedAt: now,
	}
	s.memberships[m.ID] = m
	return g.ID, nil
}

func (v *groupsView) GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return domain.Group{}, groupstore.ErrNotFound
	}
	return g, nil
}

func (v *groupsView) ListPublic(ctx context.Context, cursor domain.GroupID, limit int) ([]domain.Group, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Group, 0, limit)
	for _, g := range s.groups {
		if g.Kind != domain.GroupKindPublic {
			continue
		}
		if cursor > 0 && g.ID >= cursor {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v *groupsView) UpdateVersioned(ctx context.Context, g domain.Group, now time.Time) (domain.Group, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.groups[g.ID]
	if !ok {
		return domain.Group{}, groupstore.ErrNotFound
	}
	if cur.Version != g.Version {
		return domain.Group{}, groupstore.ErrVersionConflict
	}

	cur.Kind = g.Kind
	cur.Name = g.Name
	cur.Description = g.Description
	cur.ThumbnailURL = g.ThumbnailURL
	cur.MemberLimit = g.MemberLimit
	cur.Version++
	cur.UpdatedAt = now
	s.groups[cur.ID] = cur
	return cur, nil
}

func (v *groupsView) DeleteOwned(ctx context.Context, id domain.GroupID, requester domain.UserID) error {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return groupstore.ErrNotFound
	}
	if !s.hasRoleLocked(id, requester, domain.RoleOwner) {
		return groupstore.ErrNotOwner
	}

	// Same order as the postgres transaction: applications, memberships, group.
	for aid, a := range s.applies {
		if a.GroupID == id {
			delete(s.applies, aid)
			delete(s.applyByGroupUser, groupUserKey{a.GroupID, a.UserID})
		}
	}
	for mid, m := range s.memberships {
		if m.GroupID == id {
			delete(s.memberships, mid)
		}
	}
	delete(s.groups, id)
	return nil
}

func (v *groupsView) ApproveMember(ctx context.Context, id domain.GroupID, approver, applicant domain.UserID, now time.Time) error {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return groupstore.ErrNotFound
	}
	if !s.hasRoleLocked(id, approver, domain.RoleOwner) {
		return groupstore.ErrNotOwner
	}
	aid, ok := s.applyByGroupUser[groupUserKey{id, applicant}]
	if !ok || s.applies[aid].Status != domain.ApplyPending {
		return groupstore.ErrNoApplication
	}
	if g.CurrentMemberCount >= g.MemberLimit {
		return groupstore.ErrGroupFull
	}

	s.nextMembershipID++
	m := domain.Membership{
		ID:       domain.MembershipID(s.nextMembershipID),
		UserID:   applicant,
		GroupID:  id,
		Role:     domain.RoleMember,
		Status:   domain.MembershipJoined,
		JoinedAt: now,
	}
	s.memberships[m.ID] = m

	g.CurrentMemberCount++
	g.UpdatedAt = now
	s.groups[id] = g

	delete(s.applies, aid)
	delete(s.applyByGroupUser, groupUserKey{id, applicant})
	return nil
}

func (v *groupsView) RemoveMember(ctx context.Context, id domain.GroupID, member domain.UserID, now time.Time) error {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return groupstore.ErrNotFound
	}

	var found *domain.Membership
	for mid := range s.memberships {
		m := s.memberships[mid]
		if m.GroupID == id && m.UserID == member && m.Status == domain.MembershipJoined {
			found = &m
			break
		}
	}
	if found == nil {
		return groupstore.ErrNotMember
	}
	if found.Role == domain.RoleOwner {
		return groupstore.ErrOwnerCannotLeave
	}

	found.Status = domain.MembershipLeft
	found.LeftAt = &now
	s.memberships[found.ID] = *found

	g.CurrentMemberCount--
	g.UpdatedAt = now
	s.groups[id] = g
	return nil
}

// --- membershipstore.Store ---

type membershipsView Store

func (v *membershipsView) ExistsWithRole(ctx context.Context, groupID domain.GroupID, userID domain.UserID, role domain.Role) (bool, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasRoleLocked(groupID, userID, role), nil
}

func (v *membershipsView) ExistsJoined(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (bool, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.memberships {
		if m.GroupID == groupID && m.UserID == userID && m.Status == domain.MembershipJoined {
			return true, nil
		}
	}
	return false, nil
}

func (v *membershipsView) ListJoined(ctx context.Context, groupID domain.GroupID) ([]membershipstore.JoinedMember, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := make([]domain.Membership, 0)
	for _, m := range s.memberships {
		if m.GroupID == groupID && m.Status == domain.MembershipJoined {
			ms = append(ms, m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })

	out := make([]membershipstore.JoinedMember, 0, len(ms))
	for _, m := range ms {
		jm := membershipstore.JoinedMember{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if u, ok := s.users[m.UserID]; ok {
			jm.Nickname = u.Nickname
		}
		out = append(out, jm)
	}
	return out, nil
}

// --- joinapplystore.Store ---

type joinAppliesView Store

func (v *joinAppliesView) Create(ctx context.Context, groupID domain.GroupID, userID domain.UserID, now time.Time) (domain.JoinApply, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	key := groupUserKey{groupID, userID}
	if _, ok := s.applyByGroupUser[key]; ok {
		return domain.JoinApply{}, joinapplystore.ErrDuplicate
	}

	s.nextApplyID++
	a := domain.JoinApply{
		ID:        domain.JoinApplyID(s.nextApplyID),
		UserID:    userID,
		GroupID:   groupID,
		Status:    domain.ApplyPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.applies[a.ID] = a
	s.applyByGroupUser[key] = a.ID
	return a, nil
}

func (v *joinAppliesView) GetByGroupAndUser(ctx context.Context, groupID domain.GroupID, userID domain.UserID) (domain.JoinApply, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	aid, ok := s.applyByGroupUser[groupUserKey{groupID, userID}]
	if !ok {
		return domain.JoinApply{}, joinapplystore.ErrNotFound
	}
	return s.applies[aid], nil
}

func (v *joinAppliesView) Update(ctx context.Context, a domain.JoinApply, now time.Time) error {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.applies[a.ID]
	if !ok {
		return joinapplystore.ErrNotFound
	}
	cur.Status = a.Status
	cur.ApprovedAt = cloneTimePtr(a.ApprovedAt)
	cur.RejectedAt = cloneTimePtr(a.RejectedAt)
	cur.CanceledAt = cloneTimePtr(a.CanceledAt)
	cur.UpdatedAt = now
	s.applies[cur.ID] = cur
	return nil
}

func (v *joinAppliesView) ListPendingByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.JoinApply, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.JoinApply, 0)
	for _, a := range s.applies {
		if a.GroupID == groupID && a.Status == domain.ApplyPending {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- userstore.Store ---

type usersView Store

func (v *usersView) Create(ctx context.Context, u domain.User) (domain.UserID, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	u.ID = domain.UserID(s.nextUserID)
	s.users[u.ID] = u
	return u.ID, nil
}

func (v *usersView) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, userstore.ErrNotFound
	}
	return u, nil
}

func (v *usersView) Exists(ctx context.Context, id domain.UserID) (bool, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.users[id]
	return ok, nil
}

// --- itinerarystore.Store ---

type itinerariesView Store

func (v *itinerariesView) CreateWithLeader(ctx context.Context, it domain.Itinerary, leader domain.UserID, now time.Time) (domain.ItineraryID, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItineraryID++
	it.ID = domain.ItineraryID(s.nextItineraryID)
	it.CreatedAt = now
	it.UpdatedAt = now
	s.itineraries[it.ID] = it
	s.itineraryLeaders[it.ID] = leader
	return it.ID, nil
}

func (v *itinerariesView) GetByID(ctx context.Context, id domain.ItineraryID) (domain.Itinerary, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.itineraries[id]
	if !ok || it.Deleted {
		return domain.Itinerary{}, itinerarystore.ErrNotFound
	}
	return it, nil
}

func (v *itinerariesView) ListByGroup(ctx context.Context, groupID domain.GroupID) ([]domain.Itinerary, error) {
	_ = ctx
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Itinerary, 0)
	for _, it := range s.itineraries {
		if it.GroupID == groupID && !it.Deleted {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
