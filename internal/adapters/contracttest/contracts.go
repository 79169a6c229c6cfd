// Package contracttest holds store contract suites shared by the memory and
// Postgres adapters. Each adapter package runs the suites against its own
// factory.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tripleclub/travel-group-api/internal/domain"
	groupstoreport "github.com/tripleclub/travel-group-api/internal/ports/out/groupstore"
	itinerarystoreport "github.com/tripleclub/travel-group-api/internal/ports/out/itinerarystore"
	joinapplystoreport "github.com/tripleclub/travel-group-api/internal/ports/out/joinapplystore"
	membershipstoreport "github.com/tripleclub/travel-group-api/internal/ports/out/membershipstore"
	userstoreport "github.com/tripleclub/travel-group-api/internal/ports/out/userstore"
)

type CleanupFunc = func()

// Stores bundles every store implementation over one backing state so the
// suites can seed across stores (groups need users, applications need both).
type Stores struct {
	Groups      groupstoreport.Store
	Memberships membershipstoreport.Store
	JoinApplies joinapplystoreport.Store
	Users       userstoreport.Store
	Itineraries itinerarystoreport.Store
}

type StoresFactory func(t *testing.T) (Stores, CleanupFunc)

var testTime = time.Unix(1000, 0).UTC()

func seedUser(t *testing.T, st Stores, nickname string) domain.UserID {
	t.Helper()
	id, err := st.Users.Create(context.Background(), domain.User{
		Nickname:  nickname,
		Email:     nickname + "@example.com",
		CreatedAt: testTime,
		UpdatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", nickname, err)
	}
	return id
}

func seedGroup(t *testing.T, st Stores, owner domain.UserID, kind domain.GroupKind, limit int) domain.GroupID {
	t.Helper()
	g, err := domain.NewGroup(kind, "trip", "a trip to plan together", "", limit)
	if err != nil {
		t.Fatalf("new group: %v", err)
	}
	id, err := st.Groups.CreateWithOwner(context.Background(), g, owner, testTime)
	if err != nil {
		t.Fatalf("seed group: %v", err)
	}
	return id
}

func RunGroupStore(t *testing.T, newStores StoresFactory) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateWithOwner", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		id := seedGroup(t, st, owner, domain.GroupKindPublic, 5)

		g, err := st.Groups.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if g.CurrentMemberCount != 1 || g.Version != 0 || g.Kind != domain.GroupKindPublic {
			t.Fatalf("group=%+v, want count 1 version 0", g)
		}
		isOwner, err := st.Memberships.ExistsWithRole(ctx, id, owner, domain.RoleOwner)
		if err != nil || !isOwner {
			t.Fatalf("owner membership missing (err=%v)", err)
		}

		if _, err := st.Groups.GetByID(ctx, id+999); !errors.Is(err, groupstoreport.ErrNotFound) {
			t.Fatalf("GetByID missing: err=%v, want ErrNotFound", err)
		}
	})

	t.Run("ListPublicKeyset", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		ids := make([]domain.GroupID, 0, 5)
		for i := 0; i < 5; i++ {
			ids = append(ids, seedGroup(t, st, owner, domain.GroupKindPublic, 5))
		}
		seedGroup(t, st, owner, domain.GroupKindPrivate, 5)

		rows, err := st.Groups.ListPublic(ctx, 0, 10)
		if err != nil {
			t.Fatalf("ListPublic: %v", err)
		}
		if len(rows) != 5 {
			t.Fatalf("len=%d, want 5 (private excluded)", len(rows))
		}
		for i := 1; i < len(rows); i++ {
			if rows[i].ID >= rows[i-1].ID {
				t.Fatalf("ids not strictly descending at %d: %v", i, rows)
			}
		}

		// Cursor walk excludes the cursor row itself.
		rows, err = st.Groups.ListPublic(ctx, ids[2], 10)
		if err != nil {
			t.Fatalf("ListPublic cursor: %v", err)
		}
		for _, g := range rows {
			if g.ID >= ids[2] {
				t.Fatalf("row %d not below cursor %d", g.ID, ids[2])
			}
		}

		rows, err = st.Groups.ListPublic(ctx, 0, 2)
		if err != nil || len(rows) != 2 {
			t.Fatalf("limit 2: len=%d err=%v", len(rows), err)
		}
	})

	t.Run("UpdateVersionedCAS", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		id := seedGroup(t, st, owner, domain.GroupKindPublic, 5)

		g, err := st.Groups.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		g.Name = "renamed"
		updated, err := st.Groups.UpdateVersioned(ctx, g, testTime.Add(time.Minute))
		if err != nil {
			t.Fatalf("UpdateVersioned: %v", err)
		}
		if updated.Version != 1 || updated.Name != "renamed" {
			t.Fatalf("updated=%+v, want version 1", updated)
		}

		// The pre-update version is now stale.
		stale := g
		stale.Name = "stale"
		if _, err := st.Groups.UpdateVersioned(ctx, stale, testTime.Add(2*time.Minute)); !errors.Is(err, groupstoreport.ErrVersionConflict) {
			t.Fatalf("stale write: err=%v, want ErrVersionConflict", err)
		}

		missing := g
		missing.ID = id + 999
		if _, err := st.Groups.UpdateVersioned(ctx, missing, testTime); !errors.Is(err, groupstoreport.ErrNotFound) {
			t.Fatalf("missing group: err=%v, want ErrNotFound", err)
		}

		got, err := st.Groups.GetByID(ctx, id)
		if err != nil || got.Name != "renamed" {
			t.Fatalf("got=%+v err=%v, want winner's fields", got, err)
		}
	})

	t.Run("DeleteOwnedCascade", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		applicant := seedUser(t, st, "bob")
		id := seedGroup(t, st, owner, domain.GroupKindPublic, 5)
		if _, err := st.JoinApplies.Create(ctx, id, applicant, testTime); err != nil {
			t.Fatalf("apply: %v", err)
		}

		if err := st.Groups.DeleteOwned(ctx, id, applicant); !errors.Is(err, groupstoreport.ErrNotOwner) {
			t.Fatalf("non-owner delete: err=%v, want ErrNotOwner", err)
		}
		if err := st.Groups.DeleteOwned(ctx, id, owner); err != nil {
			t.Fatalf("DeleteOwned: %v", err)
		}
		if err := st.Groups.DeleteOwned(ctx, id, owner); !errors.Is(err, groupstoreport.ErrNotFound) {
			t.Fatalf("second delete: err=%v, want ErrNotFound", err)
		}

		if _, err := st.Groups.GetByID(ctx, id); !errors.Is(err, groupstoreport.ErrNotFound) {
			t.Fatalf("group readable after delete: err=%v", err)
		}
		if _, err := st.JoinApplies.GetByGroupAndUser(ctx, id, applicant); !errors.Is(err, joinapplystoreport.ErrNotFound) {
			t.Fatalf("apply row survived delete: err=%v", err)
		}
		joined, err := st.Memberships.ExistsJoined(ctx, id, owner)
		if err != nil || joined {
			t.Fatalf("membership survived delete (joined=%v err=%v)", joined, err)
		}
	})

	t.Run("ApproveMember", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		applicant := seedUser(t, st, "bob")
		id := seedGroup(t, st, owner, domain.GroupKindPublic, 2)

		if err := st.Groups.ApproveMember(ctx, id, owner, applicant, testTime); !errors.Is(err, groupstoreport.ErrNoApplication) {
			t.Fatalf("approve without apply: err=%v, want ErrNoApplication", err)
		}

		if _, err := st.JoinApplies.Create(ctx, id, applicant, testTime); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := st.Groups.ApproveMember(ctx, id, applicant, applicant, testTime); !errors.Is(err, groupstoreport.ErrNotOwner) {
			t.Fatalf("non-owner approve: err=%v, want ErrNotOwner", err)
		}
		if err := st.Groups.ApproveMember(ctx, id, owner, applicant, testTime); err != nil {
			t.Fatalf("ApproveMember: %v", err)
		}

		g, _ := st.Groups.GetByID(ctx, id)
		if g.CurrentMemberCount != 2 {
			t.Fatalf("count=%d, want 2", g.CurrentMemberCount)
		}
		joined, err := st.Memberships.ExistsJoined(ctx, id, applicant)
		if err != nil || !joined {
			t.Fatalf("membership missing (err=%v)", err)
		}
		if _, err := st.JoinApplies.GetByGroupAndUser(ctx, id, applicant); !errors.Is(err, joinapplystoreport.ErrNotFound) {
			t.Fatalf("apply row kept after approve: err=%v", err)
		}

		// Capacity reached at limit 2.
		third := seedUser(t, st, "carol")
		if _, err := st.JoinApplies.Create(ctx, id, third, testTime); err != nil {
			t.Fatalf("apply third: %v", err)
		}
		if err := st.Groups.ApproveMember(ctx, id, owner, third, testTime); !errors.Is(err, groupstoreport.ErrGroupFull) {
			t.Fatalf("over-capacity approve: err=%v, want ErrGroupFull", err)
		}
	})

	t.Run("RemoveMember", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		member := seedUser(t, st, "bob")
		id := seedGroup(t, st, owner, domain.GroupKindPublic, 5)

		if err := st.Groups.RemoveMember(ctx, id, member, testTime); !errors.Is(err, groupstoreport.ErrNotMember) {
			t.Fatalf("remove stranger: err=%v, want ErrNotMember", err)
		}
		if err := st.Groups.RemoveMember(ctx, id, owner, testTime); !errors.Is(err, groupstoreport.ErrOwnerCannotLeave) {
			t.Fatalf("remove owner: err=%v, want ErrOwnerCannotLeave", err)
		}

		if _, err := st.JoinApplies.Create(ctx, id, member, testTime); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := st.Groups.ApproveMember(ctx, id, owner, member, testTime); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if err := st.Groups.RemoveMember(ctx, id, member, testTime.Add(time.Minute)); err != nil {
			t.Fatalf("RemoveMember: %v", err)
		}

		g, _ := st.Groups.GetByID(ctx, id)
		if g.CurrentMemberCount != 1 {
			t.Fatalf("count=%d, want 1 after remove", g.CurrentMemberCount)
		}
		joined, err := st.Memberships.ExistsJoined(ctx, id, member)
		if err != nil || joined {
			t.Fatalf("membership still JOINED (err=%v)", err)
		}
	})
}

func RunJoinApplyStore(t *testing.T, newStores StoresFactory) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateUniquePerGroupUser", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		applicant := seedUser(t, st, "bob")
		id := seedGroup(t, st, owner, domain.GroupKindPublic, 5)

		a, err := st.JoinApplies.Create(ctx, id, applicant, testTime)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if a.Status != domain.ApplyPending || a.GroupID != id || a.UserID != applicant {
			t.Fatalf("a=%+v, want PENDING for pair", a)
		}

		if _, err := st.JoinApplies.Create(ctx, id, applicant, testTime); !errors.Is(err, joinapplystoreport.ErrDuplicate) {
			t.Fatalf("second create: err=%v, want ErrDuplicate", err)
		}

		// Other pairs are unaffected.
		other := seedGroup(t, st, owner, domain.GroupKindPublic, 5)
		if _, err := st.JoinApplies.Create(ctx, other, applicant, testTime); err != nil {
			t.Fatalf("create for other group: %v", err)
		}
	})

	t.Run("GetAndUpdate", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		applicant := seedUser(t, st, "bob")
		id := seedGroup(t, st, owner, domain.GroupKindPublic, 5)

		if _, err := st.JoinApplies.GetByGroupAndUser(ctx, id, applicant); !errors.Is(err, joinapplystoreport.ErrNotFound) {
			t.Fatalf("get missing: err=%v, want ErrNotFound", err)
		}

		a, err := st.JoinApplies.Create(ctx, id, applicant, testTime)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		rejectedAt := testTime.Add(time.Minute)
		a.Reject(rejectedAt)
		if err := st.JoinApplies.Update(ctx, a, rejectedAt); err != nil {
			t.Fatalf("Update: %v", err)
		}

		got, err := st.JoinApplies.GetByGroupAndUser(ctx, id, applicant)
		if err != nil {
			t.Fatalf("GetByGroupAndUser: %v", err)
		}
		if got.Status != domain.ApplyRejected || got.RejectedAt == nil || !got.RejectedAt.Equal(rejectedAt) {
			t.Fatalf("got=%+v, want REJECTED at %v", got, rejectedAt)
		}

		missing := got
		missing.ID = got.ID + 999
		if err := st.JoinApplies.Update(ctx, missing, testTime); !errors.Is(err, joinapplystoreport.ErrNotFound) {
			t.Fatalf("update missing: err=%v, want ErrNotFound", err)
		}
	})

	t.Run("ListPendingByGroup", func(t *testing.T) {
		st, cleanup := newStores(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		owner := seedUser(t, st, "alice")
		id := seedGroup(t, st, owner, domain.GroupKindPublic, 5)

		first := seedUser(t, st, "bob")
		second := seedUser(t, st, "carol")
		canceled := seedUser(t, st, "dave")
		for _, u := range []domain.UserID{first, second, canceled} {
			if _, err := st.JoinApplies.Create(ctx, id, u, testTime); err != nil {
				t.Fatalf("apply %d: %v", u, err)
			}
		}
		a, _ := st.JoinApplies.GetByGroupAndUser(ctx, id, canceled)
		a.Cancel(testTime.Add(time.Minute))
		if err := st.JoinApplies.Update(ctx, a, testTime.Add(time.Minute)); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		pending, err := st.JoinApplies.ListPendingByGroup(ctx, id)
		if err != nil {
			t.Fatalf("ListPendingByGroup: %v", err)
		}
		if len(pending) != 2 || pending[0].UserID != first || pending[1].UserID != second {
			t.Fatalf("pending=%+v, want [bob carol] in apply order", pending)
		}
	})
}

func RunMembershipReads(t *testing.T, newStores StoresFactory) {
	t.Helper()
	ctx := context.Background()

	st, cleanup := newStores(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	owner := seedUser(t, st, "alice")
	member := seedUser(t, st, "bob")
	id := seedGroup(t, st, owner, domain.GroupKindPublic, 5)
	if _, err := st.JoinApplies.Create(ctx, id, member, testTime); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := st.Groups.ApproveMember(ctx, id, owner, member, testTime.Add(time.Minute)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	isOwner, err := st.Memberships.ExistsWithRole(ctx, id, owner, domain.RoleOwner)
	if err != nil || !isOwner {
		t.Fatalf("ExistsWithRole owner: %v/%v", isOwner, err)
	}
	isOwner, err = st.Memberships.ExistsWithRole(ctx, id, member, domain.RoleOwner)
	if err != nil || isOwner {
		t.Fatalf("member reported as owner: %v/%v", isOwner, err)
	}

	joined, err := st.Memberships.ExistsJoined(ctx, id, member)
	if err != nil || !joined {
		t.Fatalf("ExistsJoined member: %v/%v", joined, err)
	}

	ms, err := st.Memberships.ListJoined(ctx, id)
	if err != nil {
		t.Fatalf("ListJoined: %v", err)
	}
	if len(ms) != 2 || ms[0].UserID != owner || ms[1].UserID != member {
		t.Fatalf("ms=%+v, want [alice bob] in join order", ms)
	}
	if ms[0].Nickname != "alice" || ms[1].Nickname != "bob" {
		t.Fatalf("nicknames=%q/%q", ms[0].Nickname, ms[1].Nickname)
	}

	// LEFT members drop out of the reads.
	if err := st.Groups.RemoveMember(ctx, id, member, testTime.Add(2*time.Minute)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	joined, err = st.Memberships.ExistsJoined(ctx, id, member)
	if err != nil || joined {
		t.Fatalf("LEFT member still joined: %v/%v", joined, err)
	}
	ms, err = st.Memberships.ListJoined(ctx, id)
	if err != nil || len(ms) != 1 {
		t.Fatalf("ms=%+v err=%v, want owner only", ms, err)
	}
}

func RunUserStore(t *testing.T, newStores StoresFactory) {
	t.Helper()
	ctx := context.Background()

	st, cleanup := newStores(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	gender := domain.GenderFemale
	desc := "likes hiking"
	id, err := st.Users.Create(ctx, domain.User{
		Nickname:    "alice",
		Email:       "alice@example.com",
		Gender:      &gender,
		Description: &desc,
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	u, err := st.Users.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Nickname != "alice" || u.Gender == nil || *u.Gender != domain.GenderFemale || u.Description == nil || *u.Description != desc {
		t.Fatalf("u=%+v, want optional fields preserved", u)
	}
	if u.Birth != nil || u.ProfileURL != nil {
		t.Fatalf("u=%+v, want unset optionals nil", u)
	}

	if _, err := st.Users.GetByID(ctx, id+999); !errors.Is(err, userstoreport.ErrNotFound) {
		t.Fatalf("get missing: err=%v, want ErrNotFound", err)
	}

	ok, err := st.Users.Exists(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Exists: %v/%v", ok, err)
	}
	ok, err = st.Users.Exists(ctx, id+999)
	if err != nil || ok {
		t.Fatalf("Exists missing: %v/%v", ok, err)
	}
}

func RunItineraryStore(t *testing.T, newStores StoresFactory) {
	t.Helper()
	ctx := context.Background()

	st, cleanup := newStores(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	owner := seedUser(t, st, "alice")
	groupID := seedGroup(t, st, owner, domain.GroupKindPublic, 5)

	newIt := func(title string) domain.Itinerary {
		it, err := domain.NewItinerary(groupID, title,
			testTime.Add(24*time.Hour), testTime.Add(48*time.Hour), "spring trip", "", 4)
		if err != nil {
			t.Fatalf("new itinerary: %v", err)
		}
		return it
	}

	firstID, err := st.Itineraries.CreateWithLeader(ctx, newIt("jeju"), owner, testTime)
	if err != nil {
		t.Fatalf("CreateWithLeader: %v", err)
	}
	secondID, err := st.Itineraries.CreateWithLeader(ctx, newIt("busan"), owner, testTime)
	if err != nil {
		t.Fatalf("CreateWithLeader second: %v", err)
	}

	it, err := st.Itineraries.GetByID(ctx, firstID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if it.Title != "jeju" || it.MemberCount != 1 || !it.StartAt.Equal(testTime.Add(24*time.Hour)) {
		t.Fatalf("it=%+v", it)
	}

	if _, err := st.Itineraries.GetByID(ctx, secondID+999); !errors.Is(err, itinerarystoreport.ErrNotFound) {
		t.Fatalf("get missing: err=%v, want ErrNotFound", err)
	}

	its, err := st.Itineraries.ListByGroup(ctx, groupID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(its) != 2 || its[0].ID != firstID || its[1].ID != secondID {
		t.Fatalf("its=%+v, want [jeju busan] in id order", its)
	}
}
