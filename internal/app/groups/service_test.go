package groups

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tripleclub/travel-group-api/internal/adapters/memory"
	memclock "github.com/tripleclub/travel-group-api/internal/adapters/memory/clock"
	"github.com/tripleclub/travel-group-api/internal/domain"
	"github.com/tripleclub/travel-group-api/internal/ports/out/groupstore"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *memclock.ManualClock) {
	t.Helper()
	store := memory.New()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	svc := NewService(store.Groups(), store.Memberships(), store.Users(), clk)
	return svc, store, clk
}

func seedUser(t *testing.T, store *memory.Store, nickname string) domain.UserID {
	t.Helper()
	id, err := store.Users().Create(context.Background(), domain.User{Nickname: nickname, Email: nickname + "@example.com"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func publicInput(name string) GroupInput {
	return GroupInput{
		Kind:        domain.GroupKindPublic,
		Name:        name,
		Description: "a trip to plan together",
		MemberLimit: 5,
	}
}

func TestService_Create_SetsOwnerAndCount(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")

	id, err := svc.Create(context.Background(), publicInput("seoul weekend"), owner)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	g, err := store.Groups().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID err=%v", err)
	}
	if g.CurrentMemberCount != 1 || g.Version != 0 {
		t.Fatalf("count=%d version=%d, want 1/0", g.CurrentMemberCount, g.Version)
	}

	isOwner, err := store.Memberships().ExistsWithRole(context.Background(), id, owner, domain.RoleOwner)
	if err != nil || !isOwner {
		t.Fatalf("owner membership missing (err=%v)", err)
	}
}

func TestService_Create_UnknownUser(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), publicInput("ghost group"), 999)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "USER_NOT_FOUND" {
		t.Fatalf("err=%v, want USER_NOT_FOUND 404", err)
	}
}

func TestService_Create_InvalidFields(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")

	in := publicInput("bad group")
	in.MemberLimit = 51
	_, err := svc.Create(context.Background(), in, owner)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("err=%v, want VALIDATION_ERROR 422", err)
	}
	if _, ok := ae.Details["memberLimit"]; !ok {
		t.Fatalf("details=%v, want memberLimit entry", ae.Details)
	}
}

func TestService_BrowsePublicGroups_PagesNewestFirst(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")

	for i := 0; i < 7; i++ {
		if _, err := svc.Create(context.Background(), publicInput("trip"), owner); err != nil {
			t.Fatalf("Create err=%v", err)
		}
	}
	// PRIVATE groups never show up in the listing.
	priv := publicInput("hidden")
	priv.Kind = domain.GroupKindPrivate
	if _, err := svc.Create(context.Background(), priv, owner); err != nil {
		t.Fatalf("Create private err=%v", err)
	}

	page1, err := svc.BrowsePublicGroups(context.Background(), 0, 3)
	if err != nil {
		t.Fatalf("page1 err=%v", err)
	}
	if len(page1.Items) != 3 || !page1.HasNext {
		t.Fatalf("page1: items=%d hasNext=%v", len(page1.Items), page1.HasNext)
	}
	for i := 1; i < len(page1.Items); i++ {
		if page1.Items[i].ID >= page1.Items[i-1].ID {
			t.Fatalf("ids not strictly descending: %v >= %v", page1.Items[i].ID, page1.Items[i-1].ID)
		}
	}
	if page1.NextCursor != page1.Items[2].ID {
		t.Fatalf("nextCursor=%d, want last item id %d", page1.NextCursor, page1.Items[2].ID)
	}

	page2, err := svc.BrowsePublicGroups(context.Background(), page1.NextCursor, 3)
	if err != nil {
		t.Fatalf("page2 err=%v", err)
	}
	if len(page2.Items) != 3 || !page2.HasNext {
		t.Fatalf("page2: items=%d hasNext=%v", len(page2.Items), page2.HasNext)
	}
	if page2.Items[0].ID >= page1.NextCursor {
		t.Fatalf("page2 starts at %d, cursor was %d", page2.Items[0].ID, page1.NextCursor)
	}

	page3, err := svc.BrowsePublicGroups(context.Background(), page2.NextCursor, 3)
	if err != nil {
		t.Fatalf("page3 err=%v", err)
	}
	if len(page3.Items) != 1 || page3.HasNext || page3.NextCursor != 0 {
		t.Fatalf("page3: items=%d hasNext=%v nextCursor=%d", len(page3.Items), page3.HasNext, page3.NextCursor)
	}
}

func TestService_BrowsePublicGroups_SizeClamp(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")
	for i := 0; i < 12; i++ {
		if _, err := svc.Create(context.Background(), publicInput("trip"), owner); err != nil {
			t.Fatalf("Create err=%v", err)
		}
	}

	small, err := svc.BrowsePublicGroups(context.Background(), 0, 0)
	if err != nil || len(small.Items) != 1 {
		t.Fatalf("size=0: items=%d err=%v, want 1", len(small.Items), err)
	}
	big, err := svc.BrowsePublicGroups(context.Background(), 0, 999)
	if err != nil || len(big.Items) != 10 {
		t.Fatalf("size=999: items=%d err=%v, want 10", len(big.Items), err)
	}
}

func TestService_Detail_PrivateRequiresMembership(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")
	stranger := seedUser(t, store, "bob")

	in := publicInput("secret trip")
	in.Kind = domain.GroupKindPrivate
	id, err := svc.Create(context.Background(), in, owner)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	_, err = svc.Detail(context.Background(), id, stranger)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 403 || ae.Code != "NOT_GROUP_MEMBER" {
		t.Fatalf("err=%v, want NOT_GROUP_MEMBER 403", err)
	}

	d, err := svc.Detail(context.Background(), id, owner)
	if err != nil {
		t.Fatalf("Detail err=%v", err)
	}
	if len(d.Members) != 1 || !d.Members[0].Owner || d.Members[0].Nickname != "alice" {
		t.Fatalf("members=%+v, want single owner alice", d.Members)
	}
}

func TestService_Update_VersionConflictLoses(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")
	id, err := svc.Create(context.Background(), publicInput("trip"), owner)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	in := publicInput("renamed first")
	first, err := svc.Update(context.Background(), in, id, owner)
	if err != nil {
		t.Fatalf("first update err=%v", err)
	}
	if first.Version != 1 || first.Name != "renamed first" {
		t.Fatalf("first=%+v, want version 1", first)
	}

	// A writer still holding the pre-update version must lose.
	stale := first
	stale.Version = 0
	stale.Name = "stale write"
	if _, err := store.Groups().UpdateVersioned(context.Background(), stale, time.Unix(200, 0).UTC()); !errors.Is(err, groupstore.ErrVersionConflict) {
		t.Fatalf("stale store write err=%v, want ErrVersionConflict", err)
	}

	got, err := store.Groups().GetByID(context.Background(), id)
	if err != nil || got.Name != "renamed first" || got.Version != 1 {
		t.Fatalf("got=%+v err=%v, want winner's fields intact", got, err)
	}
}

func TestService_Update_ConflictMapsToConcurrentUpdate(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")
	id, err := svc.Create(context.Background(), publicInput("trip"), owner)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	conflicting := &conflictOnce{Store: store.Groups()}
	svc2 := NewService(conflicting, store.Memberships(), store.Users(), memclock.NewManualClock(time.Unix(100, 0).UTC()))

	_, err = svc2.Update(context.Background(), publicInput("renamed"), id, owner)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "CONCURRENT_GROUP_UPDATE" {
		t.Fatalf("err=%v, want CONCURRENT_GROUP_UPDATE 409", err)
	}
}

// conflictOnce simulates a concurrent writer committing between the read and
// the versioned write.
type conflictOnce struct {
	groupstore.Store
	done bool
}

func (c *conflictOnce) UpdateVersioned(ctx context.Context, g domain.Group, now time.Time) (domain.Group, error) {
	if !c.done {
		c.done = true
		return domain.Group{}, groupstore.ErrVersionConflict
	}
	return c.Store.UpdateVersioned(ctx, g, now)
}

func TestService_Update_NotOwner(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")
	other := seedUser(t, store, "bob")
	id, err := svc.Create(context.Background(), publicInput("trip"), owner)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	_, err = svc.Update(context.Background(), publicInput("hijacked"), id, other)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 403 || ae.Code != "NOT_GROUP_OWNER" {
		t.Fatalf("err=%v, want NOT_GROUP_OWNER 403", err)
	}
}

func TestService_Delete_ConcurrentSecondSeesNotFound(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")
	id, err := svc.Create(context.Background(), publicInput("trip"), owner)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Delete(context.Background(), id, owner)
		}(i)
	}
	wg.Wait()

	var oks, notFounds int
	for _, err := range errs {
		if err == nil {
			oks++
			continue
		}
		ae := (*Error)(nil)
		if errors.As(err, &ae) && ae.Code == "GROUP_NOT_FOUND" {
			notFounds++
		}
	}
	if oks != 1 || notFounds != 1 {
		t.Fatalf("oks=%d notFounds=%d errs=%v, want exactly one of each", oks, notFounds, errs)
	}

	if _, err := store.Groups().GetByID(context.Background(), id); !errors.Is(err, groupstore.ErrNotFound) {
		t.Fatalf("group still readable after delete: err=%v", err)
	}
}

func TestService_Delete_NotOwner(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "alice")
	other := seedUser(t, store, "bob")
	id, err := svc.Create(context.Background(), publicInput("trip"), owner)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	err = svc.Delete(context.Background(), id, other)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 403 || ae.Code != "NOT_GROUP_OWNER" {
		t.Fatalf("err=%v, want NOT_GROUP_OWNER 403", err)
	}
}

func TestService_Leave_OwnerBlockedMemberDecrements(t *testing.T) {
	t.Parallel()

	svc, store, clk := newTestService(t)
	owner := seedUser(t, store, "alice")
	member := seedUser(t, store, "bob")
	id, err := svc.Create(context.Background(), publicInput("trip"), owner)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	// Admit bob through the normal approval path.
	if _, err := store.JoinApplies().Create(context.Background(), id, member, clk.Now()); err != nil {
		t.Fatalf("apply err=%v", err)
	}
	if err := store.Groups().ApproveMember(context.Background(), id, owner, member, clk.Now()); err != nil {
		t.Fatalf("approve err=%v", err)
	}

	err = svc.Leave(context.Background(), id, owner)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "OWNER_CANNOT_LEAVE" {
		t.Fatalf("owner leave err=%v, want OWNER_CANNOT_LEAVE 409", err)
	}

	if err := svc.Leave(context.Background(), id, member); err != nil {
		t.Fatalf("member leave err=%v", err)
	}
	g, err := store.Groups().GetByID(context.Background(), id)
	if err != nil || g.CurrentMemberCount != 1 {
		t.Fatalf("count=%d err=%v, want 1 after leave", g.CurrentMemberCount, err)
	}

	// A second leave finds no active membership.
	err = svc.Leave(context.Background(), id, member)
	if !errors.As(err, &ae) || ae.Code != "NOT_GROUP_MEMBER" {
		t.Fatalf("second leave err=%v, want NOT_GROUP_MEMBER", err)
	}
}
