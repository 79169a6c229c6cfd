package travels

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tripleclub/travel-group-api/internal/adapters/memory"
	memclock "github.com/tripleclub/travel-group-api/internal/adapters/memory/clock"
	"github.com/tripleclub/travel-group-api/internal/domain"
)

func setup(t *testing.T) (*Service, *memory.Store, domain.UserID, domain.UserID, domain.GroupID) {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	svc := NewService(store.Itineraries(), store.Groups(), store.Memberships(), store.Users(), clk)

	owner, err := store.Users().Create(ctx, domain.User{Nickname: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	outsider, err := store.Users().Create(ctx, domain.User{Nickname: "bob", Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("seed outsider: %v", err)
	}

	g, err := domain.NewGroup(domain.GroupKindPublic, "trip", "a trip to plan together", "", 5)
	if err != nil {
		t.Fatalf("new group: %v", err)
	}
	groupID, err := store.Groups().CreateWithOwner(ctx, g, owner, clk.Now())
	if err != nil {
		t.Fatalf("seed group: %v", err)
	}

	return svc, store, owner, outsider, groupID
}

func validInput(groupID domain.GroupID) SaveItineraryInput {
	return SaveItineraryInput{
		GroupID:     groupID,
		Title:       "jeju island",
		StartAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC),
		Description: "spring trip",
		MemberLimit: 4,
	}
}

func TestService_SaveItinerary_MemberCreatesWithLeader(t *testing.T) {
	t.Parallel()

	svc, store, owner, _, groupID := setup(t)
	ctx := context.Background()

	id, err := svc.SaveItinerary(ctx, validInput(groupID), owner)
	if err != nil {
		t.Fatalf("SaveItinerary err=%v", err)
	}

	it, err := store.Itineraries().GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID err=%v", err)
	}
	if it.Title != "jeju island" || it.MemberCount != 1 {
		t.Fatalf("it=%+v, want title and creator counted", it)
	}

	its, err := svc.ListByGroup(ctx, groupID, owner)
	if err != nil || len(its) != 1 {
		t.Fatalf("ListByGroup len=%d err=%v, want 1", len(its), err)
	}
}

func TestService_SaveItinerary_Guards(t *testing.T) {
	t.Parallel()

	svc, _, owner, outsider, groupID := setup(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		in     SaveItineraryInput
		caller domain.UserID
		status int
		code   string
	}{
		{"unknown user", validInput(groupID), 999, 404, "TRAVEL_USER_NOT_FOUND"},
		{"unknown group", validInput(999), owner, 404, "TRAVEL_GROUP_NOT_FOUND"},
		{"non-member", validInput(groupID), outsider, 403, "TRAVEL_SAVE_FORBIDDEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SaveItinerary(ctx, tc.in, tc.caller)
			ae := (*Error)(nil)
			if !errors.As(err, &ae) || ae.Status != tc.status || ae.Code != tc.code {
				t.Fatalf("err=%v, want %s %d", err, tc.code, tc.status)
			}
		})
	}
}

func TestService_SaveItinerary_Validation(t *testing.T) {
	t.Parallel()

	svc, _, owner, _, groupID := setup(t)
	ctx := context.Background()

	in := validInput(groupID)
	in.StartAt, in.EndAt = in.EndAt, in.StartAt
	_, err := svc.SaveItinerary(ctx, in, owner)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("err=%v, want VALIDATION_ERROR 422", err)
	}
	if _, ok := ae.Details["startAt"]; !ok {
		t.Fatalf("details=%v, want startAt entry", ae.Details)
	}

	in = validInput(groupID)
	in.MemberLimit = 21
	_, err = svc.SaveItinerary(ctx, in, owner)
	if !errors.As(err, &ae) || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("err=%v, want VALIDATION_ERROR for limit 21", err)
	}
}
