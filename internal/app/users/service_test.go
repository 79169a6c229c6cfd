package users

import (
	"context"
	"errors"
	"testing"

	"github.com/tripleclub/travel-group-api/internal/adapters/memory"
	"github.com/tripleclub/travel-group-api/internal/domain"
)

func TestService_Info(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc := NewService(store.Users())
	ctx := context.Background()

	id, err := store.Users().Create(ctx, domain.User{Nickname: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	u, err := svc.Info(ctx, id)
	if err != nil || u.Nickname != "alice" {
		t.Fatalf("u=%+v err=%v", u, err)
	}

	_, err = svc.Info(ctx, 999)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "USER_NOT_FOUND" {
		t.Fatalf("err=%v, want USER_NOT_FOUND 404", err)
	}
}
