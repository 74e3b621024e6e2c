package botmock

import (
	"context"
	"errors"
	"testing"

	domain "github.com/andreolf/clawloan/internal/domain/bot"
)

func TestRepo_GetPermission(t *testing.T) {
	ctx := context.Background()
	want := &domain.Permission{BotID: "b1", Status: domain.PermissionActive}

	called := false
	m := &Repo{
		GetPermissionFn: func(gotCtx context.Context, botID string) (*domain.Permission, error) {
			called = true
			if gotCtx != ctx || botID != "b1" {
				t.Fatalf("args mismatch")
			}
			return want, nil
		},
	}
	got, err := m.GetPermission(ctx, "b1")
	if err != nil || got != want || !called {
		t.Fatalf("GetPermission: got %+v err=%v called=%v", got, err, called)
	}

	m = &Repo{}
	if _, err := m.GetPermission(ctx, "b1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("default: want context.Canceled, got %v", err)
	}
}

func TestRepo_WritesDefaultToNoop(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if err := m.Create(ctx, &domain.Bot{}); err != nil {
		t.Fatalf("Create default: %v", err)
	}
	if err := m.SavePermission(ctx, &domain.Permission{}); err != nil {
		t.Fatalf("SavePermission default: %v", err)
	}

	boom := errors.New("boom")
	m.SaveFn = func(context.Context, *domain.Bot) error { return boom }
	if err := m.Save(ctx, &domain.Bot{}); !errors.Is(err, boom) {
		t.Fatalf("Save: want boom, got %v", err)
	}
}
