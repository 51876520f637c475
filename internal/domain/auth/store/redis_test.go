package store

import (
	"context"
	"testing"
	"time"

	"hashhive-server-go/internal/domain/auth/model"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedis(Config{
		TTL: time.Second,
		Redis: &RedisConfig{
			Addr: mr.Addr(),
		},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	session := model.Session{
		Token:                  "redis-session",
		UserID:                 "user-9",
		Role:                   model.RoleOwner,
		TwoFactorAuthenticated: true,
	}
	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, ok, err := store.Get(ctx, session.Token)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !ok {
		t.Fatal("expected session to be found")
	}
	if got.UserID != session.UserID || got.Role != model.RoleOwner {
		t.Fatalf("unexpected session: %+v", got)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0] != session.Token {
		t.Fatalf("unexpected list: %v", list)
	}

	if err := store.Remove(ctx, session.Token); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, session.Token); ok {
		t.Fatal("expected session to be gone after removal")
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedis(Config{
		TTL:   50 * time.Millisecond,
		Redis: &RedisConfig{Addr: mr.Addr()},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	if err := store.Put(ctx, model.Session{Token: "short", UserID: "u", Role: model.RoleUser}); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	mr.FastForward(time.Second)

	if _, ok, _ := store.Get(ctx, "short"); ok {
		t.Fatal("expected session to expire")
	}
}
