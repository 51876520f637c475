package store

import (
	"context"
	"testing"
	"time"

	"hashhive-server-go/internal/domain/auth/model"
)

func TestMemoryStoreBasicLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{
		TTL:    time.Second,
		Memory: &MemoryConfig{GCInterval: 10 * time.Millisecond},
	})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	session := model.Session{
		Token:                  "token-basic",
		UserID:                 "user-1",
		Role:                   model.RoleAdmin,
		TwoFactorAuthenticated: true,
	}

	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	stored, ok, err := store.Get(ctx, session.Token)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected session to be found")
	}
	if stored.UserID != session.UserID || stored.Role != session.Role {
		t.Fatalf("unexpected session: %+v", stored)
	}
	if !stored.TwoFactorAuthenticated {
		t.Fatal("expected two-factor flag to round-trip")
	}
	if stored.ExpiresAt.IsZero() {
		t.Fatal("expected TTL-based expiry to be set")
	}

	tokens, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != session.Token {
		t.Fatalf("expected list to include session: %v", tokens)
	}

	if err := store.Remove(ctx, session.Token); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, session.Token); ok {
		t.Fatal("expected session to be gone after removal")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{
		TTL:    20 * time.Millisecond,
		Memory: &MemoryConfig{GCInterval: 5 * time.Millisecond},
	})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	if err := store.Put(ctx, model.Session{Token: "expiring", UserID: "u", Role: model.RoleUser}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, ok, err := store.Get(ctx, "expiring"); err != nil || ok {
		t.Fatalf("expected expired session to be absent, ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreRejectsEmptyToken(t *testing.T) {
	store := NewMemory(Config{TTL: time.Second})
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})

	if err := store.Put(context.Background(), model.Session{UserID: "u"}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{TTL: time.Minute})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	_ = store.Put(ctx, model.Session{Token: "a", UserID: "u", Role: model.RoleUser})
	_ = store.Put(ctx, model.Session{Token: "b", UserID: "v", Role: model.RoleOwner})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats["total"] != 2 {
		t.Fatalf("expected 2 sessions, got %v", stats["total"])
	}
	if stats["type"] != "memory" {
		t.Fatalf("unexpected store type: %v", stats["type"])
	}
}
