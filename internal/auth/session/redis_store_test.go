package session

import (
	"context"
	"testing"
	"time"

	"barberia_backend/internal/auth/roles"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl), mr
}

func testUser() User {
	return User{
		ID:          7,
		Name:        "Ana Diaz",
		Email:       "ana@example.com",
		Role:        roles.RoleCliente,
		ProviderUID: "uid-1",
		IDToken:     "tok-1",
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	sessionID, err := store.Create(ctx, testUser())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sessionID == "" {
		t.Fatal("empty session ID")
	}

	user, err := store.Get(ctx, sessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user == nil {
		t.Fatal("session not found after create")
	}
	if *user != testUser() {
		t.Fatalf("user = %#v, want %#v", *user, testUser())
	}
}

func TestRedisStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	user, err := store.Get(context.Background(), "no-such-session")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user != nil {
		t.Fatalf("user = %#v, want nil", user)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	sessionID, err := store.Create(ctx, testUser())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	user, err := store.Get(ctx, sessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user != nil {
		t.Fatal("session survived its TTL")
	}
}

func TestRedisStoreUpdateAndDelete(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	sessionID, err := store.Create(ctx, testUser())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated := testUser()
	updated.FotoPerfil = "https://cdn.example.com/ana.jpg"
	if err := store.Update(ctx, sessionID, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	user, err := store.Get(ctx, sessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user == nil || user.FotoPerfil != updated.FotoPerfil {
		t.Fatalf("user after update = %#v", user)
	}

	if err := store.Delete(ctx, sessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	user, err = store.Get(ctx, sessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user != nil {
		t.Fatal("session survived delete")
	}

	// Deleting a missing session is not an error.
	if err := store.Delete(ctx, sessionID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}
