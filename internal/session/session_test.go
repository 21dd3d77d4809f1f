package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foxzi/backoffice/internal/apiclient"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "sessions.db"), testSecret)
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreSaveGet(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	sess := New("admin@example.com", time.Hour)
	sess.Tokens = apiclient.Tokens{AccessToken: "access", RefreshToken: "refresh"}

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AdminEmail != "admin@example.com" {
		t.Errorf("AdminEmail = %q", got.AdminEmail)
	}
	if got.Tokens != sess.Tokens {
		t.Errorf("Tokens = %+v, want %+v", got.Tokens, sess.Tokens)
	}
}

func TestBoltStoreGetMissing(t *testing.T) {
	store := newTestBoltStore(t)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestBoltStoreExpired(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	sess := New("admin@example.com", time.Hour)
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	removed, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup() removed %d, want the expired record", removed)
	}
}

func TestBoltStoreCountAndCleanup(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	live := New("a@example.com", time.Hour)
	stale := New("b@example.com", time.Hour)
	stale.ExpiresAt = time.Now().Add(-time.Minute)

	for _, s := range []*Session{live, stale} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	removed, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}
	if _, err := store.Get(ctx, live.ID); err != nil {
		t.Errorf("live session lost: %v", err)
	}
}

func TestBoltStoreWrongSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := NewBoltStore(path, testSecret)
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	sess := New("admin@example.com", time.Hour)
	sess.Tokens.AccessToken = "secret-token"
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	store.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read db: %v", err)
	}
	if bytes.Contains(data, []byte("secret-token")) {
		t.Error("token stored in plaintext")
	}

	other, err := NewBoltStore(path, "ffffffffffffffffffffffffffffffff")
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	defer other.Close()

	if _, err := other.Get(ctx, sess.ID); err == nil {
		t.Error("Get() with wrong secret succeeded")
	}
}

func TestContextTokens(t *testing.T) {
	store := newTestBoltStore(t)
	tokens := NewContextTokens(store, "", time.Hour)

	sess := New("admin@example.com", time.Hour)
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	ctx := WithID(context.Background(), sess.ID)

	got, err := tokens.Tokens(ctx)
	if err != nil {
		t.Fatalf("Tokens() error = %v", err)
	}
	if got.AccessToken != "" {
		t.Errorf("AccessToken = %q, want empty", got.AccessToken)
	}

	want := apiclient.Tokens{AccessToken: "a", RefreshToken: "r"}
	if err := tokens.SetTokens(ctx, want); err != nil {
		t.Fatalf("SetTokens() error = %v", err)
	}
	if got, _ := tokens.Tokens(ctx); got != want {
		t.Errorf("Tokens() = %+v, want %+v", got, want)
	}

	stored, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.AdminEmail != "admin@example.com" {
		t.Errorf("SetTokens dropped AdminEmail: %q", stored.AdminEmail)
	}

	if err := tokens.ClearTokens(ctx); err != nil {
		t.Fatalf("ClearTokens() error = %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("session still present after ClearTokens: %v", err)
	}
}

func TestContextTokensWithoutSession(t *testing.T) {
	tokens := NewContextTokens(newTestBoltStore(t), "", time.Hour)

	got, err := tokens.Tokens(context.Background())
	if err != nil || got.AccessToken != "" {
		t.Errorf("Tokens() = %+v, %v", got, err)
	}
	if err := tokens.SetTokens(context.Background(), apiclient.Tokens{AccessToken: "x"}); err == nil {
		t.Error("SetTokens() without session succeeded")
	}
}

func TestContextTokensFallbackID(t *testing.T) {
	tokens := NewContextTokens(newTestBoltStore(t), "cli", time.Hour)
	ctx := context.Background()

	if err := tokens.SetTokens(ctx, apiclient.Tokens{AccessToken: "cli-token"}); err != nil {
		t.Fatalf("SetTokens() error = %v", err)
	}
	got, err := tokens.Tokens(ctx)
	if err != nil {
		t.Fatalf("Tokens() error = %v", err)
	}
	if got.AccessToken != "cli-token" {
		t.Errorf("AccessToken = %q, want cli-token", got.AccessToken)
	}
}
