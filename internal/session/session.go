// Package session stores console browser sessions together with the admin
// API tokens issued to them.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/backoffice/internal/apiclient"
)

var ErrNotFound = errors.New("session not found")

// Session is one signed-in console user
type Session struct {
	ID         string
	AdminEmail string
	Tokens     apiclient.Tokens
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store persists sessions. Get returns ErrNotFound for unknown or expired ids.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Cleanup(ctx context.Context) (int, error)
	Close() error
}

// New returns a session with a fresh id expiring after ttl
func New(adminEmail string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New().String(),
		AdminEmail: adminEmail,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

type ctxKey struct{}

// WithID attaches a session id to ctx
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFrom returns the session id carried by ctx
func IDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// ContextTokens adapts a Store to apiclient.TokenStore, resolving the
// session from the request context. fallbackID is used when the context
// carries none (the CLI uses a fixed id).
type ContextTokens struct {
	store      Store
	fallbackID string
	ttl        time.Duration
}

func NewContextTokens(store Store, fallbackID string, ttl time.Duration) *ContextTokens {
	return &ContextTokens{store: store, fallbackID: fallbackID, ttl: ttl}
}

func (c *ContextTokens) id(ctx context.Context) string {
	if id, ok := IDFrom(ctx); ok {
		return id
	}
	return c.fallbackID
}

func (c *ContextTokens) Tokens(ctx context.Context) (apiclient.Tokens, error) {
	id := c.id(ctx)
	if id == "" {
		return apiclient.Tokens{}, nil
	}
	s, err := c.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apiclient.Tokens{}, nil
	}
	if err != nil {
		return apiclient.Tokens{}, err
	}
	return s.Tokens, nil
}

func (c *ContextTokens) SetTokens(ctx context.Context, tokens apiclient.Tokens) error {
	id := c.id(ctx)
	if id == "" {
		return errors.New("no session in context")
	}
	s, err := c.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s = New("", c.ttl)
		s.ID = id
	} else if err != nil {
		return err
	}
	s.Tokens = tokens
	return c.store.Save(ctx, s)
}

func (c *ContextTokens) ClearTokens(ctx context.Context) error {
	id := c.id(ctx)
	if id == "" {
		return nil
	}
	return c.store.Delete(ctx, id)
}
