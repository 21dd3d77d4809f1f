package apiclient

import (
	"context"
	"sync"
)

// MemoryTokens is a process-wide TokenStore
type MemoryTokens struct {
	mu     sync.RWMutex
	tokens Tokens
}

func NewMemoryTokens(tokens Tokens) *MemoryTokens {
	return &MemoryTokens{tokens: tokens}
}

func (m *MemoryTokens) Tokens(ctx context.Context) (Tokens, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens, nil
}

func (m *MemoryTokens) SetTokens(ctx context.Context, tokens Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	return nil
}

func (m *MemoryTokens) ClearTokens(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	return nil
}
