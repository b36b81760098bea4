// Package rolecache provides the email-to-role fallback cache. The cache is
// advisory and eventually consistent: it is written through on every
// successful sync and consulted only when the business API is unreachable
// during login. It is never a source of truth.
package rolecache

import (
	"context"
	"strings"
	"sync"

	"barberia_backend/internal/auth/roles"
)

// Store is the role cache contract. Get never fails: a missing entry,
// unreachable backing store, or corrupt blob all read as a miss.
type Store interface {
	// Put records the role last used for a successful sync of the email.
	Put(ctx context.Context, email string, role roles.RoleID) error
	// Get returns the cached role for the email, if any.
	Get(ctx context.Context, email string) (roles.RoleID, bool)
}

// NormalizeEmail canonicalizes cache keys: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Memory is an in-process Store used in tests and as a degraded-mode
// stand-in when Redis is not configured.
type Memory struct {
	mu    sync.RWMutex
	entry map[string]string
}

// NewMemory creates an empty in-memory role cache.
func NewMemory() *Memory {
	return &Memory{entry: make(map[string]string)}
}

// Put stores the role under the normalized email.
func (m *Memory) Put(_ context.Context, email string, role roles.RoleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry[NormalizeEmail(email)] = role.Name()
	return nil
}

// Get looks up the role for the normalized email.
func (m *Memory) Get(_ context.Context, email string) (roles.RoleID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, ok := m.entry[NormalizeEmail(email)]
	if !ok {
		return 0, false
	}
	return roles.FromName(name)
}

var _ Store = (*Memory)(nil)
