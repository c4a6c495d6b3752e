// Package secret stores the bot token outside the configuration file.
package secret

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
)

// BotTokenKey is the name the bot token is stored under.
const BotTokenKey = "tgpost.bot_token"

// BotTokenEnv overrides the stored bot token when set.
const BotTokenEnv = "TGPOST_BOT_TOKEN"

// ErrNotFound is returned by Get when no secret is stored under the name.
var ErrNotFound = errors.New("secret: not found")

// Store keeps named secrets.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

// envStore answers Get from the environment before falling back.
type envStore struct {
	Store
	name   string
	envVar string
	lookup func(string) (string, bool)
}

// WithEnv returns a Store whose Get for name prefers the non-blank value
// of envVar. Set and Delete always reach the underlying store.
func WithEnv(store Store, name, envVar string) Store {
	return &envStore{Store: store, name: name, envVar: envVar, lookup: os.LookupEnv}
}

func (s *envStore) Get(ctx context.Context, name string) (string, error) {
	if name == s.name {
		if v, ok := s.lookup(s.envVar); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return s.Store.Get(ctx, name)
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{secrets: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.secrets[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = value
	return nil
}

// Delete implements Store. Deleting a missing secret is a no-op.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, name)
	return nil
}
