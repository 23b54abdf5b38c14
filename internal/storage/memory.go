package storage

import (
	"context"
	"sync"
)

// Ensure Memory implements Provider
var _ Provider = (*Memory)(nil)

// Memory is an in-process Provider. Data is lost on restart; it backs tests
// and deployments that do not configure a database path.
type Memory struct {
	mu     sync.Mutex
	scopes map[string]map[string]string
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{scopes: make(map[string]map[string]string)}
}

// Scope returns the Storage for sessionID.
func (m *Memory) Scope(sessionID string) Storage {
	return &memoryScope{parent: m, id: sessionID}
}

// Drop removes everything stored for sessionID.
func (m *Memory) Drop(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, sessionID)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

type memoryScope struct {
	parent *Memory
	id     string
}

func (s *memoryScope) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	value, ok := s.parent.scopes[s.id][key]
	return value, ok, nil
}

func (s *memoryScope) SetItem(ctx context.Context, key, value string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	scope, ok := s.parent.scopes[s.id]
	if !ok {
		scope = make(map[string]string)
		s.parent.scopes[s.id] = scope
	}
	scope[key] = value
	return nil
}

func (s *memoryScope) RemoveItem(ctx context.Context, key string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	delete(s.parent.scopes[s.id], key)
	return nil
}

func (s *memoryScope) Clear(ctx context.Context) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	delete(s.parent.scopes, s.id)
	return nil
}
