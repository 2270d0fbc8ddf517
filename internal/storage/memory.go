package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. Values are lost on restart.
type Memory struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{scopes: make(map[string]map[string]string)}
}

// Scope returns the store for scope.
func (m *Memory) Scope(scope string) Store {
	return &memoryScope{m: m, scope: scope}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

type memoryScope struct {
	m     *Memory
	scope string
}

func (s *memoryScope) Get(_ context.Context, key string) (string, bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	v, ok := s.m.scopes[s.scope][key]
	return v, ok, nil
}

func (s *memoryScope) Set(_ context.Context, key, value string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	kv, ok := s.m.scopes[s.scope]
	if !ok {
		kv = make(map[string]string)
		s.m.scopes[s.scope] = kv
	}
	kv[key] = value
	return nil
}

func (s *memoryScope) Delete(_ context.Context, key string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.scopes[s.scope], key)
	return nil
}
