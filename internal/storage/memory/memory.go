// Package memory is an in-process storage gateway, used by default and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"finance-tracker/internal/storage"
)

// Store keeps values in a map. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	name   string
	data   map[string]string
	closed bool
}

var _ storage.Gateway = (*Store)(nil)

// New creates an empty store. An empty name defaults to "memory".
func New(name string) *Store {
	if name == "" {
		name = "memory"
	}
	return &Store{name: name, data: make(map[string]string)}
}

// Get returns the value for key or storage.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", storage.ErrUnavailable
	}
	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrUnavailable
	}
	s.data[key] = value
	return nil
}

func (s *Store) Name() string {
	return s.name
}

// Close drops all data; later calls fail with storage.ErrUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}

// Keys lists the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
