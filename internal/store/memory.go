package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process key-value store with the same semantics as Store.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

// Get returns the value stored under key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	return m.SetMany(ctx, map[string]string{key: value})
}

// SetMany stores all values at once.
func (m *Memory) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

// Keys lists stored keys in order.
func (m *Memory) Keys(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
