// Copyright 2025 Certen Protocol

package kvdb

import "sync"

// MemoryKV is a simple in-memory implementation of the KV interface. Used by
// tests and by hosts that keep the record set ephemeral.
type MemoryKV struct {
	store map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{store: make(map[string][]byte)}
}

// Get implements KV.Get
func (m *MemoryKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if value, exists := m.store[string(key)]; exists {
		return value, nil
	}
	return nil, nil
}

// Set implements KV.Set
func (m *MemoryKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.store[string(key)] = cp
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}
