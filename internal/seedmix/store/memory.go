package store

import (
	"context"
	"sync"
)

type memKey struct {
	save uint64
	key  string
}

// Memory is an ephemeral Store for tests and single-process sessions.
type Memory struct {
	mu     sync.RWMutex
	data   map[memKey][]byte
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: make(map[memKey][]byte)}
}

func (m *Memory) Get(_ context.Context, saveID uint64, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[memKey{saveID, key}]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Put(_ context.Context, saveID uint64, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[memKey{saveID, key}] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
