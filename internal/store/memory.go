package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store. Each Get and Set is atomic; nothing spans calls.
type Memory struct {
	mu      sync.Mutex
	values  map[string][]byte
	failErr error
	closed  bool
	sets    int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get returns copies of the requested values.
func (m *Memory) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if v, ok := m.values[key]; ok {
			out[key] = append(json.RawMessage(nil), v...)
		}
	}
	return out, nil
}

// Set stores copies of all values at once, or none of them.
func (m *Memory) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.failErr != nil {
		return m.failErr
	}
	for key, v := range values {
		m.values[key] = append([]byte(nil), v...)
	}
	m.sets++
	return nil
}

// FailWrites makes every later Set return err. Pass nil to recover.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

// Writes reports how many Set calls succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Close marks the store unusable.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
