package state

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemoryStore constructs an in-process Store. Entries live for the process lifetime.
func NewMemoryStore() Store {
	return &memoryStore{states: make(map[int64]State)}
}

// Get returns the state for a user if it exists.
func (m *memoryStore) Get(ctx context.Context, userID int64) (State, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[userID]
	return st, ok, nil
}

// Set swaps the user's state under the write lock.
func (m *memoryStore) Set(ctx context.Context, userID int64, st State) (State, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.states[userID]
	m.states[userID] = st
	return prev, nil
}

// Counts groups users by state.
func (m *memoryStore) Counts(ctx context.Context) (map[State]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[State]int)
	for _, st := range m.states {
		out[st]++
	}
	return out, nil
}
