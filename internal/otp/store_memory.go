package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	codes  map[int64]Code
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[int64]Code)}
}

func (m *MemoryStore) Save(_ context.Context, c Code) (Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.codes[c.ID] = c
	return c, nil
}

func (m *MemoryStore) LatestActive(_ context.Context, phone string, now time.Time) (Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best Code
	found := false
	for _, c := range m.codes {
		if c.Phone != phone || !c.ExpiresAt.After(now) {
			continue
		}
		if !found || c.CreatedAt.After(best.CreatedAt) || (c.CreatedAt.Equal(best.CreatedAt) && c.ID > best.ID) {
			best, found = c, true
		}
	}
	if !found {
		return Code{}, ErrNoActiveCode
	}
	return best, nil
}

func (m *MemoryStore) Consume(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[id]; !ok {
		return ErrNoActiveCode
	}
	delete(m.codes, id)
	return nil
}

func (m *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.codes {
		if !c.ExpiresAt.After(now) {
			delete(m.codes, id)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored codes, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}
