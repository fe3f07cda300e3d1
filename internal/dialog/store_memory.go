package dialog

import (
	"context"
	"sync"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/observability"
)

// MemoryStore keeps sessions in process. Sessions idle longer than ttl are
// invisible to Get and removed by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	clock    func() time.Time
	sessions map[string]Session
	locks    map[string]*keyLock
	metrics  *observability.Metrics
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func NewMemoryStore(ttl time.Duration, m *observability.Metrics) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]Session),
		locks:    make(map[string]*keyLock),
		metrics:  m,
	}
}

func (s *MemoryStore) Get(_ context.Context, callID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[callID]
	if !ok || s.expired(sess, s.clock()) {
		return Session{}, ErrSessionNotFound
	}
	return sess.clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, sess Session) error {
	s.mu.Lock()
	s.sessions[sess.CallID] = sess.clone()
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)
	return nil
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) expired(sess Session, now time.Time) bool {
	return s.ttl > 0 && !sess.UpdatedAt.IsZero() && now.Sub(sess.UpdatedAt) > s.ttl
}

// Lock blocks until the call id is free or ctx is done.
func (s *MemoryStore) Lock(ctx context.Context, callID string) (func(), error) {
	s.mu.Lock()
	kl, ok := s.locks[callID]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		s.locks[callID] = kl
	}
	kl.refs++
	s.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		s.releaseRef(callID, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			s.releaseRef(callID, kl)
		})
	}, nil
}

func (s *MemoryStore) releaseRef(callID string, kl *keyLock) {
	s.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(s.locks, callID)
	}
	s.mu.Unlock()
}
