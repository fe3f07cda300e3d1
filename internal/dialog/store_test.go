package dialog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/telephony"
)

func TestMemoryStore_TTLAndSweep(t *testing.T) {
	s := NewMemoryStore(time.Minute, nil)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Put(ctx, Session{CallID: "CA1", Stage: StageAwaitingQuery, UpdatedAt: now}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, Session{CallID: "CA2", Stage: StageAwaitingQuery, UpdatedAt: now.Add(50 * time.Second)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = now.Add(90 * time.Second)
	if _, err := s.Get(ctx, "CA1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected idle session hidden, got %v", err)
	}
	if _, err := s.Get(ctx, "CA2"); err != nil {
		t.Fatalf("expected fresh session, got %v", err)
	}
	if n := s.Sweep(now); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one session left, got %d", s.Len())
	}
}

func TestMemoryStore_CopiesPendingDial(t *testing.T) {
	s := NewMemoryStore(time.Minute, nil)
	ctx := context.Background()
	d := &telephony.Dial{Number: "+1555"}
	_ = s.Put(ctx, Session{CallID: "CA1", PendingDial: d, UpdatedAt: time.Now()})
	d.Number = "changed"

	got, err := s.Get(ctx, "CA1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PendingDial.Number != "+1555" {
		t.Fatalf("stored dial aliased caller memory: %q", got.PendingDial.Number)
	}
}

func TestMemoryStore_LockIsPerCall(t *testing.T) {
	s := NewMemoryStore(time.Minute, nil)
	unlock, err := s.Lock(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	other, err := s.Lock(context.Background(), "CA2")
	if err != nil {
		t.Fatalf("other call should not block: %v", err)
	}
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Lock(ctx, "CA1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock()
	again, err := s.Lock(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()

	s.mu.Lock()
	n := len(s.locks)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected lock table to drain, got %d entries", n)
	}
}

func TestRedisStore_NilClient(t *testing.T) {
	s := NewRedisStore(nil, time.Minute, 0)
	if _, err := s.Get(context.Background(), "CA1"); err == nil {
		t.Fatalf("expected error")
	}
	if err := s.Put(context.Background(), Session{CallID: "CA1"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := s.Lock(context.Background(), "CA1"); err == nil {
		t.Fatalf("expected error")
	}
}

type refreshCounter struct {
	mu    sync.Mutex
	calls int
	held  bool
}

func (r *refreshCounter) refresh(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key != "voicebot:lock:CA1" || token != "tok" || ttl != 30*time.Millisecond {
		return false, errors.New("unexpected lease")
	}
	r.calls++
	return r.held, nil
}

func (r *refreshCounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestRedisStore_KeepAliveRefreshesUntilStopped(t *testing.T) {
	rc := &refreshCounter{held: true}
	s := &RedisStore{lockTTL: 30 * time.Millisecond, refresh: rc.refresh}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.keepAlive(lockKeyPrefix+"CA1", "tok", stop)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for rc.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated refreshes, got %d", rc.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("keepalive did not stop")
	}
}

func TestRedisStore_KeepAliveStopsWhenLeaseLost(t *testing.T) {
	rc := &refreshCounter{held: false}
	s := &RedisStore{lockTTL: 30 * time.Millisecond, refresh: rc.refresh}
	done := make(chan struct{})
	go func() {
		s.keepAlive(lockKeyPrefix+"CA1", "tok", make(chan struct{}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("keepalive kept running after the lease was lost")
	}
	if n := rc.count(); n != 1 {
		t.Fatalf("expected a single refresh attempt, got %d", n)
	}
}

func TestStage(t *testing.T) {
	if !StageVerified.Terminal() || !StageErrorHangup.Terminal() || StageOTPPending.Terminal() {
		t.Fatalf("unexpected terminal stages")
	}
	if Stage("bogus").Valid() || !StageHandoffInit.Valid() {
		t.Fatalf("unexpected stage validity")
	}
}
