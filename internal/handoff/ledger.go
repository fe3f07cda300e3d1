package handoff

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// AssignmentLedger records which calls already have an agent bridged.
type AssignmentLedger interface {
	// Claim returns true for the first caller per call id within the ledger TTL.
	Claim(ctx context.Context, callID string) (bool, error)
	Release(ctx context.Context, callID string) error
}

type MemoryLedger struct {
	mu     sync.Mutex
	ttl    time.Duration
	clock  func() time.Time
	claims map[string]time.Time
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{ttl: ttl, clock: time.Now, claims: make(map[string]time.Time)}
}

func (l *MemoryLedger) Claim(_ context.Context, callID string) (bool, error) {
	if callID == "" {
		return false, errors.New("handoff: call id required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if exp, ok := l.claims[callID]; ok && now.Before(exp) {
		return false, nil
	}
	l.claims[callID] = now.Add(l.ttl)
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, callID string) error {
	l.mu.Lock()
	delete(l.claims, callID)
	l.mu.Unlock()
	return nil
}

// Sweep drops expired claims and reports how many were removed.
func (l *MemoryLedger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	n := 0
	for id, exp := range l.claims {
		if !now.Before(exp) {
			delete(l.claims, id)
			n++
		}
	}
	return n
}

const ledgerKeyPrefix = "voicebot:bridge:"

// claimToken marks a bridge claim; the key itself carries the call id.
const claimToken = "bridged"

// RedisLedger shares claims between API replicas.
type RedisLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLedger(rdb *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{rdb: rdb, ttl: ttl}
}

func (l *RedisLedger) Claim(ctx context.Context, callID string) (bool, error) {
	if l.rdb == nil {
		return false, errors.New("handoff: redis client is nil")
	}
	return utils.TryLock(ctx, l.rdb, ledgerKeyPrefix+callID, claimToken, l.ttl)
}

func (l *RedisLedger) Release(ctx context.Context, callID string) error {
	if l.rdb == nil {
		return errors.New("handoff: redis client is nil")
	}
	return utils.Unlock(ctx, l.rdb, ledgerKeyPrefix+callID, claimToken)
}
