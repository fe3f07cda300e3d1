package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "voicebot:session:"
	lockKeyPrefix    = "voicebot:lock:"
)

// RedisStore shares sessions and per-call locks across API replicas.
// Every Put refreshes the idle TTL.
type RedisStore struct {
	rdb      *redis.Client
	ttl      time.Duration
	lockTTL  time.Duration
	lockWait time.Duration
	refresh  func(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

func NewRedisStore(rdb *redis.Client, ttl, lockWait time.Duration) *RedisStore {
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	s := &RedisStore{
		rdb:      rdb,
		ttl:      ttl,
		lockTTL:  30 * time.Second,
		lockWait: lockWait,
	}
	s.refresh = func(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
		return utils.RefreshLock(ctx, s.rdb, key, token, ttl)
	}
	return s
}

var errNilRedis = errors.New("dialog: redis client is nil")

func (s *RedisStore) Get(ctx context.Context, callID string) (Session, error) {
	if s.rdb == nil {
		return Session{}, errNilRedis
	}
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+callID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("dialog: redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("dialog: decode session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess Session) error {
	if s.rdb == nil {
		return errNilRedis
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("dialog: encode session: %w", err)
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+sess.CallID, raw, s.ttl).Err()
}

// Lock takes a lease on the call id. The wait budget is the earlier of the
// store's lockWait and the ctx deadline.
func (s *RedisStore) Lock(ctx context.Context, callID string) (func(), error) {
	if s.rdb == nil {
		return nil, errNilRedis
	}
	wait := s.lockWait
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < wait {
			wait = d
		}
	}
	key := lockKeyPrefix + callID
	token := uuid.NewString()
	if err := utils.Lock(ctx, s.rdb, key, token, s.lockTTL, wait); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	go s.keepAlive(key, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			// The turn ctx may already be cancelled; release on a short fresh one.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = utils.Unlock(ctx, s.rdb, key, token)
		})
	}, nil
}

// keepAlive extends the lease every lockTTL/3 until stop closes or the
// lease is lost.
func (s *RedisStore) keepAlive(key, token string, stop <-chan struct{}) {
	t := time.NewTicker(s.lockTTL / 3)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			held, err := s.refresh(ctx, key, token, s.lockTTL)
			cancel()
			if err != nil || !held {
				return
			}
		}
	}
}
