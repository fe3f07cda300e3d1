package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/observability"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/speech"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"
)

const (
	CodeLength = 6
	DefaultTTL = 5 * time.Minute
)

// Service issues and verifies one-time codes.
//
// Invariants:
// - A code is persisted before dispatch is attempted.
// - A code verifies at most once, and only before it expires.
// - Failed attempts leave the code in place.
type Service struct {
	store   Store
	sender  Sender
	ttl     time.Duration
	clock   func() time.Time
	rand    io.Reader
	metrics *observability.Metrics
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(clock func() time.Time) Option { return func(s *Service) { s.clock = clock } }

func WithRand(r io.Reader) Option { return func(s *Service) { s.rand = r } }

func WithMetrics(m *observability.Metrics) Option { return func(s *Service) { s.metrics = m } }

func NewService(store Store, sender Sender, opts ...Option) *Service {
	s := &Service{store: store, sender: sender, ttl: DefaultTTL, clock: time.Now, rand: rand.Reader}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue generates, persists and dispatches a new code for phone.
// On dispatch failure the error wraps ErrDispatchFailed and the stored code
// remains valid until it expires.
func (s *Service) Issue(ctx context.Context, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrInvalidPhone
	}
	value, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("otp: generate: %w", err)
	}

	now := s.clock().UTC()
	if _, err := s.store.Save(ctx, Code{Phone: phone, Value: value, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}); err != nil {
		return "", fmt.Errorf("otp: save: %w", err)
	}
	s.metrics.OTPEvent("issued")

	if err := s.sender.Send(ctx, phone, MessageBody(value, s.ttl)); err != nil {
		s.metrics.OTPEvent("dispatch_failed")
		logger.From(ctx).Warn("otp dispatch failed", slog.String("phone", speech.MaskPhone(phone)), slog.Any("err", err))
		return value, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	return value, nil
}

// Verify reports whether candidate matches the latest active code for phone.
// A match consumes the code.
func (s *Service) Verify(ctx context.Context, phone, candidate string) (bool, error) {
	code, err := s.store.LatestActive(ctx, phone, s.clock().UTC())
	if errors.Is(err, ErrNoActiveCode) {
		s.metrics.OTPEvent("rejected")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("otp: lookup: %w", err)
	}
	if code.Value != candidate {
		s.metrics.OTPEvent("rejected")
		return false, nil
	}
	if err := s.store.Consume(ctx, code.ID); err != nil {
		if errors.Is(err, ErrNoActiveCode) {
			// Consumed concurrently by another turn.
			s.metrics.OTPEvent("rejected")
			return false, nil
		}
		return false, fmt.Errorf("otp: consume: %w", err)
	}
	s.metrics.OTPEvent("verified")
	return true, nil
}

// Purge deletes expired codes.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	return s.store.PurgeExpired(ctx, s.clock().UTC())
}

// generate draws uniform digits; bytes >= 250 are rejected to avoid modulo bias.
func (s *Service) generate() (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for b.Len() < CodeLength {
		if _, err := io.ReadFull(s.rand, buf); err != nil {
			return "", err
		}
		if buf[0] >= 250 {
			continue
		}
		b.WriteByte('0' + buf[0]%10)
	}
	return b.String(), nil
}

// MessageBody is the SMS text carrying the code.
func MessageBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your OTP for financial bot is: %s. It is valid for %d minutes. Do not share this with anyone.", code, int(ttl.Minutes()))
}
