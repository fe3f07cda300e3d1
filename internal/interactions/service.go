package interactions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for interaction records.
// Utterances and summaries are append-only.
type Repository interface {
	Append(ctx context.Context, in Interaction) error
	AppendUnresolved(ctx context.Context, s UnresolvedSummary) error
	ListByCall(ctx context.Context, callID string) ([]Interaction, error)
	ListUnresolved(ctx context.Context, limit int) ([]UnresolvedSummary, error)
}

// Service records the conversation transcript and unresolved handoffs.
// Callers treat it as best-effort; it never changes what the caller hears.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var (
	ErrInvalidInteraction = errors.New("interactions: invalid interaction")
	ErrNotConfigured      = errors.New("interactions: repository not configured")
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (s *Service) Append(ctx context.Context, in Interaction) error {
	if s.repo == nil {
		return ErrNotConfigured
	}
	if in.CallID == "" || in.Text == "" {
		return ErrInvalidInteraction
	}
	if in.Sender != SenderUser && in.Sender != SenderBot {
		return ErrInvalidInteraction
	}
	if !validSessionID(in.SessionID) {
		return ErrInvalidInteraction
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, in)
}

// LogUtterance appends one side of a turn.
func (s *Service) LogUtterance(ctx context.Context, sessionID, callID, customerID string, sender Sender, text, intent, stage string) error {
	return s.Append(ctx, Interaction{
		SessionID:  sessionID,
		CallID:     callID,
		CustomerID: customerID,
		Sender:     sender,
		Text:       text,
		Intent:     intent,
		Stage:      stage,
	})
}

// RecordUnresolved stores a handoff summary; missing ids become "unknown".
func (s *Service) RecordUnresolved(ctx context.Context, sum UnresolvedSummary) error {
	if s.repo == nil {
		return ErrNotConfigured
	}
	if !validSessionID(sum.SessionID) || sum.Summary == "" {
		return ErrInvalidInteraction
	}
	if sum.CustomerID == "" {
		sum.CustomerID = Unknown
	}
	if sum.AccountID == "" {
		sum.AccountID = Unknown
	}
	if sum.ID == "" {
		sum.ID = uuid.NewString()
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = s.clock().UTC()
	}
	return s.repo.AppendUnresolved(ctx, sum)
}

func (s *Service) Transcript(ctx context.Context, callID string) ([]Interaction, error) {
	if s.repo == nil {
		return nil, ErrNotConfigured
	}
	return s.repo.ListByCall(ctx, callID)
}

// Unresolved returns the most recent summaries first.
func (s *Service) Unresolved(ctx context.Context, limit int) ([]UnresolvedSummary, error) {
	if s.repo == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListUnresolved(ctx, limit)
}

// Session ids are stored in UUID columns.
func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
