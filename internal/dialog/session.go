package dialog

import (
	"context"
	"errors"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/customers"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/telephony"
)

// Session is the per-call conversation state.
//
// Invariants:
// - One session per call id.
// - Identity fields are written once, on the first successful account lookup.
// - SessionID is generated on creation and differs from CallID.
type Session struct {
	CallID    string `json:"call_id"`
	SessionID string `json:"session_id"`
	Stage     Stage  `json:"stage"`
	Intent    string `json:"intent,omitempty"`

	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	CallerNumber string `json:"caller_number,omitempty"`

	WorkItemID  string          `json:"work_item_id,omitempty"`
	PendingDial *telephony.Dial `json:"pending_dial,omitempty"`
	Bridged     bool            `json:"bridged,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// setIdentity records the verified-to-be customer. A second call is a no-op.
func (s *Session) setIdentity(c customers.Customer) {
	if s.CustomerID != "" {
		return
	}
	s.CustomerID = c.ID
	s.CustomerName = c.FullName
	s.AccountID = c.AccountID
	s.PhoneNumber = c.PhoneNumber
}

func (s Session) customer() customers.Customer {
	return customers.Customer{
		ID:          s.CustomerID,
		FullName:    s.CustomerName,
		PhoneNumber: s.PhoneNumber,
		AccountID:   s.AccountID,
	}
}

// clone copies the session so stored values never alias caller memory.
func (s Session) clone() Session {
	if s.PendingDial != nil {
		d := *s.PendingDial
		s.PendingDial = &d
	}
	return s
}

var ErrSessionNotFound = errors.New("dialog: session not found")

// Store persists sessions between webhook turns.
type Store interface {
	Get(ctx context.Context, callID string) (Session, error)
	Put(ctx context.Context, s Session) error
}

// Locker serializes turns for one call id. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, callID string) (func(), error)
}
