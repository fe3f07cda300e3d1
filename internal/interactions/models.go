package interactions

import "time"

// Interaction is an immutable, append-only utterance record for a call.
//
// Invariants:
// - Records are never updated or deleted.
// - call_id and sender are required.
// - Stage is the dialog stage active when the text was produced.
type Interaction struct {
	ID         string `json:"id" db:"interaction_id"`
	SessionID  string `json:"session_id" db:"session_id"`
	CallID     string `json:"call_id" db:"call_id"`
	CustomerID string `json:"customer_id,omitempty" db:"customer_id"`

	Sender Sender `json:"sender" db:"sender"`
	Text   string `json:"message_text" db:"message_text"`

	Intent string `json:"intent,omitempty" db:"intent"`
	Stage  string `json:"stage,omitempty" db:"stage"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// UnresolvedSummary is recorded when a call is handed to a human agent.
type UnresolvedSummary struct {
	ID         string    `json:"id" db:"id"`
	CustomerID string    `json:"customer_id" db:"customer_id"`
	AccountID  string    `json:"account_id" db:"account_id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	CallID     string    `json:"call_id" db:"call_id"`
	Summary    string    `json:"summary" db:"summary"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Unknown fills identifiers the caller never provided.
const Unknown = "unknown"
