// Package dialog drives one phone call through greeting, intent capture,
// identity verification and either an account summary or an agent handoff.
package dialog

// Stage is the position of a call in the conversation.
type Stage string

const (
	StageGreeting      Stage = "greeting"
	StageAwaitingQuery Stage = "awaiting_query"
	StageAskAccountID  Stage = "ask_account_id"
	StageHandoffInit   Stage = "handoff_init"
	StageOTPPending    Stage = "otp_pending"
	StageVerified      Stage = "verified"
	StageErrorHangup   Stage = "error_hangup"
)

// Terminal stages end the call; later turns only get an apology.
func (s Stage) Terminal() bool {
	return s == StageVerified || s == StageErrorHangup
}

func (s Stage) Valid() bool {
	switch s {
	case StageGreeting, StageAwaitingQuery, StageAskAccountID, StageHandoffInit,
		StageOTPPending, StageVerified, StageErrorHangup:
		return true
	}
	return false
}
