package telephony

import (
	"net/http"
	"strings"
)

// VoiceWebhookForm captures the subset of voice webhook fields the dialog uses.
// Vendors post application/x-www-form-urlencoded; SpeechResult carries the
// transcript gathered on the previous turn and is empty on the first one.
type VoiceWebhookForm struct {
	CallSid      string
	From         string
	To           string
	CallStatus   string
	SpeechResult string
	Digits       string
	Confidence   string
}

func ParseVoiceWebhook(r *http.Request) (VoiceWebhookForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceWebhookForm{}, err
	}
	return VoiceWebhookForm{
		CallSid:      strings.TrimSpace(r.PostFormValue("CallSid")),
		From:         normalizePhone(r.PostFormValue("From")),
		To:           normalizePhone(r.PostFormValue("To")),
		CallStatus:   r.PostFormValue("CallStatus"),
		SpeechResult: r.PostFormValue("SpeechResult"),
		Digits:       r.PostFormValue("Digits"),
		Confidence:   r.PostFormValue("Confidence"),
	}, nil
}

// Transcript prefers recognized speech and falls back to keypad digits.
func (f VoiceWebhookForm) Transcript() string {
	if strings.TrimSpace(f.SpeechResult) != "" {
		return f.SpeechResult
	}
	return f.Digits
}

func (f VoiceWebhookForm) ToTurn() Turn {
	return Turn{CallID: f.CallSid, From: f.From, Transcript: f.Transcript()}
}

// WorkerMessageForm is an inbound SMS sent by an agent to change status.
type WorkerMessageForm struct {
	From string
	Body string
}

func ParseWorkerMessage(r *http.Request) (WorkerMessageForm, error) {
	if err := r.ParseForm(); err != nil {
		return WorkerMessageForm{}, err
	}
	return WorkerMessageForm{
		From: normalizePhone(r.PostFormValue("From")),
		Body: r.PostFormValue("Body"),
	}, nil
}

// RoutingEventForm is a TaskRouter event callback.
type RoutingEventForm struct {
	EventType   string
	TaskSid     string
	WorkerSid   string
	Description string
}

func ParseRoutingEvent(r *http.Request) (RoutingEventForm, error) {
	if err := r.ParseForm(); err != nil {
		return RoutingEventForm{}, err
	}
	return RoutingEventForm{
		EventType:   r.PostFormValue("EventType"),
		TaskSid:     r.PostFormValue("TaskSid"),
		WorkerSid:   r.PostFormValue("WorkerSid"),
		Description: r.PostFormValue("EventDescription"),
	}, nil
}

func normalizePhone(s string) string {
	trimmed := strings.TrimSpace(s)
	// Form decoding turns an unescaped "+" into a space.
	if strings.HasPrefix(s, " ") && trimmed != "" && strings.Trim(trimmed, "0123456789") == "" {
		return "+" + trimmed
	}
	return trimmed
}
