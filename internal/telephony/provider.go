package telephony

import (
	"context"
	"errors"
	"strings"
)

// Instruction is the provider-agnostic answer to one call turn.
// Exactly one of the three shapes is valid:
//   - Speak + Listen: say something and wait for the caller.
//   - Speak + Hangup: say something and end the call.
//   - Dial: bridge the call to another number.
type Instruction struct {
	Speak  string `json:"speak,omitempty"`
	Listen bool   `json:"listen,omitempty"`
	Hangup bool   `json:"hangup,omitempty"`
	Dial   *Dial  `json:"dial,omitempty"`
}

// Dial bridges the active call to an agent contact address.
type Dial struct {
	Number         string `json:"number"`
	TimeoutSeconds int    `json:"timeout"`
	Record         bool   `json:"record"`
}

// DefaultDialTimeoutSeconds is applied when a Dial has no timeout.
const DefaultDialTimeoutSeconds = 30

func SpeakAndListen(text string) Instruction {
	return Instruction{Speak: text, Listen: true}
}

func SpeakAndHangup(text string) Instruction {
	return Instruction{Speak: text, Hangup: true}
}

func DialAgent(number string) Instruction {
	return Instruction{Dial: &Dial{Number: number, TimeoutSeconds: DefaultDialTimeoutSeconds}}
}

var ErrInvalidInstruction = errors.New("telephony: invalid instruction")

// Validate reports whether the instruction is one of the three shapes.
func (in Instruction) Validate() error {
	if in.Dial != nil {
		if in.Speak != "" || in.Listen || in.Hangup {
			return ErrInvalidInstruction
		}
		if strings.TrimSpace(in.Dial.Number) == "" {
			return errors.New("telephony: dial number required")
		}
		return nil
	}
	if strings.TrimSpace(in.Speak) == "" || in.Listen == in.Hangup {
		return ErrInvalidInstruction
	}
	return nil
}

// Utterance is the bot text that gets logged for the turn.
func (in Instruction) Utterance() string {
	if in.Dial != nil {
		return "Connecting you to an agent."
	}
	return in.Speak
}

// Turn is one inbound webhook: the caller's transcript for a call.
type Turn struct {
	CallID     string
	From       string
	Transcript string
}

// TurnHandler turns a caller utterance into the next instruction.
// Implementations never fail; errors are converted to a spoken apology.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn Turn) Instruction
}
