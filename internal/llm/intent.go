package llm

import (
	"context"
	"fmt"
	"strings"
)

// Intent is the closed set of caller intents.
type Intent string

const (
	IntentQueryEMI  Intent = "query_emi"
	IntentLiveAgent Intent = "live_agent_request"
	IntentUnclear   Intent = "unclear"
)

const intentSystemPrompt = `You are an intent classification system. Analyze the user's query to determine their primary intent.
Possible intents are:
- 'query_emi': The user is asking about their EMI (Equated Monthly Installment) or loan details.
- 'live_agent_request': The user explicitly wants to talk to a human agent, connect to support, or speak with a representative.
- 'unclear': The intent cannot be clearly determined from the query or falls outside the defined intents.

Respond with ONLY the intent name (e.g., 'query_emi', 'live_agent_request', 'unclear').
Do not include any other text, explanation, or punctuation.`

// NormalizeIntent maps raw model output onto the closed set.
// query_emi wins if both labels appear.
func NormalizeIntent(raw string) Intent {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, string(IntentQueryEMI)):
		return IntentQueryEMI
	case strings.Contains(s, string(IntentLiveAgent)):
		return IntentLiveAgent
	default:
		return IntentUnclear
	}
}

// Classifier labels one utterance.
type Classifier struct {
	Invoker Invoker
	Model   string
}

// Classify returns an error only when the model could not be reached.
func (c Classifier) Classify(ctx context.Context, utterance string) (Intent, error) {
	out, err := c.Invoker.Complete(ctx, Request{
		Model:   c.Model,
		System:  intentSystemPrompt,
		Prompt:  fmt.Sprintf("User query: %q", utterance),
		Purpose: PurposeIntent,
	})
	if err != nil {
		return IntentUnclear, err
	}
	return NormalizeIntent(out), nil
}
