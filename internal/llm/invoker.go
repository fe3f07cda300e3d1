// Package llm classifies caller intent and phrases account summaries with a
// hosted language model. Providers sit behind the Invoker interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/config"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/observability"
)

// Request is one single-turn completion.
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	// Nil sampling settings take the defaults; an explicit zero is kept.
	Temperature *float64
	TopP        *float64
	Purpose     Purpose
}

// Float returns a pointer to v for the optional Request fields.
func Float(v float64) *float64 { return &v }

type Purpose string

const (
	PurposeIntent   Purpose = "intent"
	PurposeResponse Purpose = "response"
)

const (
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.5
	DefaultTopP        = 0.9
)

func (r Request) withDefaults() Request {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature == nil {
		r.Temperature = Float(DefaultTemperature)
	}
	if r.TopP == nil {
		r.TopP = Float(DefaultTopP)
	}
	return r
}

// Invoker completes a prompt and returns the model's text.
type Invoker interface {
	Complete(ctx context.Context, req Request) (string, error)
}

var ErrEmptyCompletion = errors.New("llm: empty completion")

// Instrumented records latency and outcome for every call to Inner.
type Instrumented struct {
	Inner    Invoker
	Provider string
	Metrics  *observability.Metrics
}

func (i Instrumented) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := i.Inner.Complete(ctx, req)
	i.Metrics.LLMRequest(i.Provider, string(req.Purpose), err, time.Since(start))
	return out, err
}

// NewInvoker builds the provider named in cfg.
func NewInvoker(ctx context.Context, cfg config.LLMConfig, m *observability.Metrics) (Invoker, error) {
	var (
		inner Invoker
		err   error
	)
	switch cfg.Provider {
	case config.ProviderBedrock, "":
		inner, err = NewBedrock(ctx, BedrockConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			SessionToken:    cfg.AWSSessionToken,
		})
	case config.ProviderAnthropic:
		inner, err = NewAnthropic(cfg.AnthropicAPIKey, "")
	case config.ProviderOpenAI:
		inner, err = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderBedrock
	}
	return Instrumented{Inner: inner, Provider: provider, Metrics: m}, nil
}
