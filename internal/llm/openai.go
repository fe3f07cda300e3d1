package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

// OpenAI invokes any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	client *openai.Client
}

func NewOpenAI(apiKey, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("llm: openai api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	req = req.withDefaults()
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: openAISampling(*req.Temperature),
		TopP:        openAISampling(*req.TopP),
	})
	if err != nil {
		return "", fmt.Errorf("llm: openai: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// openAISampling keeps an explicit zero on the wire; the client drops
// zero-valued sampling fields and the API then applies its own default.
func openAISampling(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}
