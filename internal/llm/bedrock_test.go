package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

type fakeConverser struct {
	in  *bedrockruntime.ConverseInput
	out *bedrockruntime.ConverseOutput
	err error
}

func (f *fakeConverser) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestBedrock_Complete(t *testing.T) {
	fake := &fakeConverser{out: &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role:    types.ConversationRoleAssistant,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "query_emi"}},
		}},
	}}
	b := &Bedrock{client: fake}

	out, err := b.Complete(context.Background(), Request{Model: "anthropic.claude-3-haiku", System: "classify", Prompt: "emi?"})
	if err != nil || out != "query_emi" {
		t.Fatalf("unexpected completion %q (%v)", out, err)
	}
	if *fake.in.ModelId != "anthropic.claude-3-haiku" || len(fake.in.System) != 1 {
		t.Fatalf("unexpected input %+v", fake.in)
	}
	cfg := fake.in.InferenceConfig
	if *cfg.MaxTokens != DefaultMaxTokens || *cfg.Temperature != 0.5 || *cfg.TopP != 0.9 {
		t.Fatalf("unexpected inference config %+v", cfg)
	}
}

func TestBedrock_ExplicitZeroTemperature(t *testing.T) {
	fake := &fakeConverser{out: &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "ok"}},
		}},
	}}
	req := Request{Model: "m", Prompt: "p", Temperature: Float(0), TopP: Float(0.2)}
	if _, err := (&Bedrock{client: fake}).Complete(context.Background(), req); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	cfg := fake.in.InferenceConfig
	if *cfg.Temperature != 0 || *cfg.TopP != float32(0.2) {
		t.Fatalf("expected temperature 0 and top_p 0.2, got %v %v", *cfg.Temperature, *cfg.TopP)
	}
}

func TestBedrock_APIErrorCode(t *testing.T) {
	fake := &fakeConverser{err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}}
	_, err := (&Bedrock{client: fake}).Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "ThrottlingException") {
		t.Fatalf("expected error code in message, got %v", err)
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped api error")
	}
}

func TestBedrock_EmptyOutput(t *testing.T) {
	fake := &fakeConverser{out: &bedrockruntime.ConverseOutput{}}
	if _, err := (&Bedrock{client: fake}).Complete(context.Background(), Request{Model: "m", Prompt: "p"}); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected empty completion, got %v", err)
	}
}
