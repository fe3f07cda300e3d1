package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.TurnHandled("awaiting_query", "listen", 20*time.Millisecond)
	m.LLMRequest("bedrock", "intent", nil, time.Second)
	m.LLMRequest("bedrock", "intent", errors.New("throttled"), time.Second)
	m.OTPEvent("issued")
	m.Assignment("accept")
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.turns.WithLabelValues("awaiting_query", "listen")); got != 1 {
		t.Fatalf("expected 1 turn, got %v", got)
	}
	if got := testutil.ToFloat64(m.llmRequests.WithLabelValues("bedrock", "intent", "error")); got != 1 {
		t.Fatalf("expected 1 failed llm request, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 3 {
		t.Fatalf("expected gauge 3, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.TurnHandled("greeting", "listen", 0)
	m.Handoff("created")
	m.WorkerCommand("ok")
}

func TestNewTracer_NoEndpointIsNoop(t *testing.T) {
	tr, shutdown := NewTracer(context.Background(), TraceConfig{})
	_, span := tr.Start(context.Background(), "turn")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}
