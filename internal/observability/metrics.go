// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the voice bot. All recorder methods are safe on a nil *Metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voicebot"

// Metrics groups every collector the service exports.
type Metrics struct {
	turns          *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	llmRequests    *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	otpEvents      *prometheus.CounterVec
	handoffs       *prometheus.CounterVec
	assignments    *prometheus.CounterVec
	workerCommands *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewMetrics registers collectors on reg. Pass prometheus.DefaultRegisterer
// in the service and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Call turns handled, by resulting stage and outcome.",
		}, []string{"stage", "outcome"}),
		turnLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time spent producing the instruction for a turn.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
		}, []string{"stage"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Model invocations by provider, purpose and status.",
		}, []string{"provider", "purpose", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Model invocation latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
		}, []string{"provider", "purpose"}),
		otpEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_events_total",
			Help:      "One-time code lifecycle events.",
		}, []string{"event"}),
		handoffs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoff_requests_total",
			Help:      "Work items requested for a human agent, by result.",
		}, []string{"result"}),
		assignments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_callbacks_total",
			Help:      "Assignment callbacks answered, by instruction.",
		}, []string{"instruction"}),
		workerCommands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_status_commands_total",
			Help:      "Worker status change requests, by result.",
		}, []string{"result"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Call sessions held by the in-memory store.",
		}),
	}
}

func (m *Metrics) TurnHandled(stage, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(stage, outcome).Inc()
	m.turnLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) LLMRequest(provider, purpose string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmRequests.WithLabelValues(provider, purpose, status).Inc()
	m.llmLatency.WithLabelValues(provider, purpose).Observe(d.Seconds())
}

func (m *Metrics) OTPEvent(event string) {
	if m == nil {
		return
	}
	m.otpEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) Handoff(result string) {
	if m == nil {
		return
	}
	m.handoffs.WithLabelValues(result).Inc()
}

func (m *Metrics) Assignment(instruction string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(instruction).Inc()
}

func (m *Metrics) WorkerCommand(result string) {
	if m == nil {
		return
	}
	m.workerCommands.WithLabelValues(result).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
