package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/customers"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/handoff"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/interactions"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/llm"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/observability"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/speech"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/telephony"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// IntentClassifier labels a caller utterance.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string) (llm.Intent, error)
}

// SummaryWriter phrases the verified account data for speech.
type SummaryWriter interface {
	Describe(ctx context.Context, inst *customers.Installment, cust *customers.Customer) (string, error)
}

type CodeVerifier interface {
	Issue(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, candidate string) (bool, error)
}

type HandoffRequester interface {
	RequestHandoff(ctx context.Context, req handoff.HandoffRequest) (handoff.WorkItem, error)
}

// TranscriptLog is best-effort: failures are logged and never change
// what the caller hears.
type TranscriptLog interface {
	LogUtterance(ctx context.Context, sessionID, callID, customerID string, sender interactions.Sender, text, intent, stage string) error
	RecordUnresolved(ctx context.Context, sum interactions.UnresolvedSummary) error
}

// Deps are the collaborators of a Machine.
type Deps struct {
	Store        Store
	Locker       Locker
	Classifier   IntentClassifier
	Directory    customers.Directory
	Codes        CodeVerifier
	Responder    SummaryWriter
	Handoffs     HandoffRequester
	Interactions TranscriptLog
}

// Machine handles call turns. Turns for one call id are serialized by the
// Locker; different calls proceed in parallel.
type Machine struct {
	deps Deps

	externalTimeout time.Duration
	lockTimeout     time.Duration
	clock           func() time.Time
	newID           func() string
	metrics         *observability.Metrics
	tracer          trace.Tracer
}

type Option func(*Machine)

// WithTimeouts bounds each collaborator call and the wait for the call lock.
func WithTimeouts(external, lock time.Duration) Option {
	return func(m *Machine) {
		if external > 0 {
			m.externalTimeout = external
		}
		if lock > 0 {
			m.lockTimeout = lock
		}
	}
}

func WithClock(clock func() time.Time) Option { return func(m *Machine) { m.clock = clock } }

func WithIDs(newID func() string) Option { return func(m *Machine) { m.newID = newID } }

func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Machine) { m.metrics = metrics }
}

func WithTracer(t trace.Tracer) Option { return func(m *Machine) { m.tracer = t } }

func NewMachine(deps Deps, opts ...Option) *Machine {
	m := &Machine{
		deps:            deps,
		externalTimeout: 8 * time.Second,
		lockTimeout:     5 * time.Second,
		clock:           time.Now,
		newID:           uuid.NewString,
		tracer:          otel.Tracer("dialog"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// HandleTurn answers one webhook. It always returns a valid instruction.
func (m *Machine) HandleTurn(ctx context.Context, turn telephony.Turn) (out telephony.Instruction) {
	start := m.clock()
	ctx, log := logger.WithCall(ctx, turn.CallID)
	ctx, span := m.tracer.Start(ctx, "dialog.turn", trace.WithAttributes(attribute.String("call.id", turn.CallID)))
	defer span.End()

	out = telephony.SpeakAndHangup(msgUnexpectedError)
	sess := Session{CallID: turn.CallID, SessionID: m.newID(), Stage: StageErrorHangup}

	lockCtx, cancel := context.WithTimeout(ctx, m.lockTimeout)
	unlock, err := m.deps.Locker.Lock(lockCtx, turn.CallID)
	cancel()
	if err != nil {
		log.Error("session lock failed", slog.Any("err", err))
		span.SetStatus(codes.Error, "lock")
		// Read-only: attribute the apology to the live session when there is one.
		if prior, gerr := m.get(ctx, turn.CallID); gerr == nil && prior.SessionID != "" {
			sess.SessionID, sess.CustomerID = prior.SessionID, prior.CustomerID
		}
		m.logBot(ctx, log, sess, out)
		m.metrics.TurnHandled(string(sess.Stage), "lock_failed", m.clock().Sub(start))
		return out
	}
	defer unlock()

	persist := false
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("turn panic", slog.String("panic", fmt.Sprint(rec)), slog.String("stack", string(debug.Stack())))
			span.SetStatus(codes.Error, "panic")
			sess.Stage = StageErrorHangup
			out = telephony.SpeakAndHangup(msgUnexpectedError)
		}
		if persist {
			sess.UpdatedAt = m.clock().UTC()
			if err := m.put(ctx, sess); err != nil {
				log.Error("session save failed", slog.Any("err", err))
			}
		}
		m.logBot(ctx, log, sess, out)
		span.SetAttributes(attribute.String("dialog.stage", string(sess.Stage)))
		m.metrics.TurnHandled(string(sess.Stage), outcome(out), m.clock().Sub(start))
	}()

	loaded, err := m.load(ctx, turn)
	if err != nil {
		log.Error("session load failed", slog.Any("err", err))
		span.SetStatus(codes.Error, "load")
		return out
	}
	sess = loaded
	persist = true

	if sess.Stage != StageGreeting && strings.TrimSpace(turn.Transcript) != "" {
		m.logUser(ctx, log, sess, turn.Transcript)
	}
	return m.step(ctx, log, &sess, turn)
}

func (m *Machine) load(ctx context.Context, turn telephony.Turn) (Session, error) {
	sess, err := m.get(ctx, turn.CallID)
	if err == nil {
		if !sess.Stage.Valid() {
			return Session{}, fmt.Errorf("dialog: stored stage %q invalid", sess.Stage)
		}
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return Session{}, err
	}
	now := m.clock().UTC()
	return Session{
		CallID:       turn.CallID,
		SessionID:    m.newID(),
		Stage:        StageGreeting,
		CallerNumber: turn.From,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (m *Machine) step(ctx context.Context, log *slog.Logger, sess *Session, turn telephony.Turn) telephony.Instruction {
	transcript := strings.TrimSpace(turn.Transcript)
	if sess.CallerNumber == "" {
		sess.CallerNumber = turn.From
	}

	switch sess.Stage {
	case StageGreeting:
		sess.Stage = StageAwaitingQuery
		return telephony.SpeakAndListen(msgGreeting)

	case StageAwaitingQuery:
		if transcript == "" {
			return telephony.SpeakAndListen(msgRepromptQuery)
		}
		return m.onQuery(ctx, log, sess, transcript)

	case StageAskAccountID:
		if transcript == "" {
			return telephony.SpeakAndListen(msgAskAccountID)
		}
		return m.onAccountID(ctx, log, sess, transcript)

	case StageOTPPending:
		if transcript == "" {
			return telephony.SpeakAndListen(msgOTPReprompt)
		}
		return m.onOTP(ctx, log, sess, transcript)

	case StageHandoffInit:
		return m.onHandoffFollowUp(sess)
	}
	return telephony.SpeakAndHangup(msgCallEnded)
}

func (m *Machine) onQuery(ctx context.Context, log *slog.Logger, sess *Session, transcript string) telephony.Instruction {
	cctx, cancel := m.external(ctx)
	intent, err := m.deps.Classifier.Classify(cctx, transcript)
	cancel()
	if err != nil {
		log.Error("intent classification failed", slog.Any("err", err))
		sess.Stage = StageErrorHangup
		return telephony.SpeakAndHangup(msgUnexpectedError)
	}
	sess.Intent = string(intent)
	log.Info("intent classified", slog.String("intent", sess.Intent))

	switch intent {
	case llm.IntentQueryEMI:
		sess.Stage = StageAskAccountID
		return telephony.SpeakAndListen(msgAskAccountID)
	case llm.IntentLiveAgent:
		return m.requestHandoff(ctx, log, sess, transcript)
	default:
		return telephony.SpeakAndListen(msgUnclear)
	}
}

func (m *Machine) requestHandoff(ctx context.Context, log *slog.Logger, sess *Session, transcript string) telephony.Instruction {
	sess.Stage = StageHandoffInit
	if m.deps.Handoffs == nil {
		sess.Stage = StageErrorHangup
		return telephony.SpeakAndHangup(msgHandoffUnconfigured)
	}

	hctx, cancel := m.external(ctx)
	item, err := m.deps.Handoffs.RequestHandoff(hctx, handoff.HandoffRequest{
		CallID:       sess.CallID,
		CallerNumber: sess.CallerNumber,
		Context:      map[string]string{"session_id": sess.SessionID, "initial_query": transcript},
	})
	cancel()
	switch {
	case errors.Is(err, handoff.ErrWorkspaceUnavailable):
		log.Error("handoff unavailable", slog.Any("err", err))
		sess.Stage = StageErrorHangup
		return telephony.SpeakAndHangup(msgHandoffUnconfigured)
	case err != nil:
		log.Error("handoff request failed", slog.Any("err", err))
		sess.Stage = StageErrorHangup
		return telephony.SpeakAndHangup(msgHandoffFailed)
	}
	sess.WorkItemID = item.ID

	if m.deps.Interactions != nil {
		rctx, cancel := m.external(ctx)
		err := m.deps.Interactions.RecordUnresolved(rctx, interactions.UnresolvedSummary{
			CustomerID: sess.CustomerID,
			AccountID:  sess.AccountID,
			SessionID:  sess.SessionID,
			CallID:     sess.CallID,
			Summary:    handoffSummary(speech.MaskPhone(sess.CallerNumber), transcript),
		})
		cancel()
		if err != nil {
			log.Warn("unresolved summary not recorded", slog.Any("err", err))
		}
	}
	return telephony.SpeakAndListen(msgHandoffWait)
}

// onHandoffFollowUp delivers the dial queued by the assignment callback.
func (m *Machine) onHandoffFollowUp(sess *Session) telephony.Instruction {
	if sess.PendingDial != nil {
		d := *sess.PendingDial
		if d.TimeoutSeconds <= 0 {
			d.TimeoutSeconds = telephony.DefaultDialTimeoutSeconds
		}
		sess.PendingDial = nil
		sess.Bridged = true
		return telephony.Instruction{Dial: &d}
	}
	if sess.Bridged {
		return telephony.SpeakAndHangup(msgHandoffAfterBridge)
	}
	return telephony.SpeakAndListen(msgHandoffHold)
}

func (m *Machine) onAccountID(ctx context.Context, log *slog.Logger, sess *Session, transcript string) telephony.Instruction {
	digits := speech.ExtractDigits(transcript)
	if digits == "" {
		sess.Stage = StageAwaitingQuery
		return telephony.SpeakAndListen(msgAccountMissing)
	}

	lctx, cancel := m.external(ctx)
	cust, err := m.deps.Directory.FindByAccountID(lctx, digits)
	cancel()
	switch {
	case errors.Is(err, customers.ErrNotFound):
		log.Info("account not found", slog.Int("digits", len(digits)))
		sess.Stage = StageAwaitingQuery
		return telephony.SpeakAndListen(msgAccountMissing)
	case err != nil:
		log.Error("account lookup failed", slog.Any("err", err))
		sess.Stage = StageErrorHangup
		return telephony.SpeakAndHangup(msgUnexpectedError)
	}

	sess.setIdentity(cust)
	sess.Stage = StageOTPPending

	octx, cancel := m.external(ctx)
	_, err = m.deps.Codes.Issue(octx, sess.PhoneNumber)
	cancel()
	if err != nil {
		log.Error("otp issue failed", slog.String("phone", speech.MaskPhone(sess.PhoneNumber)), slog.Any("err", err))
		sess.Stage = StageErrorHangup
		return telephony.SpeakAndHangup(msgOTPSendFailed)
	}
	log.Info("otp sent", slog.String("phone", speech.MaskPhone(sess.PhoneNumber)), slog.String("account_id", sess.AccountID))
	return telephony.SpeakAndListen(otpSentMessage(speech.LastDigits(sess.PhoneNumber, 4)))
}

func (m *Machine) onOTP(ctx context.Context, log *slog.Logger, sess *Session, transcript string) telephony.Instruction {
	vctx, cancel := m.external(ctx)
	ok, err := m.deps.Codes.Verify(vctx, sess.PhoneNumber, speech.ExtractDigits(transcript))
	cancel()
	if err != nil {
		log.Error("otp verify failed", slog.Any("err", err))
		sess.Stage = StageErrorHangup
		return telephony.SpeakAndHangup(msgUnexpectedError)
	}
	if !ok {
		return telephony.SpeakAndListen(msgOTPIncorrect)
	}
	sess.Stage = StageVerified
	log.Info("otp verified", slog.String("phone", speech.MaskPhone(sess.PhoneNumber)))

	ictx, cancel := m.external(ctx)
	inst, err := m.deps.Directory.LatestInstallment(ictx, sess.CustomerID)
	cancel()
	if err != nil {
		log.Error("installment lookup failed", slog.Any("err", err))
		sess.Stage = StageErrorHangup
		return telephony.SpeakAndHangup(msgEMIUnavailable)
	}

	cust := sess.customer()
	text := ""
	if m.deps.Responder != nil {
		rctx, cancel := m.external(ctx)
		text, err = m.deps.Responder.Describe(rctx, &inst, &cust)
		cancel()
		if err != nil {
			log.Warn("summary generation failed", slog.Any("err", err))
			text = ""
		}
	}
	if strings.TrimSpace(text) == "" {
		text = llm.PlainSummary(inst, cust)
	}
	return telephony.SpeakAndHangup(text + msgThanks)
}

// QueueBridge stores the dial for delivery on the call's next turn.
func (m *Machine) QueueBridge(ctx context.Context, callID string, dial telephony.Dial) error {
	lockCtx, cancel := context.WithTimeout(ctx, m.lockTimeout)
	unlock, err := m.deps.Locker.Lock(lockCtx, callID)
	cancel()
	if err != nil {
		return fmt.Errorf("dialog: lock %s: %w", callID, err)
	}
	defer unlock()

	sess, err := m.get(ctx, callID)
	if err != nil {
		return err
	}
	if sess.Stage != StageHandoffInit {
		return fmt.Errorf("dialog: call %s is in stage %s, not awaiting an agent", callID, sess.Stage)
	}
	sess.PendingDial = &dial
	sess.UpdatedAt = m.clock().UTC()
	return m.put(ctx, sess)
}

// external bounds one collaborator call, store and transcript writes included.
func (m *Machine) external(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.externalTimeout)
}

func (m *Machine) get(ctx context.Context, callID string) (Session, error) {
	gctx, cancel := m.external(ctx)
	defer cancel()
	return m.deps.Store.Get(gctx, callID)
}

func (m *Machine) put(ctx context.Context, sess Session) error {
	pctx, cancel := m.external(ctx)
	defer cancel()
	return m.deps.Store.Put(pctx, sess)
}

func (m *Machine) logUser(ctx context.Context, log *slog.Logger, sess Session, text string) {
	if m.deps.Interactions == nil {
		return
	}
	lctx, cancel := m.external(ctx)
	defer cancel()
	err := m.deps.Interactions.LogUtterance(lctx, sess.SessionID, sess.CallID, sess.CustomerID,
		interactions.SenderUser, text, sess.Intent, string(sess.Stage))
	if err != nil {
		log.Warn("user utterance not logged", slog.Any("err", err))
	}
}

func (m *Machine) logBot(ctx context.Context, log *slog.Logger, sess Session, out telephony.Instruction) {
	if m.deps.Interactions == nil {
		return
	}
	lctx, cancel := m.external(ctx)
	defer cancel()
	err := m.deps.Interactions.LogUtterance(lctx, sess.SessionID, sess.CallID, sess.CustomerID,
		interactions.SenderBot, out.Utterance(), sess.Intent, string(sess.Stage))
	if err != nil {
		log.Warn("bot utterance not logged", slog.Any("err", err))
	}
}

func outcome(in telephony.Instruction) string {
	switch {
	case in.Dial != nil:
		return "dial"
	case in.Hangup:
		return "hangup"
	default:
		return "listen"
	}
}
