package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/observability"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/telephony"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"
)

var (
	ErrWorkspaceUnavailable = errors.New("handoff: routing workspace unavailable")
	ErrBackendUnavailable   = errors.New("handoff: routing backend unavailable")
)

// Task attribute values the Sales workflow filters on.
const (
	TaskType        = "voice_handoff_request"
	TaskProduct     = "VoiceHandoff"
	TaskChannel     = "voice"
	TaskDirection   = "inbound"
	attrCallSID     = "customer_call_sid"
	attrCallerPhone = "customer_phone"
)

// Bridger connects a live call to an agent contact address.
type Bridger interface {
	QueueBridge(ctx context.Context, callID string, dial telephony.Dial) error
}

type HandoffRequest struct {
	CallID       string
	CallerNumber string
	// Context is merged into the task attributes; reserved keys win.
	Context map[string]string
}

// WorkItem is the routing task created for a handoff.
type WorkItem struct {
	ID               string
	CallID           string
	CallerNumber     string
	AssignmentStatus string
	CreatedAt        time.Time
}

type Router struct {
	backend Backend
	ws      Workspace
	ledger  AssignmentLedger
	bridger Bridger
	metrics *observability.Metrics
	clock   func() time.Time
}

type RouterOption func(*Router)

func WithMetrics(m *observability.Metrics) RouterOption { return func(r *Router) { r.metrics = m } }

func WithClock(clock func() time.Time) RouterOption { return func(r *Router) { r.clock = clock } }

func NewRouter(backend Backend, ws Workspace, ledger AssignmentLedger, bridger Bridger, opts ...RouterOption) *Router {
	if ledger == nil {
		ledger = NewMemoryLedger(time.Hour)
	}
	r := &Router{backend: backend, ws: ws, ledger: ledger, bridger: bridger, clock: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SetBridger is used when the bridger is built after the router.
func (r *Router) SetBridger(b Bridger) { r.bridger = b }

func (r *Router) Workspace() Workspace { return r.ws }

// RequestHandoff enqueues a work item for a human agent. Agent
// availability is resolved later by the assignment callback.
func (r *Router) RequestHandoff(ctx context.Context, req HandoffRequest) (WorkItem, error) {
	if !r.ws.Configured() || r.backend == nil {
		r.metrics.Handoff("unconfigured")
		return WorkItem{}, ErrWorkspaceUnavailable
	}
	if strings.TrimSpace(req.CallID) == "" {
		return WorkItem{}, fmt.Errorf("handoff: call id required")
	}

	attrs := make(map[string]any, len(req.Context)+5)
	for k, v := range req.Context {
		attrs[k] = v
	}
	attrs[attrCallSID] = req.CallID
	attrs[attrCallerPhone] = req.CallerNumber
	attrs["selected_product"] = TaskProduct
	attrs["type"] = TaskType
	attrs["direction"] = TaskDirection

	task, err := r.backend.CreateTask(ctx, r.ws.SID, TaskRequest{
		WorkflowSID: r.ws.WorkflowSID,
		Attributes:  attrs,
		Channel:     TaskChannel,
	})
	if err != nil {
		r.metrics.Handoff("error")
		return WorkItem{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	r.metrics.Handoff("created")
	logger.From(ctx).Info("handoff task created", "task_sid", task.SID, "call_id", req.CallID)
	return WorkItem{
		ID:               task.SID,
		CallID:           req.CallID,
		CallerNumber:     req.CallerNumber,
		AssignmentStatus: task.AssignmentStatus,
		CreatedAt:        r.clock().UTC(),
	}, nil
}

// Assignment is the payload of a reservation callback.
type Assignment struct {
	TaskSID          string
	ReservationSID   string
	WorkerSID        string
	TaskAttributes   string
	WorkerAttributes string
}

const (
	InstructionAccept = "accept"
	InstructionReject = "reject"
)

type AssignmentResult struct {
	Instruction string `json:"instruction"`
}

type taskAttributes struct {
	CustomerCallSID string `json:"customer_call_sid"`
	CustomerPhone   string `json:"customer_phone"`
}

// OnAssignment answers a reservation. A call is bridged at most once;
// a repeated reservation for an already bridged call is accepted without
// bridging again.
func (r *Router) OnAssignment(ctx context.Context, a Assignment) (res AssignmentResult) {
	log := logger.From(ctx).With("task_sid", a.TaskSID, "reservation_sid", a.ReservationSID)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("assignment panic", "panic", fmt.Sprint(rec))
			res = AssignmentResult{Instruction: InstructionReject}
		}
		r.metrics.Assignment(res.Instruction)
	}()

	var task taskAttributes
	if err := json.Unmarshal([]byte(a.TaskAttributes), &task); err != nil {
		log.Warn("assignment task attributes invalid", "err", err)
		return AssignmentResult{Instruction: InstructionReject}
	}
	worker, err := parseWorkerAttributes(a.WorkerAttributes)
	if err != nil {
		log.Warn("assignment worker attributes invalid", "err", err)
		return AssignmentResult{Instruction: InstructionReject}
	}
	contact := strings.TrimSpace(worker.ContactURI)
	callID := strings.TrimSpace(task.CustomerCallSID)
	if contact == "" || callID == "" {
		log.Warn("assignment missing contact or call", "has_contact", contact != "", "has_call", callID != "")
		return AssignmentResult{Instruction: InstructionReject}
	}
	if r.bridger == nil {
		log.Error("assignment has no bridger")
		return AssignmentResult{Instruction: InstructionReject}
	}

	claimed, err := r.ledger.Claim(ctx, callID)
	if err != nil {
		log.Error("assignment claim failed", "call_id", callID, "err", err)
		return AssignmentResult{Instruction: InstructionReject}
	}
	if !claimed {
		log.Info("assignment already bridged", "call_id", callID)
		return AssignmentResult{Instruction: InstructionAccept}
	}

	dial := telephony.Dial{Number: contact, TimeoutSeconds: telephony.DefaultDialTimeoutSeconds}
	if err := r.bridger.QueueBridge(ctx, callID, dial); err != nil {
		log.Error("assignment bridge failed", "call_id", callID, "err", err)
		if rerr := r.ledger.Release(ctx, callID); rerr != nil {
			log.Warn("assignment release failed", "call_id", callID, "err", rerr)
		}
		return AssignmentResult{Instruction: InstructionReject}
	}
	log.Info("assignment bridged", "call_id", callID, "worker_sid", a.WorkerSID)
	return AssignmentResult{Instruction: InstructionAccept}
}

// StatusCommand is an agent's requested availability.
type StatusCommand string

const (
	CommandAvailable StatusCommand = "available"
	CommandOffline   StatusCommand = "offline"
	CommandBusy      StatusCommand = "busy"
)

// Activity reports false for anything ParseCommand would not return.
func (c StatusCommand) Activity() (Activity, bool) {
	switch c {
	case CommandAvailable:
		return ActivityAvailable, true
	case CommandOffline:
		return ActivityOffline, true
	case CommandBusy:
		return ActivityBusy, true
	}
	return "", false
}

const (
	CodeMissingParameters = "missing_parameters"
	CodeInvalidCommand    = "invalid_command"
	CodeWorkerNotFound    = "worker_not_found"
	CodeUpdateFailed      = "update_failed"
)

// CommandError is a worker status failure with the reply text for the agent.
type CommandError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *CommandError) Unwrap() error { return e.Err }

const (
	msgUpdateFailed   = "Failed to update your status. Please try again."
	msgInvalidCommand = "Invalid command. Please use 'available', 'offline', or 'busy'."
)

// ParseCommand accepts available, offline or busy in any case.
func ParseCommand(body string) (StatusCommand, error) {
	switch c := StatusCommand(strings.ToLower(strings.TrimSpace(body))); c {
	case CommandAvailable, CommandOffline, CommandBusy:
		return c, nil
	}
	return "", &CommandError{
		Code:    CodeInvalidCommand,
		Status:  http.StatusBadRequest,
		Message: msgInvalidCommand,
	}
}

type CommandResult struct {
	WorkerSID string
	Activity  Activity
	Message   string
}

// SetWorkerStatus moves the worker reachable at workerAddress to the
// activity named by body. The worker is resolved before the command is
// parsed, so an unknown sender gets 404 whatever it typed.
func (r *Router) SetWorkerStatus(ctx context.Context, workerAddress, body string) (CommandResult, error) {
	fail := func(code string, status int, msg string, cause error) (CommandResult, error) {
		r.metrics.WorkerCommand(code)
		return CommandResult{}, &CommandError{Code: code, Status: status, Message: msg, Err: cause}
	}
	workerAddress = strings.TrimSpace(workerAddress)
	if workerAddress == "" || strings.TrimSpace(body) == "" {
		return fail(CodeMissingParameters, http.StatusBadRequest, "Missing parameters", nil)
	}
	if !r.ws.Configured() || r.backend == nil {
		return fail(CodeUpdateFailed, http.StatusInternalServerError, msgUpdateFailed, ErrWorkspaceUnavailable)
	}

	workerSID, ok := r.ws.WorkerByContact(workerAddress)
	if !ok {
		w, err := r.backend.FindWorkerByContact(ctx, r.ws.SID, workerAddress)
		switch {
		case errors.Is(err, ErrWorkerNotFound):
			return fail(CodeWorkerNotFound, http.StatusNotFound,
				fmt.Sprintf("Worker with number %s not found.", workerAddress), err)
		case err != nil:
			return fail(CodeUpdateFailed, http.StatusInternalServerError, msgUpdateFailed, err)
		}
		workerSID = w.SID
	}

	cmd, err := ParseCommand(body)
	if err != nil {
		r.metrics.WorkerCommand(CodeInvalidCommand)
		return CommandResult{}, err
	}
	activity, ok := cmd.Activity()
	if !ok {
		return fail(CodeInvalidCommand, http.StatusBadRequest, msgInvalidCommand, nil)
	}
	activitySID, ok := r.ws.ActivitySID(activity)
	if !ok {
		return fail(CodeUpdateFailed, http.StatusInternalServerError, msgUpdateFailed,
			fmt.Errorf("handoff: activity %s not provisioned", activity))
	}

	if err := r.backend.UpdateWorkerActivity(ctx, r.ws.SID, workerSID, activitySID); err != nil {
		return fail(CodeUpdateFailed, http.StatusInternalServerError, msgUpdateFailed, err)
	}
	r.metrics.WorkerCommand("ok")
	logger.From(ctx).Info("worker status updated", "worker_sid", workerSID, "activity", string(activity))
	return CommandResult{
		WorkerSID: workerSID,
		Activity:  activity,
		Message:   fmt.Sprintf("Your status is now %s.", activity),
	}, nil
}
