package handoff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"
)

// ProvisionConfig drives the destructive workspace setup.
type ProvisionConfig struct {
	WorkspaceName string
	// Host is the public base URL for /events and /assignment.
	Host string
	// AliceNumber also backs the LiveAgent_1 handoff worker.
	AliceNumber string
	BobNumber   string
}

func (c ProvisionConfig) validate() error {
	var errs []error
	if strings.TrimSpace(c.WorkspaceName) == "" {
		errs = append(errs, errors.New("workspace name is required"))
	}
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("HOST is required"))
	}
	if c.AliceNumber == "" || c.BobNumber == "" {
		errs = append(errs, errors.New("two agent numbers are required"))
	}
	return errors.Join(errs...)
}

type workerSpec struct {
	name     string
	contact  string
	products []string
}

type queueSpec struct {
	key    string
	name   string
	target string
}

var provisionQueues = []queueSpec{
	{key: "default", name: "Default", target: "1==1"},
	{key: "sms", name: "SMS", target: `"ProgrammableSMS" in products`},
	{key: "voice", name: "Voice", target: `"ProgrammableVoice" in products`},
	{key: "liveagent", name: "LiveAgent_Handoff", target: `"LiveAgent" in products AND "VoiceHandoff" in products`},
}

// Provision deletes any workspace with the configured name and builds it
// again: activities, workers, queues and the Sales workflow.
func Provision(ctx context.Context, api Admin, cfg ProvisionConfig) (Workspace, error) {
	if err := cfg.validate(); err != nil {
		return Workspace{}, fmt.Errorf("handoff: provision: %w", err)
	}
	log := logger.From(ctx).With("workspace", cfg.WorkspaceName)
	host := strings.TrimRight(cfg.Host, "/")

	existing, err := api.ListWorkspaces(ctx, cfg.WorkspaceName)
	if err != nil {
		return Workspace{}, fmt.Errorf("handoff: list workspaces: %w", err)
	}
	for _, ws := range existing {
		if err := api.DeleteWorkspace(ctx, ws.SID); err != nil {
			return Workspace{}, fmt.Errorf("handoff: delete workspace %s: %w", ws.SID, err)
		}
		log.Info("deleted workspace", "sid", ws.SID)
	}

	ws, err := api.CreateWorkspace(ctx, cfg.WorkspaceName, host+"/events")
	if err != nil {
		return Workspace{}, fmt.Errorf("handoff: create workspace: %w", err)
	}
	log.Info("created workspace", "sid", ws.SID)

	activities, err := ensureActivities(ctx, api, ws.SID)
	if err != nil {
		return Workspace{}, err
	}

	workers := []workerSpec{
		{name: "Alice", contact: cfg.AliceNumber, products: []string{"ProgrammableVoice"}},
		{name: "Bob", contact: cfg.BobNumber, products: []string{"ProgrammableSMS", "GeneralSupport"}},
		{name: "LiveAgent_1", contact: cfg.AliceNumber, products: []string{"LiveAgent", "VoiceHandoff"}},
	}
	byContact := make(map[string]string, len(workers))
	for _, spec := range workers {
		w, err := api.CreateWorker(ctx, ws.SID, spec.name,
			WorkerAttributes{Products: spec.products, ContactURI: spec.contact},
			activities[ActivityAvailable])
		if err != nil {
			return Workspace{}, fmt.Errorf("handoff: create worker %s: %w", spec.name, err)
		}
		// Later workers on a shared number take over the directory entry.
		byContact[spec.contact] = w.SID
		log.Info("created worker", "name", spec.name, "sid", w.SID)
	}

	queues := make(map[string]string, len(provisionQueues))
	for _, q := range provisionQueues {
		res, err := api.CreateTaskQueue(ctx, ws.SID, q.name, q.target, activities[ActivityUnavailable])
		if err != nil {
			return Workspace{}, fmt.Errorf("handoff: create queue %s: %w", q.name, err)
		}
		queues[q.key] = res.SID
	}

	wf, err := api.CreateWorkflow(ctx, ws.SID, WorkflowRequest{
		FriendlyName:           WorkflowName,
		AssignmentCallbackURL:  host + "/assignment",
		FallbackCallbackURL:    host + "/assignment",
		TaskReservationTimeout: 20,
		Configuration:          workflowConfiguration(queues["liveagent"], queues["default"]),
	})
	if err != nil {
		return Workspace{}, fmt.Errorf("handoff: create workflow: %w", err)
	}
	log.Info("created workflow", "sid", wf.SID)

	return NewWorkspace(ws.SID, wf.SID, activities, byContact), nil
}

func ensureActivities(ctx context.Context, api Admin, workspaceSID string) (map[Activity]string, error) {
	list, err := api.ListActivities(ctx, workspaceSID)
	if err != nil {
		return nil, fmt.Errorf("handoff: list activities: %w", err)
	}
	out := make(map[Activity]string, len(requiredActivities))
	for _, a := range list {
		out[Activity(a.FriendlyName)] = a.SID
	}
	for _, a := range requiredActivities {
		if out[a] != "" {
			continue
		}
		created, err := api.CreateActivity(ctx, workspaceSID, string(a), a == ActivityAvailable)
		if err != nil {
			return nil, fmt.Errorf("handoff: create activity %s: %w", a, err)
		}
		out[a] = created.SID
	}
	return out, nil
}

type routingTarget struct {
	Queue    string `json:"queue"`
	Priority int    `json:"priority"`
	Timeout  int    `json:"timeout"`
}

type routingFilter struct {
	FriendlyName string          `json:"filter_friendly_name"`
	Expression   string          `json:"expression"`
	Targets      []routingTarget `json:"targets"`
}

type workflowConfig struct {
	TaskRouting struct {
		Filters       []routingFilter `json:"filters"`
		DefaultFilter routingTarget   `json:"default_filter"`
	} `json:"task_routing"`
}

// workflowConfiguration sends handoff tasks to the live agent queue first
// and falls back to the default queue.
func workflowConfiguration(liveAgentQueue, defaultQueue string) workflowConfig {
	fallback := routingTarget{Queue: defaultQueue, Priority: 5, Timeout: 30}
	var cfg workflowConfig
	cfg.TaskRouting.Filters = []routingFilter{{
		FriendlyName: "Voice Handoff Filter",
		Expression:   fmt.Sprintf("type==%q", TaskType),
		Targets: []routingTarget{
			{Queue: liveAgentQueue, Priority: 1, Timeout: 60},
			fallback,
		},
	}}
	cfg.TaskRouting.DefaultFilter = fallback
	return cfg
}
