// Package handoff routes callers to human agents through a TaskRouter
// workspace and relays agent status changes back to it.
package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Activity is the closed set of worker activities the bot manages.
type Activity string

const (
	ActivityAvailable   Activity = "Available"
	ActivityOffline     Activity = "Offline"
	ActivityBusy        Activity = "Busy"
	ActivityUnavailable Activity = "Unavailable"
)

var requiredActivities = []Activity{ActivityAvailable, ActivityOffline, ActivityBusy, ActivityUnavailable}

// Workspace is the immutable routing descriptor resolved once at startup.
// The zero value means routing is not configured.
type Workspace struct {
	SID         string
	WorkflowSID string
	activities  map[Activity]string
	workers     map[string]string
}

// NewWorkspace copies the given maps so later mutation by the caller is not observed.
func NewWorkspace(sid, workflowSID string, activities map[Activity]string, workersByContact map[string]string) Workspace {
	ws := Workspace{
		SID:         sid,
		WorkflowSID: workflowSID,
		activities:  make(map[Activity]string, len(activities)),
		workers:     make(map[string]string, len(workersByContact)),
	}
	for k, v := range activities {
		ws.activities[k] = v
	}
	for k, v := range workersByContact {
		ws.workers[k] = v
	}
	return ws
}

func (w Workspace) Configured() bool {
	return w.SID != "" && w.WorkflowSID != ""
}

func (w Workspace) ActivitySID(a Activity) (string, bool) {
	sid, ok := w.activities[a]
	return sid, ok && sid != ""
}

func (w Workspace) WorkerByContact(contact string) (string, bool) {
	sid, ok := w.workers[contact]
	return sid, ok
}

// WorkflowName is the workflow the provisioner creates.
const WorkflowName = "Sales"

// LoadWorkspace resolves an existing workspace by name without modifying it.
func LoadWorkspace(ctx context.Context, api Admin, name string) (Workspace, error) {
	list, err := api.ListWorkspaces(ctx, name)
	if err != nil {
		return Workspace{}, fmt.Errorf("handoff: list workspaces: %w", err)
	}
	if len(list) == 0 {
		return Workspace{}, fmt.Errorf("%w: workspace %q not found", ErrWorkspaceUnavailable, name)
	}
	wsSID := list[0].SID

	acts, err := api.ListActivities(ctx, wsSID)
	if err != nil {
		return Workspace{}, fmt.Errorf("handoff: list activities: %w", err)
	}
	activities := make(map[Activity]string, len(acts))
	for _, a := range acts {
		activities[Activity(a.FriendlyName)] = a.SID
	}

	flows, err := api.ListWorkflows(ctx, wsSID, WorkflowName)
	if err != nil {
		return Workspace{}, fmt.Errorf("handoff: list workflows: %w", err)
	}
	if len(flows) == 0 {
		return Workspace{}, fmt.Errorf("%w: workflow %q not found", ErrWorkspaceUnavailable, WorkflowName)
	}

	workers, err := api.ListWorkers(ctx, wsSID, "")
	if err != nil {
		return Workspace{}, fmt.Errorf("handoff: list workers: %w", err)
	}
	byContact := make(map[string]string, len(workers))
	for _, w := range workers {
		// Later workers on a shared number take over the entry, as in Provision.
		if contact := w.ContactURI(); contact != "" {
			byContact[contact] = w.SID
		}
	}
	return NewWorkspace(wsSID, flows[0].SID, activities, byContact), nil
}

// WorkerAttributes is the JSON document stored on each worker.
type WorkerAttributes struct {
	Products   []string `json:"products,omitempty"`
	ContactURI string   `json:"contact_uri"`
}

func parseWorkerAttributes(raw string) (WorkerAttributes, error) {
	var wa WorkerAttributes
	if strings.TrimSpace(raw) == "" {
		return wa, nil
	}
	err := json.Unmarshal([]byte(raw), &wa)
	return wa, err
}
