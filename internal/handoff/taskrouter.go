package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultTaskRouterURL = "https://taskrouter.twilio.com/v1"
	maxResponseBytes     = 1 << 20
)

// Backend is what the router needs at call time.
type Backend interface {
	CreateTask(ctx context.Context, workspaceSID string, req TaskRequest) (Task, error)
	FindWorkerByContact(ctx context.Context, workspaceSID, contact string) (Worker, error)
	UpdateWorkerActivity(ctx context.Context, workspaceSID, workerSID, activitySID string) error
}

// Admin covers workspace discovery and provisioning.
type Admin interface {
	Backend
	ListWorkspaces(ctx context.Context, friendlyName string) ([]Resource, error)
	CreateWorkspace(ctx context.Context, friendlyName, eventCallbackURL string) (Resource, error)
	DeleteWorkspace(ctx context.Context, sid string) error
	ListActivities(ctx context.Context, workspaceSID string) ([]ActivityRecord, error)
	CreateActivity(ctx context.Context, workspaceSID, friendlyName string, available bool) (ActivityRecord, error)
	ListWorkers(ctx context.Context, workspaceSID, friendlyName string) ([]Worker, error)
	CreateWorker(ctx context.Context, workspaceSID, friendlyName string, attrs WorkerAttributes, activitySID string) (Worker, error)
	CreateTaskQueue(ctx context.Context, workspaceSID, friendlyName, targetWorkers, assignmentActivitySID string) (Resource, error)
	ListWorkflows(ctx context.Context, workspaceSID, friendlyName string) ([]Resource, error)
	CreateWorkflow(ctx context.Context, workspaceSID string, wf WorkflowRequest) (Resource, error)
}

// Resource is the common sid + name pair of TaskRouter objects.
type Resource struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
}

type ActivityRecord struct {
	Resource
	Available bool `json:"available"`
}

type Worker struct {
	Resource
	Attributes   string `json:"attributes"`
	ActivityName string `json:"activity_name"`
}

// ContactURI reads contact_uri from the worker attributes.
func (w Worker) ContactURI() string {
	wa, err := parseWorkerAttributes(w.Attributes)
	if err != nil {
		return ""
	}
	return wa.ContactURI
}

type Task struct {
	SID              string `json:"sid"`
	AssignmentStatus string `json:"assignment_status"`
}

type TaskRequest struct {
	WorkflowSID string
	Attributes  map[string]any
	Channel     string
}

type WorkflowRequest struct {
	FriendlyName           string
	AssignmentCallbackURL  string
	FallbackCallbackURL    string
	TaskReservationTimeout int
	Configuration          any
}

var ErrWorkerNotFound = errors.New("handoff: worker not found")

// TaskRouterClient is a minimal TaskRouter REST client.
// It avoids any provider SDK dependency. Safe for concurrent use.
type TaskRouterClient struct {
	accountSID string
	authToken  string
	baseURL    string
	client     *http.Client
}

func NewTaskRouterClient(accountSID, authToken string, timeout time.Duration) (*TaskRouterClient, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("handoff: twilio credentials are required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TaskRouterClient{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    defaultTaskRouterURL,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// WithBaseURL points the client at another API root.
func (c *TaskRouterClient) WithBaseURL(u string) *TaskRouterClient {
	c.baseURL = u
	return c
}

func (c *TaskRouterClient) CreateTask(ctx context.Context, workspaceSID string, req TaskRequest) (Task, error) {
	attrs, err := json.Marshal(req.Attributes)
	if err != nil {
		return Task{}, err
	}
	form := url.Values{}
	form.Set("WorkflowSid", req.WorkflowSID)
	form.Set("Attributes", string(attrs))
	if req.Channel != "" {
		form.Set("TaskChannel", req.Channel)
	}
	var t Task
	err = c.do(ctx, http.MethodPost, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Tasks", form, &t)
	return t, err
}

func (c *TaskRouterClient) FindWorkerByContact(ctx context.Context, workspaceSID, contact string) (Worker, error) {
	q := url.Values{}
	q.Set("TargetWorkersExpression", fmt.Sprintf("contact_uri == %s", strconv.Quote(contact)))
	var page struct {
		Workers []Worker `json:"workers"`
	}
	if err := c.do(ctx, http.MethodGet, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Workers?"+q.Encode(), nil, &page); err != nil {
		return Worker{}, err
	}
	if len(page.Workers) == 0 {
		return Worker{}, ErrWorkerNotFound
	}
	return page.Workers[0], nil
}

func (c *TaskRouterClient) UpdateWorkerActivity(ctx context.Context, workspaceSID, workerSID, activitySID string) error {
	form := url.Values{}
	form.Set("ActivitySid", activitySID)
	return c.do(ctx, http.MethodPost, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Workers/"+url.PathEscape(workerSID), form, nil)
}

func (c *TaskRouterClient) ListWorkspaces(ctx context.Context, friendlyName string) ([]Resource, error) {
	var page struct {
		Workspaces []Resource `json:"workspaces"`
	}
	err := c.do(ctx, http.MethodGet, "/Workspaces"+nameQuery(friendlyName), nil, &page)
	return page.Workspaces, err
}

func (c *TaskRouterClient) CreateWorkspace(ctx context.Context, friendlyName, eventCallbackURL string) (Resource, error) {
	form := url.Values{}
	form.Set("FriendlyName", friendlyName)
	if eventCallbackURL != "" {
		form.Set("EventCallbackUrl", eventCallbackURL)
	}
	var r Resource
	err := c.do(ctx, http.MethodPost, "/Workspaces", form, &r)
	return r, err
}

func (c *TaskRouterClient) DeleteWorkspace(ctx context.Context, sid string) error {
	return c.do(ctx, http.MethodDelete, "/Workspaces/"+url.PathEscape(sid), nil, nil)
}

func (c *TaskRouterClient) ListActivities(ctx context.Context, workspaceSID string) ([]ActivityRecord, error) {
	var page struct {
		Activities []ActivityRecord `json:"activities"`
	}
	err := c.do(ctx, http.MethodGet, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Activities", nil, &page)
	return page.Activities, err
}

func (c *TaskRouterClient) CreateActivity(ctx context.Context, workspaceSID, friendlyName string, available bool) (ActivityRecord, error) {
	form := url.Values{}
	form.Set("FriendlyName", friendlyName)
	form.Set("Available", strconv.FormatBool(available))
	var a ActivityRecord
	err := c.do(ctx, http.MethodPost, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Activities", form, &a)
	return a, err
}

func (c *TaskRouterClient) ListWorkers(ctx context.Context, workspaceSID, friendlyName string) ([]Worker, error) {
	var page struct {
		Workers []Worker `json:"workers"`
	}
	err := c.do(ctx, http.MethodGet, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Workers"+nameQuery(friendlyName), nil, &page)
	return page.Workers, err
}

func (c *TaskRouterClient) CreateWorker(ctx context.Context, workspaceSID, friendlyName string, attrs WorkerAttributes, activitySID string) (Worker, error) {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return Worker{}, err
	}
	form := url.Values{}
	form.Set("FriendlyName", friendlyName)
	form.Set("Attributes", string(raw))
	if activitySID != "" {
		form.Set("ActivitySid", activitySID)
	}
	var w Worker
	err = c.do(ctx, http.MethodPost, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Workers", form, &w)
	return w, err
}

func (c *TaskRouterClient) CreateTaskQueue(ctx context.Context, workspaceSID, friendlyName, targetWorkers, assignmentActivitySID string) (Resource, error) {
	form := url.Values{}
	form.Set("FriendlyName", friendlyName)
	form.Set("TargetWorkers", targetWorkers)
	if assignmentActivitySID != "" {
		form.Set("AssignmentActivitySid", assignmentActivitySID)
	}
	var r Resource
	err := c.do(ctx, http.MethodPost, "/Workspaces/"+url.PathEscape(workspaceSID)+"/TaskQueues", form, &r)
	return r, err
}

func (c *TaskRouterClient) ListWorkflows(ctx context.Context, workspaceSID, friendlyName string) ([]Resource, error) {
	var page struct {
		Workflows []Resource `json:"workflows"`
	}
	err := c.do(ctx, http.MethodGet, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Workflows"+nameQuery(friendlyName), nil, &page)
	return page.Workflows, err
}

func (c *TaskRouterClient) CreateWorkflow(ctx context.Context, workspaceSID string, wf WorkflowRequest) (Resource, error) {
	cfg, err := json.Marshal(wf.Configuration)
	if err != nil {
		return Resource{}, err
	}
	form := url.Values{}
	form.Set("FriendlyName", wf.FriendlyName)
	form.Set("Configuration", string(cfg))
	if wf.AssignmentCallbackURL != "" {
		form.Set("AssignmentCallbackUrl", wf.AssignmentCallbackURL)
	}
	if wf.FallbackCallbackURL != "" {
		form.Set("FallbackAssignmentCallbackUrl", wf.FallbackCallbackURL)
	}
	if wf.TaskReservationTimeout > 0 {
		form.Set("TaskReservationTimeout", strconv.Itoa(wf.TaskReservationTimeout))
	}
	var r Resource
	err = c.do(ctx, http.MethodPost, "/Workspaces/"+url.PathEscape(workspaceSID)+"/Workflows", form, &r)
	return r, err
}

// APIError is a non-2xx TaskRouter answer.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("handoff: taskrouter error (%d): %s", e.Status, e.Body)
}

func (c *TaskRouterClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = bytes.NewBufferString(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return err
	}
	if len(raw) > maxResponseBytes {
		return fmt.Errorf("handoff: taskrouter response too large (%d bytes)", len(raw))
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func nameQuery(friendlyName string) string {
	if friendlyName == "" {
		return ""
	}
	return "?" + url.Values{"FriendlyName": {friendlyName}}.Encode()
}
