package handoff

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newHandlerEngine(r *Router) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handlers{Router: r}
	e := gin.New()
	e.POST("/assignment", h.HandleAssignment)
	e.POST("/worker_activity_update", h.HandleWorkerStatus)
	return e
}

func TestHandleAssignment_Form(t *testing.T) {
	br := &fakeBridger{}
	e := newHandlerEngine(NewRouter(&fakeBackend{}, testWorkspace(), NewMemoryLedger(time.Minute), br))

	form := url.Values{}
	form.Set("TaskSid", "WT1")
	form.Set("TaskAttributes", `{"customer_call_sid":"CA1"}`)
	form.Set("WorkerAttributes", `{"contact_uri":"+15550001111"}`)
	req := httptest.NewRequest(http.MethodPost, "/assignment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"instruction":"accept"}` {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
	if len(br.calls) != 1 || br.calls[0] != "CA1" {
		t.Fatalf("expected bridge for CA1, got %v", br.calls)
	}
}

func TestHandleAssignment_JSONObjectAttributes(t *testing.T) {
	br := &fakeBridger{}
	e := newHandlerEngine(NewRouter(&fakeBackend{}, testWorkspace(), NewMemoryLedger(time.Minute), br))

	body := `{"TaskSid":"WT1","TaskAttributes":{"customer_call_sid":"CA2"},"WorkerAttributes":"{\"contact_uri\":\"+15550001111\"}"}`
	req := httptest.NewRequest(http.MethodPost, "/assignment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	if strings.TrimSpace(w.Body.String()) != `{"instruction":"accept"}` {
		t.Fatalf("unexpected response %s", w.Body.String())
	}
	if len(br.calls) != 1 || br.calls[0] != "CA2" {
		t.Fatalf("expected bridge for CA2, got %v", br.calls)
	}
}

func TestHandleAssignment_MalformedJSONRejects(t *testing.T) {
	e := newHandlerEngine(NewRouter(&fakeBackend{}, testWorkspace(), nil, &fakeBridger{}))
	req := httptest.NewRequest(http.MethodPost, "/assignment", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"instruction":"reject"}` {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestHandleWorkerStatus(t *testing.T) {
	be := &fakeBackend{}
	e := newHandlerEngine(NewRouter(be, testWorkspace(), nil, nil))

	cases := []struct {
		from   string
		body   string
		status int
		text   string
	}{
		{"+15550001111", "Available", http.StatusOK, "Your status is now Available."},
		{"+15550001111", "later", http.StatusBadRequest, "Invalid command. Please use 'available', 'offline', or 'busy'."},
		{"+19999999999", "busy", http.StatusNotFound, "Worker with number +19999999999 not found."},
		{"+19999999999", "later", http.StatusNotFound, "Worker with number +19999999999 not found."},
		{"", "available", http.StatusBadRequest, "Missing parameters"},
		{"+15550001111", "", http.StatusBadRequest, "Missing parameters"},
	}
	for _, tc := range cases {
		form := url.Values{"From": {tc.from}, "Body": {tc.body}}
		req := httptest.NewRequest(http.MethodPost, "/worker_activity_update", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		e.ServeHTTP(w, req)
		if w.Code != tc.status || w.Body.String() != tc.text {
			t.Fatalf("%s %q: unexpected response %d %q", tc.from, tc.body, w.Code, w.Body.String())
		}
	}
}

func TestMemoryLedger(t *testing.T) {
	l := NewMemoryLedger(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := l.Claim(ctx, "CA1"); !ok {
		t.Fatalf("expected first claim")
	}
	if ok, _ := l.Claim(ctx, "CA1"); ok {
		t.Fatalf("expected duplicate claim refused")
	}
	now = now.Add(2 * time.Minute)
	if n := l.Sweep(); n != 1 {
		t.Fatalf("expected one swept claim, got %d", n)
	}
	if ok, _ := l.Claim(ctx, "CA1"); !ok {
		t.Fatalf("expected claim after expiry")
	}
	if _, err := l.Claim(ctx, ""); err == nil {
		t.Fatalf("expected error for empty call id")
	}
}

func TestRedisLedger_NilClient(t *testing.T) {
	l := NewRedisLedger(nil, time.Minute)
	if _, err := l.Claim(context.Background(), "CA1"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := l.Release(context.Background(), "CA1"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
