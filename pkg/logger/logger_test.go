package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWithCall_AddsCallID(t *testing.T) {
	var buf bytes.Buffer
	ctx := With(context.Background(), NewWriter(&buf, "local"))

	ctx, l := WithCall(ctx, "CA123")
	l.Info("turn")
	From(ctx).Debug("again")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	var rec map[string]any
	if err := json.Unmarshal(lines[1], &rec); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	if rec["call_id"] != "CA123" {
		t.Fatalf("expected call_id on context logger, got %v", rec["call_id"])
	}
}

func TestMiddleware_SetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewWriter(&buf, "production")))
	r.GET("/x", func(c *gin.Context) {
		From(c.Request.Context()).Info("inside")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "rid-1")
	r.ServeHTTP(w, req)

	if w.Header().Get(headerRequestID) != "rid-1" {
		t.Fatalf("expected request id echoed, got %q", w.Header().Get(headerRequestID))
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"inside","request_id":"rid-1"`)) {
		t.Fatalf("expected request-scoped log, got %s", buf.String())
	}
}
