package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/config"

	"github.com/gin-gonic/gin"
)

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "op-1", "supervisor")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.OperatorID != "op-1" || claims.Role != "supervisor" || claims.Subject != "op-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsOtherAudience(t *testing.T) {
	issuer, _ := NewManager(config.AuthConfig{JWTSecret: "secret", JWTAudience: "a"})
	verifier, _ := NewManager(config.AuthConfig{JWTSecret: "secret", JWTAudience: "b"})
	now := time.Now()
	tok, err := issuer.Issue(now, "op", "operator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(tok, now); err == nil {
		t.Fatalf("expected audience mismatch")
	}
}

func TestIssueRequiresRole(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret"})
	if _, err := m.Issue(time.Now(), "op", ""); err == nil {
		t.Fatalf("expected error without role")
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret"})

	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		id, _ := OperatorID(c.Request.Context())
		role, _ := Role(c.Request.Context())
		c.String(http.StatusOK, id+":"+role)
	})

	tok, err := m.Issue(time.Now(), "op-7", "operator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "op-7:operator" {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}
