package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveAs(role string, allowed ...string) int {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if role != "" {
			c.Request = c.Request.WithContext(auth.WithOperator(c.Request.Context(), "op", role))
		}
		c.Next()
	}, RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveAs(RoleAdmin, RoleSupervisor); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DeniesOtherRoles(t *testing.T) {
	if code := serveAs(RoleOperator, RoleSupervisor); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_AllowsListedRole(t *testing.T) {
	if code := serveAs(RoleOperator, RoleSupervisor, RoleOperator); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_MissingRole(t *testing.T) {
	if code := serveAs("", RoleSupervisor); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestValid(t *testing.T) {
	if !Valid(RoleSupervisor) || Valid("owner") {
		t.Fatalf("unexpected role validity")
	}
}
