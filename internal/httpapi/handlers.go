package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/auth"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/dialog"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/interactions"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/rbac"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/speech"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the ops API handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Sessions     dialog.Store
	Interactions *interactions.Service
}

type callView struct {
	CallID       string                     `json:"call_id"`
	SessionID    string                     `json:"session_id"`
	Stage        dialog.Stage               `json:"stage"`
	Intent       string                     `json:"intent,omitempty"`
	CustomerID   string                     `json:"customer_id,omitempty"`
	AccountID    string                     `json:"account_id,omitempty"`
	PhoneNumber  string                     `json:"phone_number,omitempty"`
	CallerNumber string                     `json:"caller_number,omitempty"`
	WorkItemID   string                     `json:"work_item_id,omitempty"`
	Bridged      bool                       `json:"bridged"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
	Transcript   []interactions.Interaction `json:"transcript"`
}

// GetCall returns the live session and transcript for a call.
// RBAC: supervisor or operator. Phone numbers are masked.
func (h Handlers) GetCall(c *gin.Context) {
	if h.Sessions == nil || h.Interactions == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ops api not configured"})
		return
	}
	callID := c.Param("call_id")
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}

	sess, err := h.Sessions.Get(c.Request.Context(), callID)
	if errors.Is(err, dialog.ErrSessionNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("ops session lookup failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return
	}

	transcript, err := h.Interactions.Transcript(c.Request.Context(), callID)
	if err != nil {
		logger.FromGin(c).Error("ops transcript lookup failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "transcript lookup failed"})
		return
	}
	if transcript == nil {
		transcript = []interactions.Interaction{}
	}

	operatorID, _ := auth.OperatorID(c.Request.Context())
	logger.FromGin(c).Info("ops call viewed", "call_id", callID, "operator_id", operatorID)

	c.JSON(http.StatusOK, callView{
		CallID:       sess.CallID,
		SessionID:    sess.SessionID,
		Stage:        sess.Stage,
		Intent:       sess.Intent,
		CustomerID:   sess.CustomerID,
		AccountID:    sess.AccountID,
		PhoneNumber:  speech.MaskPhone(sess.PhoneNumber),
		CallerNumber: speech.MaskPhone(sess.CallerNumber),
		WorkItemID:   sess.WorkItemID,
		Bridged:      sess.Bridged,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
		Transcript:   transcript,
	})
}

// ListUnresolved returns recent handoff summaries, newest first.
// RBAC: supervisor.
func (h Handlers) ListUnresolved(c *gin.Context) {
	if h.Interactions == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ops api not configured"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	list, err := h.Interactions.Unresolved(c.Request.Context(), limit)
	if err != nil {
		logger.FromGin(c).Error("ops unresolved lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unresolved lookup failed"})
		return
	}
	if list == nil {
		list = []interactions.UnresolvedSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// RequireOperator bundles token verification and role checks.
func RequireOperator(m *auth.Manager, roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{auth.RequireAccessToken(m), rbac.RequireAnyRole(roles...)}
}
