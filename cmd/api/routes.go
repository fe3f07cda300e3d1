package main

import (
	"net/http"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/handoff"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/httpapi"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/rbac"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/telephony"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, a *app) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), a.db, 2*time.Second); err != nil {
			logger.FromGin(c).Warn("health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	// Provider webhooks. Signed by Twilio when validation is enabled.
	hooks := r.Group("/")
	if a.cfg.Twilio.ValidateSignature {
		hooks.Use(telephony.RequireSignature(a.cfg.Twilio.AuthToken, a.cfg.Twilio.PublicBaseURL))
	}
	{
		voice := telephony.VoiceWebhookHandler{
			Turns:    a.machine,
			Renderer: telephony.NewRenderer(a.cfg.Dialog.TelephonyFormat),
		}
		hooks.POST("/ozonetel_voice_webhook", voice.HandleVoice)
		hooks.POST("/webhooks/voice", voice.HandleVoice)

		routing := handoff.Handlers{Router: a.router}
		hooks.POST("/assignment", routing.HandleAssignment)
		hooks.POST("/events", telephony.HandleEvents)
		hooks.POST("/worker_activity_update", routing.HandleWorkerStatus)
	}

	// Operator API
	v1 := r.Group("/v1/ops")
	{
		h := httpapi.Handlers{Sessions: a.sessions, Interactions: a.history}

		calls := v1.Group("/calls")
		calls.Use(httpapi.RequireOperator(a.auth, rbac.RoleOperator, rbac.RoleSupervisor)...)
		calls.GET("/:call_id", h.GetCall)

		unresolved := v1.Group("/unresolved")
		unresolved.Use(httpapi.RequireOperator(a.auth, rbac.RoleSupervisor)...)
		unresolved.GET("", h.ListUnresolved)
	}
}
