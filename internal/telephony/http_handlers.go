package telephony

import (
	"net/http"

	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VoiceWebhookHandler converts the voice webhook to a Turn, delegates to the
// dialog, and writes the rendered instruction.
//
// No business logic here.
type VoiceWebhookHandler struct {
	Turns    TurnHandler
	Renderer Renderer
}

// fallback is rendered when the dialog cannot be reached at all.
var fallback = SpeakAndHangup("I apologize, an unexpected error occurred. Please try again later.")

func (h VoiceWebhookHandler) HandleVoice(c *gin.Context) {
	log := logger.FromGin(c)

	r := h.Renderer
	if r == nil {
		r = JSONRenderer{}
	}

	form, err := ParseVoiceWebhook(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid is required"})
		return
	}

	in := fallback
	if h.Turns != nil {
		in = h.Turns.HandleTurn(c.Request.Context(), form.ToTurn())
	} else {
		log.Error("voice webhook has no turn handler")
	}

	body, err := r.Render(in)
	if err != nil {
		log.Error("instruction render failed", "err", err)
		body, _ = r.Render(fallback)
	}
	c.Data(http.StatusOK, r.ContentType(), body)
}

// HandleEvents acknowledges TaskRouter event callbacks.
func HandleEvents(c *gin.Context) {
	ev, err := ParseRoutingEvent(c.Request)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	logger.FromGin(c).Info("routing event",
		"event_type", ev.EventType,
		"task_sid", ev.TaskSid,
		"worker_sid", ev.WorkerSid,
	)
	c.Status(http.StatusOK)
}
