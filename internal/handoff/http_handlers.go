package handoff

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/telephony"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers exposes the router to TaskRouter and agent SMS webhooks.
type Handlers struct {
	Router *Router
}

// HandleAssignment accepts the reservation either as form fields or as
// a JSON document. Any failure is answered with reject.
func (h Handlers) HandleAssignment(c *gin.Context) {
	a, err := parseAssignment(c.Request)
	if err != nil {
		logger.FromGin(c).Warn("assignment payload invalid", "err", err)
		c.JSON(http.StatusOK, AssignmentResult{Instruction: InstructionReject})
		return
	}
	c.JSON(http.StatusOK, h.Router.OnAssignment(c.Request.Context(), a))
}

// HandleWorkerStatus answers the agent in plain text.
func (h Handlers) HandleWorkerStatus(c *gin.Context) {
	msg, err := telephony.ParseWorkerMessage(c.Request)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid request.")
		return
	}
	res, err := h.Router.SetWorkerStatus(c.Request.Context(), msg.From, msg.Body)
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) {
			if ce.Status >= http.StatusInternalServerError {
				logger.FromGin(c).Error("worker status failed", "from", msg.From, "err", err)
			}
			c.String(ce.Status, ce.Message)
			return
		}
		logger.FromGin(c).Error("worker status failed", "from", msg.From, "err", err)
		c.String(http.StatusInternalServerError, msgUpdateFailed)
		return
	}
	c.String(http.StatusOK, res.Message)
}

type assignmentJSON struct {
	TaskSid          string          `json:"TaskSid"`
	ReservationSid   string          `json:"ReservationSid"`
	WorkerSid        string          `json:"WorkerSid"`
	TaskAttributes   json.RawMessage `json:"TaskAttributes"`
	WorkerAttributes json.RawMessage `json:"WorkerAttributes"`
}

func parseAssignment(r *http.Request) (Assignment, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxResponseBytes))
		if err != nil {
			return Assignment{}, err
		}
		var body assignmentJSON
		if err := json.Unmarshal(raw, &body); err != nil {
			return Assignment{}, err
		}
		return Assignment{
			TaskSID:          body.TaskSid,
			ReservationSID:   body.ReservationSid,
			WorkerSID:        body.WorkerSid,
			TaskAttributes:   attributesString(body.TaskAttributes),
			WorkerAttributes: attributesString(body.WorkerAttributes),
		}, nil
	}
	if err := r.ParseForm(); err != nil {
		return Assignment{}, err
	}
	return Assignment{
		TaskSID:          r.PostFormValue("TaskSid"),
		ReservationSID:   r.PostFormValue("ReservationSid"),
		WorkerSID:        r.PostFormValue("WorkerSid"),
		TaskAttributes:   r.PostFormValue("TaskAttributes"),
		WorkerAttributes: r.PostFormValue("WorkerAttributes"),
	}, nil
}

// attributesString accepts attributes either embedded as an object or
// encoded as a JSON string.
func attributesString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
