package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseVoiceWebhook(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&From=%2B917417119014&SpeechResult=what+is+my+EMI")
	r := httptest.NewRequest(http.MethodPost, "/ozonetel_voice_webhook", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseVoiceWebhook(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	turn := form.ToTurn()
	if turn.CallID != "CA123" || turn.From != "+917417119014" || turn.Transcript != "what is my EMI" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
}

func TestParseVoiceWebhook_RestoresUnescapedPlus(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("CallSid=CA1&From=+917417119014&Digits=1234"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseVoiceWebhook(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.From != "+917417119014" {
		t.Fatalf("expected plus restored, got %q", form.From)
	}
	if form.Transcript() != "1234" {
		t.Fatalf("expected digits fallback, got %q", form.Transcript())
	}
}

type stubTurns struct {
	got Turn
	out Instruction
}

func (s *stubTurns) HandleTurn(_ context.Context, turn Turn) Instruction {
	s.got = turn
	return s.out
}

func TestVoiceWebhookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	turns := &stubTurns{out: SpeakAndListen("Hello!")}
	r := gin.New()
	r.POST("/voice", VoiceWebhookHandler{Turns: turns, Renderer: JSONRenderer{}}.HandleVoice)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/voice", strings.NewReader("CallSid=CA9&From=%2B15551234567"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != `{"speak":"Hello!","listen":true}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if turns.got.CallID != "CA9" || turns.got.Transcript != "" {
		t.Fatalf("unexpected turn %+v", turns.got)
	}
}

func TestVoiceWebhookHandler_InvalidInstructionFallsBack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/voice", VoiceWebhookHandler{Turns: &stubTurns{}, Renderer: JSONRenderer{}}.HandleVoice)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/voice", strings.NewReader("CallSid=CA9"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `"hangup":true`) {
		t.Fatalf("expected apology hangup, got %s", w.Body.String())
	}
}

func TestVoiceWebhookHandler_RequiresCallSid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/voice", VoiceWebhookHandler{Turns: &stubTurns{}}.HandleVoice)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/voice", strings.NewReader("From=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRequireSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/voice", RequireSignature("token", "https://bot.example.com"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	form := url.Values{"CallSid": {"CA1"}, "From": {"+15551234567"}}
	sig := ComputeSignature("token", "https://bot.example.com/voice", form)

	send := func(signature string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/voice", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if signature != "" {
			req.Header.Set(headerTwilioSignature, signature)
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send(sig); code != http.StatusNoContent {
		t.Fatalf("expected valid signature to pass, got %d", code)
	}
	if code := send("bogus"); code != http.StatusForbidden {
		t.Fatalf("expected 403 for bad signature, got %d", code)
	}
	if code := send(""); code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing signature, got %d", code)
	}
}
