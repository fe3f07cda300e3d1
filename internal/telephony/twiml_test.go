package telephony

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONRenderer_Shapes(t *testing.T) {
	r := JSONRenderer{}

	cases := []struct {
		in   Instruction
		want string
	}{
		{SpeakAndListen("hi"), `{"speak":"hi","listen":true}`},
		{SpeakAndHangup("bye"), `{"speak":"bye","hangup":true}`},
		{DialAgent("+911"), `{"dial":{"number":"+911","timeout":30,"record":false}}`},
	}
	for _, tc := range cases {
		got, err := r.Render(tc.in)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(got) != tc.want {
			t.Fatalf("unexpected json: %s want %s", got, tc.want)
		}
	}
}

func TestJSONRenderer_DefaultsDialTimeout(t *testing.T) {
	got, err := JSONRenderer{}.Render(Instruction{Dial: &Dial{Number: "+911"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var doc struct {
		Dial Dial `json:"dial"`
	}
	if err := json.Unmarshal(got, &doc); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	if doc.Dial.TimeoutSeconds != 30 {
		t.Fatalf("expected default timeout, got %d", doc.Dial.TimeoutSeconds)
	}
}

func TestInstructionValidate(t *testing.T) {
	bad := []Instruction{
		{},
		{Speak: "x"},
		{Speak: "x", Listen: true, Hangup: true},
		{Speak: "x", Dial: &Dial{Number: "+1"}},
		{Dial: &Dial{Number: " "}},
	}
	for _, in := range bad {
		if err := in.Validate(); err == nil {
			t.Fatalf("expected invalid instruction for %+v", in)
		}
	}
}

func TestTwiMLRenderer_Gather(t *testing.T) {
	out, err := TwiMLRenderer{}.Render(SpeakAndListen("Hello & welcome"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	xml := string(out)
	for _, want := range []string{`<Gather input="speech"`, "<Say>Hello &amp; welcome</Say>"} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in xml: %s", want, xml)
		}
	}
	if strings.Contains(xml, "<Hangup") {
		t.Fatalf("listen must not hang up: %s", xml)
	}
}

func TestTwiMLRenderer_HangupAndDial(t *testing.T) {
	out, err := TwiMLRenderer{}.Render(SpeakAndHangup("bye"))
	if err != nil || !strings.Contains(string(out), "<Hangup></Hangup>") {
		t.Fatalf("expected hangup verb, got %s (%v)", out, err)
	}
	out, err = TwiMLRenderer{}.Render(DialAgent("+919876543210"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(out), `<Dial timeout="30" record="do-not-record">`) ||
		!strings.Contains(string(out), "<Number>+919876543210</Number>") {
		t.Fatalf("unexpected dial xml: %s", out)
	}
}

func TestNewRenderer(t *testing.T) {
	if NewRenderer("twiml").ContentType() != "application/xml" {
		t.Fatalf("expected twiml renderer")
	}
	if NewRenderer("json").ContentType() != "application/json" {
		t.Fatalf("expected json renderer")
	}
}
