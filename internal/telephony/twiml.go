package telephony

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strconv"
)

// Renderer serializes an Instruction for the voice vendor.
type Renderer interface {
	ContentType() string
	Render(in Instruction) ([]byte, error)
}

// NewRenderer picks a renderer by format name ("json" or "twiml").
func NewRenderer(format string) Renderer {
	if format == "twiml" {
		return TwiMLRenderer{}
	}
	return JSONRenderer{}
}

// JSONRenderer emits the instruction document as-is.
type JSONRenderer struct{}

func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(in Instruction) ([]byte, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Dial != nil && in.Dial.TimeoutSeconds <= 0 {
		d := *in.Dial
		d.TimeoutSeconds = DefaultDialTimeoutSeconds
		in.Dial = &d
	}
	return json.Marshal(in)
}

// TwiML is a minimal Twilio Markup Language response builder.
// It avoids any provider SDK dependency.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Method        string   `xml:"method,attr,omitempty"`
	Say           *twimlSay
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Timeout string   `xml:"timeout,attr,omitempty"`
	Record  string   `xml:"record,attr,omitempty"`
	Number  string   `xml:"Number"`
}

// TwiMLRenderer maps speak+listen to Gather, speak+hangup to Say+Hangup and
// dial to Dial.
type TwiMLRenderer struct{}

func (TwiMLRenderer) ContentType() string { return "application/xml" }

func (TwiMLRenderer) Render(in Instruction) ([]byte, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var r twimlResponse
	switch {
	case in.Dial != nil:
		timeout := in.Dial.TimeoutSeconds
		if timeout <= 0 {
			timeout = DefaultDialTimeoutSeconds
		}
		d := twimlDial{Timeout: strconv.Itoa(timeout), Number: in.Dial.Number, Record: "do-not-record"}
		if in.Dial.Record {
			d.Record = "record-from-answer"
		}
		r.Verbs = append(r.Verbs, d)
	case in.Listen:
		r.Verbs = append(r.Verbs, twimlGather{
			Input:         "speech",
			SpeechTimeout: "auto",
			Method:        "POST",
			Say:           &twimlSay{Text: in.Speak},
		})
	default:
		r.Verbs = append(r.Verbs, twimlSay{Text: in.Speak}, twimlHangup{})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
