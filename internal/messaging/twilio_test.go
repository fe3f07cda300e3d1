package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTwilioSMS_Send(t *testing.T) {
	var gotPath, gotTo, gotService, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo = r.PostForm.Get("To")
		gotService = r.PostForm.Get("MessagingServiceSid")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	sms, err := NewTwilioSMS(TwilioConfig{AccountSID: "AC1", AuthToken: "tok", MessagingServiceSID: "MG1", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := sms.Send(context.Background(), "+917417119014", "code"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotPath != "/Accounts/AC1/Messages.json" || gotTo != "+917417119014" || gotService != "MG1" || gotUser != "AC1" {
		t.Fatalf("unexpected request path=%s to=%s service=%s user=%s", gotPath, gotTo, gotService, gotUser)
	}
}

func TestTwilioSMS_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":21211}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sms, _ := NewTwilioSMS(TwilioConfig{AccountSID: "AC1", AuthToken: "tok", MessagingServiceSID: "MG1", BaseURL: srv.URL})
	if err := sms.Send(context.Background(), "bad", "code"); err == nil {
		t.Fatalf("expected error for 400")
	}
}

func TestNewTwilioSMS_RequiresConfig(t *testing.T) {
	if _, err := NewTwilioSMS(TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}); err == nil {
		t.Fatalf("expected error without messaging service")
	}
}
