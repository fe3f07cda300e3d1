// Package messaging delivers SMS through the Twilio Messaging REST API.
package messaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.twilio.com/2010-04-01"
	maxBodyBytes   = 1 << 20
)

type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string

	// BaseURL overrides the API root; tests point it at httptest.
	BaseURL string
	Timeout time.Duration
}

// TwilioSMS sends messages via a Messaging Service. Safe for concurrent use.
type TwilioSMS struct {
	cfg    TwilioConfig
	client *http.Client
}

func NewTwilioSMS(cfg TwilioConfig) (*TwilioSMS, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("messaging: twilio credentials are required")
	}
	if cfg.MessagingServiceSID == "" {
		return nil, errors.New("messaging: messaging service sid is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TwilioSMS{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Send posts one message. Any non-2xx answer is an error.
func (s *TwilioSMS) Send(ctx context.Context, to, body string) error {
	params := url.Values{}
	params.Set("To", to)
	params.Set("Body", body)
	params.Set("MessagingServiceSid", s.cfg.MessagingServiceSID)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.cfg.BaseURL, url.PathEscape(s.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(params.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("messaging: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("messaging: twilio error (%d): %s", resp.StatusCode, string(raw))
	}
	return nil
}
