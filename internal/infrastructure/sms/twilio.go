package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/domain"
)

// Twilio sends SMS through the Twilio Messages API: an authenticated form
// POST; HTTP 201 means accepted for delivery.
type Twilio struct {
	sid      string
	token    string
	from     string
	endpoint string
	client   *http.Client
}

func NewTwilio(cfg *config.Config) *Twilio {
	return &Twilio{
		sid:      cfg.TwilioSID,
		token:    cfg.TwilioToken,
		from:     cfg.TwilioFrom,
		endpoint: fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", cfg.TwilioSID),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *Twilio) Name() string { return "twilio" }

func (t *Twilio) Send(ctx context.Context, to, body string) error {
	if t.sid == "" || t.token == "" || t.from == "" {
		return fmt.Errorf("twilio credentials are not configured: %w", domain.ErrConfig)
	}

	form := url.Values{}
	form.Set("From", t.from)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.sid, t.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", domain.ErrDelivery)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio status %d: %s: %w", resp.StatusCode, string(respBody), domain.ErrDelivery)
	}
	return nil
}
