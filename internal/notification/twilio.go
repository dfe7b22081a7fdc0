package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioSender delivers SMS through the Twilio Messages REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// NewTwilioSender builds a sender for the given Twilio credentials.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the message to Twilio. The request is bounded by the caller's
// context and the client timeout.
func (s *TwilioSender) Send(ctx context.Context, msg SMS) error {
	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", s.from)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
