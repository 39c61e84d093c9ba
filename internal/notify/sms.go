package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSClient sends messages through a Twilio-style REST gateway. The worker
// owns the only instance; the webhook process never talks to the gateway
// directly.
type SMSClient struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Client     *http.Client
}

func NewSMSClient(baseURL, accountSID, authToken, from string) *SMSClient {
	if baseURL == "" {
		baseURL = "https://api.twilio.com/2010-04-01"
	}
	return &SMSClient{
		BaseURL:    baseURL,
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		Client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *SMSClient) Send(ctx context.Context, to, body string) error {
	if c.Client == nil {
		return errors.New("sms: http client is nil")
	}
	if strings.TrimSpace(c.AccountSID) == "" || strings.TrimSpace(c.AuthToken) == "" {
		return errors.New("sms: account credentials are required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimRight(c.BaseURL, "/"), c.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("sms: %s", msg)
	}
	return nil
}
