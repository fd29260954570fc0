// Package email sends transactional mail through the SendGrid v3 HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultBaseURL = "https://api.sendgrid.com"

// ErrNotConfigured is returned when no API key is set; callers surface it
// instead of silently dropping mail.
var ErrNotConfigured = errors.New("email: SendGrid API key not configured")

// Client is a minimal SendGrid v3 mail/send client with retrying transport.
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	apiKey    string
	fromEmail string
}

// NewClient builds a client sending from the given address. An empty
// fromEmail falls back to the system default sender.
func NewClient(apiKey, fromEmail string) *Client {
	if fromEmail == "" {
		fromEmail = "noreply@taxmanager.com"
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil

	return &Client{
		http:      rc,
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		fromEmail: fromEmail,
	}
}

// Configured reports whether the client holds an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type personalization struct {
	To      []address `json:"to"`
	Subject string    `json:"subject"`
}

type address struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Content          []content         `json:"content"`
}

// Send delivers a subject/html/text triple to a single recipient. Success
// is any 2xx response from the API.
func (c *Client) Send(ctx context.Context, to, subject, html, text string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	payload := sendRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}, Subject: subject}},
		From:             address{Email: c.fromEmail},
		// SendGrid requires text/plain before text/html
		Content: []content{},
	}
	if text != "" {
		payload.Content = append(payload.Content, content{Type: "text/plain", Value: text})
	}
	payload.Content = append(payload.Content, content{Type: "text/html", Value: html})

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("email: failed to encode payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("email: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("email: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: SendGrid returned status %d", resp.StatusCode)
	}

	return nil
}
