// Package buttondown delivers rendered digests to subscribers through the
// Buttondown email API and groups subscribers by their stored geographic
// preferences.
package buttondown

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.buttondown.email/v1"

// Client talks to the Buttondown REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Buttondown client authenticated with the given token.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Subscriber is a Buttondown subscriber with its raw metadata. Metadata may
// arrive as a JSON object or as a JSON-encoded string of one.
type Subscriber struct {
	Email          string          `json:"email"`
	SubscriberType string          `json:"subscriber_type"`
	Metadata       json.RawMessage `json:"metadata"`
}

type subscribersResponse struct {
	Results []Subscriber `json:"results"`
}

// Subscribers lists all subscribers.
func (c *Client) Subscribers(ctx context.Context) ([]Subscriber, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/subscribers", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("buttondown API error: status %d: %s", resp.StatusCode, body)
	}

	var sr subscribersResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode subscribers: %w", err)
	}
	return sr.Results, nil
}

// emailRequest is the payload for POST /emails. Exactly one of Recipients or
// Segment should be set for a targeted send; neither means a full-list send.
type emailRequest struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	EmailType  string   `json:"email_type"`
	Recipients []string `json:"recipients,omitempty"`
	Segment    string   `json:"segment,omitempty"`
}

// SendEmail sends a markdown-bodied email to the given recipients, or to a
// segment when recipients is empty and segment is set.
func (c *Client) SendEmail(ctx context.Context, subject, body string, recipients []string, segment string) error {
	payload := emailRequest{
		Subject:    subject,
		Body:       body,
		EmailType:  "public",
		Recipients: recipients,
		Segment:    segment,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("buttondown API error: status %d: %s", resp.StatusCode, respBody)
	}

	c.logger.Debug("email sent", "subject", subject, "recipients", len(recipients), "segment", segment)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Token "+c.apiKey)
}
