// Package push delivers notifications through the Expo push HTTP API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the Expo push send endpoint.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

// Message is the JSON body accepted by the push endpoint.
type Message struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Data  *Data  `json:"data,omitempty"`
}

// Data carries the deep link opened when the notification is tapped.
type Data struct {
	URL string `json:"url"`
}

// Pusher sends a single push notification.
type Pusher interface {
	Send(ctx context.Context, msg Message) error
}

// Client is a Pusher backed by net/http.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

// NewClient creates a client for endpoint with the given request timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Send posts msg. Only the HTTP status is inspected; ticket contents in the
// response body are ignored.
func (c *Client) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}
