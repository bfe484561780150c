// Package bridge implements the Transport Adapter's bridge channel: an
// outbound REST client plus an inbound webhook receiver, the same shape
// as the teacher's Baileys bridge integration, generalized to any
// WhatsApp-style bridge process.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Client talks to the bridge process's REST surface.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a bridge REST client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type sendRequest struct {
	JID     string `json:"jid"`
	Content string `json:"content"`
}

type presenceRequest struct {
	JID    string `json:"jid"`
	Typing bool   `json:"typing"`
}

type chatsResponse struct {
	Chats []struct {
		JID             string `json:"jid"`
		Name            string `json:"name"`
		LastMessageTime int64  `json:"lastMessageTime"`
	} `json:"chats"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "bridge: marshal request")
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "bridge: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-bridge-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "bridge: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("bridge: %s %s returned status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Send delivers text to a chat through the bridge.
func (c *Client) Send(ctx context.Context, jid, text string) error {
	return c.do(ctx, http.MethodPost, "/send", &sendRequest{JID: jid, Content: text}, nil)
}

// SetPresence toggles typing state through the bridge.
func (c *Client) SetPresence(ctx context.Context, jid string, typing bool) error {
	return c.do(ctx, http.MethodPost, "/presence", &presenceRequest{JID: jid, Typing: typing}, nil)
}

// ListChats lists the bridge's known chats.
func (c *Client) ListChats(ctx context.Context) ([]chatSummary, error) {
	var resp chatsResponse
	if err := c.do(ctx, http.MethodGet, "/chats", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]chatSummary, 0, len(resp.Chats))
	for _, ch := range resp.Chats {
		out = append(out, chatSummary{JID: ch.JID, Name: ch.Name, LastMessageTime: ch.LastMessageTime})
	}
	return out, nil
}

type chatSummary struct {
	JID             string
	Name            string
	LastMessageTime int64
}

// HealthCheck confirms the bridge process is up and the session is
// connected before the router starts trusting it for sends.
func (c *Client) HealthCheck(ctx context.Context) error {
	var status struct {
		Connected bool `json:"connected"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return err
	}
	if !status.Connected {
		return fmt.Errorf("bridge: session not connected")
	}
	return nil
}

// Reauth asks the bridge to drop its current session and start a fresh
// pairing flow, returning whatever the bridge hands back for the
// operator to act on (a QR code payload or a pairing code string,
// depending on how the bridge is configured).
func (c *Client) Reauth(ctx context.Context) (string, error) {
	var resp struct {
		Pairing string `json:"pairing"`
	}
	if err := c.do(ctx, http.MethodPost, "/reauth", nil, &resp); err != nil {
		return "", err
	}
	return resp.Pairing, nil
}
