// Package client talks to a running relay server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/relay/chat"
	"github.com/longkey1/thoughtrelay/internal/server"
)

// Client calls the relay HTTP endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Chat sends one message and returns the server's result.
func (c *Client) Chat(ctx context.Context, message string) (chat.Result, error) {
	var result chat.Result
	err := c.do(ctx, http.MethodPost, "/chat", server.ChatRequest{Message: message}, &result)
	return result, err
}

// Reset clears the server's conversation and returns its acknowledgement.
func (c *Client) Reset(ctx context.Context) (string, error) {
	var resp server.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/reset", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// History returns the server's current conversation.
func (c *Client) History(ctx context.Context) ([]relay.Turn, error) {
	var turns []relay.Turn
	if err := c.do(ctx, http.MethodGet, "/history", nil, &turns); err != nil {
		return nil, err
	}
	for i, turn := range turns {
		if !turn.Role.Valid() {
			return nil, fmt.Errorf("history entry %d has unknown role %q", i, turn.Role)
		}
	}
	return turns, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, relay.MaxResponseBody))
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse server response: %w", err)
	}
	return nil
}
