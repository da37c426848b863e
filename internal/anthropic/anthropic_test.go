package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/thoughtrelay/internal/logger"
	"github.com/longkey1/thoughtrelay/internal/relay"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetModel() string { return "anthropic:claude-test" }

func (c testConfig) GetBaseURL(string) (string, error) { return c.baseURL, nil }

func (c testConfig) GetToken(string) (string, error) { return "ant-key", nil }

func TestToMessagesRequest(t *testing.T) {
	req := toMessagesRequest("claude-test", []relay.Turn{
		{Role: relay.RoleSystem, Content: "sys"},
		{Role: relay.RoleUser, Content: "Hi"},
		{Role: relay.RoleAssistant, Content: "Hello"},
	}, 0.5)

	assert.Equal(t, "claude-test", req.Model)
	assert.Equal(t, "sys", req.System)
	assert.Equal(t, 0.5, req.Temperature)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "Hi", req.Messages[0].Content[0].Text)
	assert.Equal(t, "assistant", req.Messages[1].Role)
}

func TestProviderComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ant-key", r.Header.Get("x-api-key"))
		assert.Equal(t, AnthropicVersion, r.Header.Get("anthropic-version"))

		var req MessagesAPIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sys", req.System)

		json.NewEncoder(w).Encode(MessagesAPIResponse{
			ID:    "msg_1",
			Model: "claude-test",
			Content: []ResponseContent{
				{Type: "text", Text: "part one"},
				{Type: "text", Text: "part two"},
			},
		})
	}))
	defer server.Close()

	p := NewProvider(testConfig{baseURL: server.URL}, logger.Discard())
	got, err := p.Complete(context.Background(), []relay.Turn{
		{Role: relay.RoleSystem, Content: "sys"},
		{Role: relay.RoleUser, Content: "Hi"},
	}, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "part one\npart two", got)
	assert.Equal(t, "anthropic", p.Name())
}

func TestProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, relay.ErrUpstream},
		{"auth", 401, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, relay.ErrAuth},
		{"no text", 200, `{"id":"msg_2","content":[]}`, relay.ErrEmptyCompletion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewProvider(testConfig{baseURL: server.URL}, logger.Discard()).
				Complete(context.Background(), []relay.Turn{{Role: relay.RoleUser, Content: "Hi"}}, 0.7)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}
