package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/thoughtrelay/internal/logger"
	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/relay/chat"
	"github.com/longkey1/thoughtrelay/internal/relay/conversation"
	"github.com/longkey1/thoughtrelay/internal/server"
)

type echoCompletion struct{}

func (echoCompletion) Complete(_ context.Context, messages []relay.Turn, _ float64) (string, error) {
	last := messages[len(messages)-1].Content
	return "You said " + last + "\n```json\n[{\"title\":\"Echo\",\"details\":\"" + last + "\"}]\n```", nil
}

func (echoCompletion) Name() string { return "echo" }

func newRelay(t *testing.T) *httptest.Server {
	t.Helper()
	orch := chat.NewOrchestrator(conversation.NewStore(), echoCompletion{}, chat.Options{}, logger.Discard())
	srv := server.New(orch, server.Options{Version: "test"}, logger.Discard())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestRoundTrip(t *testing.T) {
	ts := newRelay(t)
	c := New(ts.URL+"/", 5*time.Second)
	ctx := context.Background()

	result, err := c.Chat(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "You said hello", result.Text)
	require.Len(t, result.Reasoning, 1)
	assert.Equal(t, "Echo", result.Reasoning[0].Title)

	history, err := c.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	msg, err := c.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, server.ResetMessage, msg)

	history, err = c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSendsRequestID(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
		io.WriteString(w, `{"message":"ok"}`)
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).Reset(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 36)
}

func TestHistoryRejectsUnknownRole(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"role":"user","content":"hi"},{"role":"tool","content":"x"}]`)
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).History(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown role "tool"`)
}

func TestServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"request body must be JSON"}`)
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).Chat(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "HTTP 400"))
}
