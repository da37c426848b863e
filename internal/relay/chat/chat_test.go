package chat

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/longkey1/thoughtrelay/internal/logger"
	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/relay/conversation"
	"github.com/longkey1/thoughtrelay/internal/relay/prompt"
	"github.com/longkey1/thoughtrelay/internal/relay/reasoning"
)

// fakeCompletion records calls and replays scripted replies.
type fakeCompletion struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	calls    [][]relay.Turn
	temps    []float64
	blockFor time.Duration
}

func (f *fakeCompletion) Complete(ctx context.Context, messages []relay.Turn, temperature float64) (string, error) {
	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, append([]relay.Turn(nil), messages...))
	f.temps = append(f.temps, temperature)
	f.mu.Unlock()

	if f.blockFor > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.blockFor):
		}
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", nil
}

func (f *fakeCompletion) Name() string { return "fake" }

func newTestOrchestrator(f *fakeCompletion, opts Options) (*Orchestrator, *conversation.Store) {
	store := conversation.NewStore()
	return NewOrchestrator(store, f, opts, logger.Discard()), store
}

func TestChatSuccess(t *testing.T) {
	f := &fakeCompletion{replies: []string{
		"Hello!\n\n```json\n[{\"title\":\"Greet\",\"details\":\"Say hello\"}]\n```",
	}}
	o, store := newTestOrchestrator(f, Options{Temperature: 0.7})

	result := o.Chat(context.Background(), "Hi")

	assert.Equal(t, "Hello!", result.Text)
	assert.Equal(t, []reasoning.Step{{ID: 1, Title: "Greet", Details: "Say hello"}}, result.Reasoning)

	history := store.Snapshot()
	require.Len(t, history, 2)
	assert.Equal(t, relay.Turn{Role: relay.RoleUser, Content: "Hi"}, history[0])
	assert.Equal(t, relay.RoleAssistant, history[1].Role)
	assert.Equal(t, f.replies[0], history[1].Content, "assistant turn stores the raw completion")

	require.Len(t, f.calls, 1)
	assert.Equal(t, []float64{0.7}, f.temps)
}

func TestChatCompletionFailure(t *testing.T) {
	f := &fakeCompletion{errs: []error{errors.New("timeout")}}
	o, store := newTestOrchestrator(f, Options{})

	result := o.Chat(context.Background(), "Hi")

	assert.Equal(t, "An error occurred: timeout", result.Text)
	assert.NotNil(t, result.Reasoning)
	assert.Empty(t, result.Reasoning)

	history := store.Snapshot()
	require.Len(t, history, 1)
	assert.Equal(t, relay.Turn{Role: relay.RoleUser, Content: "Hi"}, history[0])
}

func TestExchangeReturnsCompletionError(t *testing.T) {
	cause := errors.New("quota exceeded")
	f := &fakeCompletion{errs: []error{cause}}
	o, _ := newTestOrchestrator(f, Options{})

	_, err := o.Exchange(context.Background(), "Hi")

	var ce *CompletionError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, cause)
}

func TestOrphanedUserTurnIsSentNextTime(t *testing.T) {
	f := &fakeCompletion{
		errs:    []error{errors.New("down"), nil},
		replies: []string{"", "Back up."},
	}
	o, store := newTestOrchestrator(f, Options{SystemInstruction: "sys"})

	o.Chat(context.Background(), "first")
	o.Chat(context.Background(), "second")

	require.Len(t, f.calls, 2)
	assert.Equal(t, []relay.Turn{
		{Role: relay.RoleSystem, Content: "sys"},
		{Role: relay.RoleUser, Content: "first"},
		{Role: relay.RoleUser, Content: "second"},
	}, f.calls[1])
	assert.Equal(t, 3, store.Len())
}

func TestHistoryGrowth(t *testing.T) {
	const k = 4
	f := &fakeCompletion{}
	for i := 0; i < k; i++ {
		f.replies = append(f.replies, "answer")
	}
	o, store := newTestOrchestrator(f, Options{})

	for i := 0; i < k; i++ {
		o.Chat(context.Background(), "question")
		assert.Equal(t, 2*(i+1), store.Len())
	}

	// Each call carries the system turn plus the full history so far.
	for i, call := range f.calls {
		assert.Len(t, call, 2*i+2)
		assert.Equal(t, relay.RoleSystem, call[0].Role)
		assert.Equal(t, prompt.SystemInstruction, call[0].Content)
	}
}

func TestChatTrimsInputAndAcceptsEmpty(t *testing.T) {
	f := &fakeCompletion{replies: []string{"a", "b"}}
	o, store := newTestOrchestrator(f, Options{})

	o.Chat(context.Background(), "  padded \n")
	o.Chat(context.Background(), "   ")

	history := store.Snapshot()
	require.Len(t, history, 4)
	assert.Equal(t, "padded", history[0].Content)
	assert.Equal(t, "", history[2].Content)
}

func TestChatMalformedReasoningKeepsRawText(t *testing.T) {
	raw := "Answer\n```json\n{not json}\n```"
	f := &fakeCompletion{replies: []string{"  " + raw + "\n"}}
	o, _ := newTestOrchestrator(f, Options{})

	result := o.Chat(context.Background(), "Hi")

	assert.Equal(t, raw, result.Text)
	require.Len(t, result.Reasoning, 1)
	assert.Equal(t, "Error", result.Reasoning[0].Title)
}

func TestChatNoReasoningBlock(t *testing.T) {
	f := &fakeCompletion{replies: []string{"Plain answer."}}
	o, _ := newTestOrchestrator(f, Options{})

	result := o.Chat(context.Background(), "Hi")

	assert.Equal(t, "Plain answer.", result.Text)
	assert.Equal(t, []reasoning.Step{{ID: 1, Title: "Error", Details: "No reasoning JSON found in AI response."}}, result.Reasoning)
}

func TestChatTimeout(t *testing.T) {
	f := &fakeCompletion{blockFor: time.Second}
	o, store := newTestOrchestrator(f, Options{Timeout: 20 * time.Millisecond})

	result := o.Chat(context.Background(), "Hi")

	assert.Equal(t, ErrorPrefix+context.DeadlineExceeded.Error(), result.Text)
	assert.Empty(t, result.Reasoning)
	assert.Equal(t, 1, store.Len())
}

func TestReset(t *testing.T) {
	f := &fakeCompletion{replies: []string{"a", "b"}}
	o, store := newTestOrchestrator(f, Options{})

	o.Chat(context.Background(), "Hi")
	require.Equal(t, 2, store.Len())

	for i := 0; i < 3; i++ {
		o.Reset()
		assert.Empty(t, o.History())
	}

	o.Chat(context.Background(), "again")
	require.Len(t, f.calls, 2)
	assert.Len(t, f.calls[1], 2, "system turn plus the new user turn only")
}

func TestExchangeSpanCarriesTemperature(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := &fakeCompletion{replies: []string{"ok ```json [] ```"}}
	o, _ := newTestOrchestrator(f, Options{Temperature: 0.3})
	_, err := o.Exchange(context.Background(), "Hi")
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "chat.exchange", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Float64("llm.temperature", 0.3))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("chat.steps", 0))
}

func TestDegradedWarningOnlyForSyntheticStep(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		warn  bool
	}{
		{"no block", "plain answer", true},
		{"model wrote an Error step", "answer\n```json\n" +
			`[{"title":"Error","details":"Failed to parse reasoning JSON: quoted by the model"}]` +
			"\n```", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := &fakeCompletion{replies: []string{tt.reply}}
			o := NewOrchestrator(conversation.NewStore(), f, Options{},
				logger.NewWithWriter(&buf, logger.Options{Level: "debug"}))

			o.Chat(context.Background(), "Hi")

			assert.Equal(t, tt.warn, bytes.Contains(buf.Bytes(), []byte("reasoning block degraded")), buf.String())
		})
	}
}
