// Package chat implements the request flow of the relay: record the user turn,
// call the completion service with the assembled prompt, record the answer and
// split it into text and reasoning steps.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/relay/conversation"
	"github.com/longkey1/thoughtrelay/internal/relay/prompt"
	"github.com/longkey1/thoughtrelay/internal/relay/reasoning"
	"github.com/longkey1/thoughtrelay/internal/tracer"
)

// ErrorPrefix starts the text of a Result produced by a failed completion.
const ErrorPrefix = "An error occurred: "

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = 0.7

// Result is the response contract returned to callers.
type Result struct {
	Text      string           `json:"text"`
	Reasoning []reasoning.Step `json:"reasoning"`
}

// CompletionError reports a failed completion-service call.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string { return e.Err.Error() }

func (e *CompletionError) Unwrap() error { return e.Err }

// Options configures an Orchestrator.
type Options struct {
	// SystemInstruction is prepended to every prompt. Empty means prompt.SystemInstruction.
	SystemInstruction string
	// Temperature is passed unchanged to the completion service.
	Temperature float64
	// Timeout bounds a single completion call. Zero disables it.
	Timeout time.Duration
}

// Orchestrator owns the conversation and drives one completion per request.
// It never retries.
type Orchestrator struct {
	store       *conversation.Store
	completion  relay.CompletionService
	system      string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// NewOrchestrator creates an orchestrator over store and completion.
func NewOrchestrator(store *conversation.Store, completion relay.CompletionService, opts Options, logger *slog.Logger) *Orchestrator {
	system := opts.SystemInstruction
	if system == "" {
		system = prompt.SystemInstruction
	}
	return &Orchestrator{
		store:       store,
		completion:  completion,
		system:      system,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		logger:      logger,
	}
}

// Exchange runs one request. The trimmed message is recorded as a user turn
// before the completion call and stays recorded if the call fails, in which
// case a *CompletionError is returned and no assistant turn is added.
func (o *Orchestrator) Exchange(ctx context.Context, message string) (Result, error) {
	ctx, span := tracer.StartSpan(ctx, "chat.exchange",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", o.completion.Name()),
			tracer.Float64Attr("llm.temperature", o.temperature),
		),
	)
	defer span.End()

	input := strings.TrimSpace(message)
	o.store.Append(relay.NewTurn(relay.RoleUser, input))

	messages := prompt.Build(o.system, o.store.Snapshot())
	span.SetAttributes(tracer.IntAttr("chat.messages", len(messages)))

	raw, err := o.complete(ctx, messages)
	if err != nil {
		tracer.RecordError(span, err)
		o.logger.Warn("completion failed",
			"provider", o.completion.Name(),
			"history", len(messages)-1,
			"error", err,
		)
		return Result{}, &CompletionError{Err: err}
	}

	raw = strings.TrimSpace(raw)
	o.store.Append(relay.NewTurn(relay.RoleAssistant, raw))

	text, steps, degraded := reasoning.Parse(raw)
	if degraded {
		o.logger.Warn("reasoning block degraded", "details", steps[0].Details)
	}

	span.SetAttributes(tracer.IntAttr("chat.steps", len(steps)))
	tracer.SetOK(span)
	o.logger.Debug("chat exchange completed",
		"provider", o.completion.Name(),
		"history", o.store.Len(),
		"steps", len(steps),
	)

	return Result{Text: text, Reasoning: steps}, nil
}

// Chat runs Exchange and folds a completion failure into an ordinary Result
// whose text describes the error and whose reasoning is empty.
func (o *Orchestrator) Chat(ctx context.Context, message string) Result {
	result, err := o.Exchange(ctx, message)
	if err != nil {
		return Result{Text: ErrorPrefix + err.Error(), Reasoning: []reasoning.Step{}}
	}
	return result
}

// Reset clears the conversation.
func (o *Orchestrator) Reset() {
	o.store.Clear()
	o.logger.Info("conversation reset")
}

// History returns a copy of the current conversation.
func (o *Orchestrator) History() []relay.Turn {
	return o.store.Snapshot()
}

func (o *Orchestrator) complete(ctx context.Context, messages []relay.Turn) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.completion.Complete(ctx, messages, o.temperature)
}
