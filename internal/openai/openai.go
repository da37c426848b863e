package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/tracer"
)

const (
	ProviderName   = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4"
)

// ChatRequest represents the request body for OpenAI's Chat Completions API
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatMessage represents a message in the conversation
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse represents the response from OpenAI's Chat Completions API
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
	Error   *APIError    `json:"error,omitempty"`
}

// ChatChoice represents one generated alternative
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError represents an error in the API response
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config defines the configuration interface for OpenAI provider
type Config interface {
	GetModel() string
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements relay.CompletionService for OpenAI
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewProvider creates a new OpenAI provider instance
func NewProvider(config Config, logger *slog.Logger) *Provider {
	return &Provider{
		config: config,
		client: &http.Client{},
		logger: logger,
	}
}

// Name implements relay.CompletionService.
func (p *Provider) Name() string { return ProviderName }

// Complete sends the message sequence to the Chat Completions API and returns
// the content of the first choice.
func (p *Provider) Complete(ctx context.Context, messages []relay.Turn, temperature float64) (string, error) {
	_, modelName, err := relay.ParseModelString(p.config.GetModel())
	if err != nil {
		return "", fmt.Errorf("invalid model format: %w", err)
	}

	ctx, span := tracer.StartSpan(ctx, "llm.complete",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", ProviderName),
			tracer.StringAttr("llm.model", modelName),
		),
	)
	defer span.End()

	text, usage, err := p.send(ctx, modelName, messages, temperature)
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}
	span.SetAttributes(
		tracer.IntAttr("llm.prompt_tokens", usage.PromptTokens),
		tracer.IntAttr("llm.completion_tokens", usage.CompletionTokens),
	)
	tracer.SetOK(span)
	return text, nil
}

func (p *Provider) send(ctx context.Context, modelName string, messages []relay.Turn, temperature float64) (string, Usage, error) {
	reqBody := ChatRequest{
		Model:       modelName,
		Messages:    make([]ChatMessage, 0, len(messages)),
		Temperature: temperature,
	}
	for _, msg := range messages {
		reqBody.Messages = append(reqBody.Messages, ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", Usage{}, fmt.Errorf("error marshaling request: %w", err)
	}

	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to get token: %w", err)
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return "", Usage{}, fmt.Errorf("failed to get base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", Usage{}, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", Usage{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, relay.MaxResponseBody))
	if err != nil {
		return "", Usage{}, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ChatResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return "", Usage{}, relay.MapHTTPError(resp.StatusCode, errResp.Error.Message)
		}
		return "", Usage{}, relay.MapHTTPError(resp.StatusCode, string(body))
	}

	var result ChatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", Usage{}, fmt.Errorf("error parsing response: %w", err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", Usage{}, fmt.Errorf("%w (id=%s)", relay.ErrEmptyCompletion, result.ID)
	}

	p.logger.Debug("llm completion received",
		"provider", ProviderName,
		"model", result.Model,
		"tokens", result.Usage.TotalTokens,
		"finish_reason", result.Choices[0].FinishReason,
	)

	return result.Choices[0].Message.Content, result.Usage, nil
}

var _ relay.CompletionService = (*Provider)(nil)
