package anthropic

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
	ProviderName     = "anthropic"
	DefaultBaseURL   = "https://api.anthropic.com/v1"
	DefaultModel     = "claude-3-5-sonnet-20241022"
	AnthropicVersion = "2023-06-01"
	DefaultMaxTokens = 4096
)

// MessagesAPIRequest represents the request body for Anthropic's Messages API
type MessagesAPIRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system,omitempty"` // System prompt (optional)
	Messages    []MessageInput `json:"messages"`
	Temperature float64        `json:"temperature"`
}

// MessageInput represents a message in the conversation
type MessageInput struct {
	Role    string    `json:"role"`    // "user" or "assistant"
	Content []Content `json:"content"` // Array of content blocks
}

// Content represents a content block
type Content struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

// MessagesAPIResponse represents the response from Anthropic's Messages API
type MessagesAPIResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []ResponseContent `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
	Usage      Usage             `json:"usage"`
	Error      *APIError         `json:"error,omitempty"`
}

// ResponseContent represents a content block in the response
type ResponseContent struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// APIError represents an error in the API response
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config defines the configuration interface for Anthropic provider
type Config interface {
	GetModel() string
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements relay.CompletionService for Anthropic
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewProvider creates a new Anthropic provider instance
func NewProvider(config Config, logger *slog.Logger) *Provider {
	return &Provider{
		config: config,
		client: &http.Client{},
		logger: logger,
	}
}

// Name implements relay.CompletionService.
func (p *Provider) Name() string { return ProviderName }

// toMessagesRequest moves system turns into the top-level system field; the
// Messages API only accepts user and assistant roles in messages.
func toMessagesRequest(modelName string, messages []relay.Turn, temperature float64) MessagesAPIRequest {
	var system []string
	inputMessages := make([]MessageInput, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == relay.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		inputMessages = append(inputMessages, MessageInput{
			Role:    string(msg.Role),
			Content: []Content{{Type: "text", Text: msg.Content}},
		})
	}

	return MessagesAPIRequest{
		Model:       modelName,
		MaxTokens:   DefaultMaxTokens,
		System:      strings.Join(system, "\n\n"),
		Messages:    inputMessages,
		Temperature: temperature,
	}
}

// Complete sends the conversation to the Messages API and returns the joined
// text blocks of the reply.
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

	text, err := p.send(ctx, toMessagesRequest(modelName, messages, temperature))
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}
	tracer.SetOK(span)
	return text, nil
}

func (p *Provider) send(ctx context.Context, reqBody MessagesAPIRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return "", fmt.Errorf("failed to get base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", token)
	req.Header.Set("anthropic-version", AnthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, relay.MaxResponseBody))
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp MessagesAPIResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return "", relay.MapHTTPError(resp.StatusCode, fmt.Sprintf("[%s] %s", errResp.Error.Type, errResp.Error.Message))
		}
		return "", relay.MapHTTPError(resp.StatusCode, string(body))
	}

	var result MessagesAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("API error [%s]: %s (id=%s)", result.Error.Type, result.Error.Message, result.ID)
	}

	// Extract text from content blocks
	var textBlocks []string
	for _, content := range result.Content {
		if content.Type == "text" && content.Text != "" {
			textBlocks = append(textBlocks, content.Text)
		}
	}

	if len(textBlocks) == 0 {
		return "", fmt.Errorf("%w (id=%s)", relay.ErrEmptyCompletion, result.ID)
	}

	p.logger.Debug("llm completion received",
		"provider", ProviderName,
		"model", result.Model,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
		"stop_reason", result.StopReason,
	)

	return strings.Join(textBlocks, "\n"), nil
}

var _ relay.CompletionService = (*Provider)(nil)
