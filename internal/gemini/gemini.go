package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/tracer"
)

const (
	ProviderName   = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

// GeminiRequest represents the request body for Gemini's generate content API
type GeminiRequest struct {
	Contents          []GeminiContent          `json:"contents"`
	SystemInstruction *GeminiSystemInstruction `json:"system_instruction,omitempty"`
	GenerationConfig  GenerationConfig         `json:"generationConfig"`
}

// GeminiSystemInstruction represents system instruction for Gemini
type GeminiSystemInstruction struct {
	Parts []GeminiPart `json:"parts"`
}

// GeminiContent represents a content item in the Gemini request format
type GeminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of the content in the Gemini request format
type GeminiPart struct {
	Text string `json:"text"`
}

// GenerationConfig carries sampling parameters.
type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

// GeminiResponse represents the full response from Gemini API
type GeminiResponse struct {
	Candidates    []GeminiCandidate `json:"candidates"`
	UsageMetadata *UsageMetadata    `json:"usageMetadata,omitempty"`
	Error         *APIError         `json:"error,omitempty"`
}

// GeminiCandidate represents a candidate response
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

// UsageMetadata represents token usage information
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

// APIError represents an error in the API response
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Config defines the configuration interface for Gemini provider
type Config interface {
	GetModel() string
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements relay.CompletionService for Gemini
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewProvider creates a new Gemini provider instance
func NewProvider(config Config, logger *slog.Logger) *Provider {
	return &Provider{
		config: config,
		client: &http.Client{},
		logger: logger,
	}
}

// Name implements relay.CompletionService.
func (p *Provider) Name() string { return ProviderName }

func toGeminiRequest(messages []relay.Turn, temperature float64) GeminiRequest {
	req := GeminiRequest{
		Contents:         make([]GeminiContent, 0, len(messages)),
		GenerationConfig: GenerationConfig{Temperature: temperature},
	}

	var system []GeminiPart
	for _, msg := range messages {
		switch msg.Role {
		case relay.RoleSystem:
			system = append(system, GeminiPart{Text: msg.Content})
		case relay.RoleAssistant:
			// Gemini uses "model" instead of "assistant"
			req.Contents = append(req.Contents, GeminiContent{Role: "model", Parts: []GeminiPart{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, GeminiContent{Role: "user", Parts: []GeminiPart{{Text: msg.Content}}})
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &GeminiSystemInstruction{Parts: system}
	}
	return req
}

// Complete sends the conversation to generateContent and returns the text of
// the first candidate.
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

	text, err := p.send(ctx, modelName, toGeminiRequest(messages, temperature))
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}
	tracer.SetOK(span)
	return text, nil
}

func (p *Provider) send(ctx context.Context, modelName string, reqBody GeminiRequest) (string, error) {
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

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(modelName), url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// url.Error embeds the endpoint, which carries the key
		if ue, ok := err.(*url.Error); ok {
			return "", fmt.Errorf("error sending request: %w", ue.Err)
		}
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, relay.MaxResponseBody))
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp GeminiResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return "", relay.MapHTTPError(resp.StatusCode, fmt.Sprintf("[%s] %s", errResp.Error.Status, errResp.Error.Message))
		}
		return "", relay.MapHTTPError(resp.StatusCode, string(body))
	}

	var result GeminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", relay.ErrEmptyCompletion)
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	attrs := []any{"provider", ProviderName, "model", modelName, "finish_reason", result.Candidates[0].FinishReason}
	if result.UsageMetadata != nil {
		attrs = append(attrs,
			"prompt_tokens", result.UsageMetadata.PromptTokenCount,
			"completion_tokens", result.UsageMetadata.CandidatesTokenCount,
		)
	}
	p.logger.Debug("llm completion received", attrs...)

	return sb.String(), nil
}

var _ relay.CompletionService = (*Provider)(nil)
