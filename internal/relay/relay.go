// Package relay provides the core abstractions shared by the relay service.
// It defines the Turn type exchanged with completion providers and the
// CompletionService interface that every provider adapter (openai, anthropic,
// gemini) implements.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by completion providers.
var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrEmptyCompletion     = errors.New("completion contained no text")
	ErrRateLimit           = errors.New("rate limit exceeded")
	ErrAuth                = errors.New("authentication failed")
	ErrUpstream            = errors.New("upstream service error")
)

// CompletionService turns an ordered message sequence into a single text blob.
//
// Example usage:
//
//	svc := openai.NewProvider(cfg, logger)
//	raw, err := svc.Complete(ctx, messages, 0.7)
type CompletionService interface {
	// Complete sends messages (system turn first) and returns the raw model output.
	Complete(ctx context.Context, messages []Turn, temperature float64) (string, error)

	// Name returns the provider name (e.g., "openai").
	Name() string
}

// ParseModelString parses a model string in "provider:model" format.
// Returns (provider, model, error).
//
// Example:
//
//	provider, model, err := ParseModelString("openai:gpt-4")
//	// provider = "openai", model = "gpt-4"
func ParseModelString(modelStr string) (string, string, error) {
	parts := strings.SplitN(modelStr, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid model format: %s (expected format: provider:model, e.g., openai:gpt-4)", modelStr)
	}

	provider := strings.TrimSpace(parts[0])
	model := strings.TrimSpace(parts[1])

	if provider == "" || model == "" {
		return "", "", fmt.Errorf("provider and model cannot be empty")
	}

	return provider, model, nil
}
