package cmd

import (
	"fmt"
	"log/slog"

	"github.com/longkey1/thoughtrelay/internal/anthropic"
	"github.com/longkey1/thoughtrelay/internal/breaker"
	"github.com/longkey1/thoughtrelay/internal/gemini"
	"github.com/longkey1/thoughtrelay/internal/openai"
	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/relay/chat"
	"github.com/longkey1/thoughtrelay/internal/relay/config"
	"github.com/longkey1/thoughtrelay/internal/relay/conversation"
	"github.com/longkey1/thoughtrelay/internal/relay/prompt"
)

// newProvider creates the completion service selected by the model string,
// guarded by a circuit breaker unless breaker_max_failures is 0.
func newProvider(cfg *config.Config, logger *slog.Logger) (relay.CompletionService, error) {
	providerName, err := cfg.GetProvider()
	if err != nil {
		return nil, err
	}

	var svc relay.CompletionService
	switch providerName {
	case openai.ProviderName:
		svc = openai.NewProvider(cfg, logger)
	case anthropic.ProviderName:
		svc = anthropic.NewProvider(cfg, logger)
	case gemini.ProviderName:
		svc = gemini.NewProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", relay.ErrUnsupportedProvider, providerName)
	}

	modelName, err := cfg.GetModelName()
	if err != nil {
		return nil, err
	}
	logger.Info("completion provider ready",
		"provider", providerName,
		"model", modelName,
		"breaker", cfg.BreakerMaxFailures > 0,
	)

	if cfg.BreakerMaxFailures == 0 {
		return svc, nil
	}
	return breaker.New(svc, breaker.Settings{
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
	}, logger), nil
}

// newOrchestrator wires a fresh conversation store, the configured provider
// and the effective system instruction.
func newOrchestrator(cfg *config.Config, logger *slog.Logger) (*chat.Orchestrator, error) {
	svc, err := newProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	p, err := prompt.Resolve(cfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("loading prompt: %w", err)
	}
	logger.Debug("system instruction loaded", "version", p.Version, "provider", svc.Name(), "model", cfg.Model)

	return chat.NewOrchestrator(conversation.NewStore(), svc, chat.Options{
		SystemInstruction: p.System,
		Temperature:       cfg.Temperature,
		Timeout:           cfg.RequestTimeout,
	}, logger), nil
}
