// Package breaker guards a completion service with a circuit breaker so a
// failing provider is short-circuited instead of hammered.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/longkey1/thoughtrelay/internal/relay"
)

const (
	defaultMaxFailures uint32 = 5
	defaultTimeout            = 30 * time.Second
	defaultInterval           = 60 * time.Second
)

// ErrOpen is returned while the circuit is open or the half-open probe is in flight.
var ErrOpen = errors.New("circuit open")

// Settings configures when the circuit opens and how long it stays open.
type Settings struct {
	MaxFailures uint32
	Timeout     time.Duration
	Interval    time.Duration
}

// Service wraps a relay.CompletionService with a circuit breaker.
type Service struct {
	inner   relay.CompletionService
	breaker *gobreaker.CircuitBreaker[string]
}

// New wraps inner. Zero-valued settings fall back to defaults.
func New(inner relay.CompletionService, s Settings, logger *slog.Logger) *Service {
	if s.MaxFailures == 0 {
		s.MaxFailures = defaultMaxFailures
	}
	if s.Timeout == 0 {
		s.Timeout = defaultTimeout
	}
	if s.Interval == 0 {
		s.Interval = defaultInterval
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm:" + inner.Name(),
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// A caller hanging up says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Service{inner: inner, breaker: cb}
}

// Complete implements relay.CompletionService.
func (s *Service) Complete(ctx context.Context, messages []relay.Turn, temperature float64) (string, error) {
	text, err := s.breaker.Execute(func() (string, error) {
		return s.inner.Complete(ctx, messages, temperature)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("provider %q %w: %w", s.inner.Name(), ErrOpen, err)
	}
	return text, err
}

// Name implements relay.CompletionService.
func (s *Service) Name() string { return s.inner.Name() }

// State reports the current breaker state.
func (s *Service) State() gobreaker.State { return s.breaker.State() }

var _ relay.CompletionService = (*Service)(nil)
