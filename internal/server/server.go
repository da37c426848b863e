// Package server exposes the relay over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/longkey1/thoughtrelay/internal/relay"
	"github.com/longkey1/thoughtrelay/internal/relay/chat"
)

// ResetMessage acknowledges POST /reset.
const ResetMessage = "Conversation history cleared."

// Orchestrator is the part of chat.Orchestrator the handlers need.
type Orchestrator interface {
	Chat(ctx context.Context, message string) chat.Result
	Reset()
	History() []relay.Turn
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	Version        string
}

// Server is the HTTP front of one orchestrator.
type Server struct {
	echo         *echo.Echo
	orchestrator Orchestrator
	opts         Options
	logger       *slog.Logger
}

// New builds the echo instance with middleware and routes.
func New(orchestrator Orchestrator, opts Options, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		orchestrator: orchestrator,
		opts:         opts,
		logger:       logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))
	// No AllowHeaders: echo mirrors Access-Control-Request-Headers, which
	// allows any header while still permitting credentials.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.AllowedOrigins,
		AllowCredentials: true,
	}))

	e.POST("/chat", s.handleChat)
	e.POST("/reset", s.handleReset)
	e.GET("/history", s.handleHistory)
	e.GET("/healthz", s.handleHealth)

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on the configured address and blocks until the server stops.
// A graceful Shutdown is not reported as an error.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.opts.Addr, "origins", s.opts.AllowedOrigins)
	if err := s.echo.Start(s.opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.echo.Shutdown(ctx)
}

// handleChat always answers 200 once the body decodes; completion failures
// travel in the result text.
func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Echo().JSONSerializer.Deserialize(c, &req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "request body must be JSON").SetInternal(err)
	}

	return c.JSON(http.StatusOK, s.orchestrator.Chat(c.Request().Context(), req.Message))
}

func (s *Server) handleReset(c echo.Context) error {
	s.orchestrator.Reset()
	return c.JSON(http.StatusOK, MessageResponse{Message: ResetMessage})
}

func (s *Server) handleHistory(c echo.Context) error {
	history := s.orchestrator.History()
	if history == nil {
		history = []relay.Turn{}
	}
	return c.JSON(http.StatusOK, history)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.opts.Version})
}
