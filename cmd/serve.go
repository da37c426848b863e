package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/longkey1/thoughtrelay/internal/logger"
	"github.com/longkey1/thoughtrelay/internal/relay/config"
	"github.com/longkey1/thoughtrelay/internal/server"
	"github.com/longkey1/thoughtrelay/internal/tracer"
	"github.com/longkey1/thoughtrelay/internal/version"
)

const shutdownTimeout = 10 * time.Second

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP relay",
	Long: `Run the HTTP relay with a single in-memory conversation.

Endpoints:
  POST /chat     {"message": "..."} -> {"text": "...", "reasoning": [{"id", "title", "details"}]}
  POST /reset    clears the conversation
  GET  /history  current conversation
  GET  /healthz  liveness and version

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("listen") {
			cfg.ListenAddr = listenAddr
		}

		log, closeLog, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracer, err := tracer.Setup(ctx, tracer.Options{
			Enabled:  cfg.TracingEnabled,
			Exporter: cfg.TracingExporter,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer shutdownTracer(context.Background())

		orchestrator, err := newOrchestrator(cfg, log)
		if err != nil {
			return err
		}

		srv := server.New(orchestrator, server.Options{
			Addr:           cfg.ListenAddr,
			AllowedOrigins: cfg.AllowedOrigins,
			Version:        version.Short(),
		}, log)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return <-errCh
	},
}

func newLogger(cfg *config.Config) (*slog.Logger, func() error, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, closer, err := logger.New(logger.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return log, closer, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides listen_addr)")
}
