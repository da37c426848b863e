package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/longkey1/thoughtrelay/internal/relay/config"
)

const configFields = "configfile, model, openai_base_url, openai_token, anthropic_base_url, anthropic_token, " +
	"gemini_base_url, gemini_token, temperature, request_timeout, listen_addr, allowed_origins, prompt_file, " +
	"log_level, log_format, log_output, tracing_enabled, tracing_exporter, breaker_max_failures, breaker_timeout"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.
Tokens are masked.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  thoughtrelay config                 # Show all configuration
  thoughtrelay config model           # Show only model
  thoughtrelay config listen_addr     # Show only listen address
  thoughtrelay config openai_token    # Show only OpenAI token (masked)`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fields := configValues(cfg, viper.ConfigFileUsed())
		out := cmd.OutOrStdout()

		// If a field is specified, show only that field
		if len(args) > 0 {
			field := strings.ToLower(args[0])
			for _, f := range fields {
				if f.key == field {
					fmt.Fprintln(out, f.value)
					return nil
				}
			}
			return fmt.Errorf("unknown field: %s (available fields: %s)", args[0], configFields)
		}

		printConfig(out, fields)
		return nil
	},
}

type configField struct {
	key   string
	value string
}

func configValues(cfg *config.Config, configFile string) []configField {
	return []configField{
		{"configfile", configFile},
		{"model", cfg.Model},
		{"openai_base_url", cfg.OpenAIBaseURL},
		{"openai_token", config.MaskToken(cfg.OpenAIToken)},
		{"anthropic_base_url", cfg.AnthropicBaseURL},
		{"anthropic_token", config.MaskToken(cfg.AnthropicToken)},
		{"gemini_base_url", cfg.GeminiBaseURL},
		{"gemini_token", config.MaskToken(cfg.GeminiToken)},
		{"temperature", fmt.Sprint(cfg.Temperature)},
		{"request_timeout", cfg.RequestTimeout.String()},
		{"listen_addr", cfg.ListenAddr},
		{"allowed_origins", strings.Join(cfg.AllowedOrigins, ",")},
		{"prompt_file", cfg.PromptFile},
		{"log_level", cfg.LogLevel},
		{"log_format", cfg.LogFormat},
		{"log_output", cfg.LogOutput},
		{"tracing_enabled", fmt.Sprint(cfg.TracingEnabled)},
		{"tracing_exporter", cfg.TracingExporter},
		{"breaker_max_failures", fmt.Sprint(cfg.BreakerMaxFailures)},
		{"breaker_timeout", cfg.BreakerTimeout.String()},
	}
}

func printConfig(w io.Writer, fields []configField) {
	for _, f := range fields {
		fmt.Fprintf(w, "%s: %s\n", f.key, f.value)
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
