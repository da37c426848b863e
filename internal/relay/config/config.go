package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/longkey1/thoughtrelay/internal/relay"
)

// SupportedProviders lists the provider prefixes accepted in Model.
var SupportedProviders = []string{"openai", "anthropic", "gemini"}

// Config holds the configuration of the relay service
type Config struct {
	Model              string        `toml:"model" mapstructure:"model"` // Format: "provider:model" (e.g., "openai:gpt-4")
	OpenAIBaseURL      string        `toml:"openai_base_url" mapstructure:"openai_base_url"`
	OpenAIToken        string        `toml:"openai_token" mapstructure:"openai_token"`
	AnthropicBaseURL   string        `toml:"anthropic_base_url" mapstructure:"anthropic_base_url"`
	AnthropicToken     string        `toml:"anthropic_token" mapstructure:"anthropic_token"`
	GeminiBaseURL      string        `toml:"gemini_base_url" mapstructure:"gemini_base_url"`
	GeminiToken        string        `toml:"gemini_token" mapstructure:"gemini_token"`
	Temperature        float64       `toml:"temperature" mapstructure:"temperature"`
	RequestTimeout     time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
	ListenAddr         string        `toml:"listen_addr" mapstructure:"listen_addr"`
	AllowedOrigins     []string      `toml:"allowed_origins" mapstructure:"allowed_origins"`
	PromptFile         string        `toml:"prompt_file" mapstructure:"prompt_file"` // Optional TOML override of the system instruction
	LogLevel           string        `toml:"log_level" mapstructure:"log_level"`
	LogFormat          string        `toml:"log_format" mapstructure:"log_format"` // "text" or "json"
	LogOutput          string        `toml:"log_output" mapstructure:"log_output"` // "stderr", "stdout" or a file path
	TracingEnabled     bool          `toml:"tracing_enabled" mapstructure:"tracing_enabled"`
	TracingExporter    string        `toml:"tracing_exporter" mapstructure:"tracing_exporter"`
	BreakerMaxFailures uint32        `toml:"breaker_max_failures" mapstructure:"breaker_max_failures"` // 0 = breaker disabled
	BreakerTimeout     time.Duration `toml:"breaker_timeout" mapstructure:"breaker_timeout"`
}

// GetModel returns the model string
func (c *Config) GetModel() string {
	return c.Model
}

// GetProvider extracts provider name from the model string
func (c *Config) GetProvider() (string, error) {
	provider, _, err := relay.ParseModelString(c.Model)
	return provider, err
}

// GetModelName extracts model name from the model string
func (c *Config) GetModelName() (string, error) {
	_, model, err := relay.ParseModelString(c.Model)
	return model, err
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Model:            "openai:gpt-4",
		OpenAIBaseURL:    "https://api.openai.com/v1",
		OpenAIToken:      "$OPENAI_API_KEY", // Default to env var
		AnthropicBaseURL: "https://api.anthropic.com/v1",
		AnthropicToken:   "$ANTHROPIC_API_KEY",
		GeminiBaseURL:    "https://generativelanguage.googleapis.com/v1beta",
		GeminiToken:      "$GEMINI_API_KEY",
		Temperature:      0.7,
		RequestTimeout:   60 * time.Second,
		ListenAddr:       ":8000",
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:3001",
			"http://localhost:8080",
		},
		LogLevel:           "info",
		LogFormat:          "text",
		LogOutput:          "stderr",
		TracingEnabled:     false,
		TracingExporter:    "stdout",
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,
	}
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("model", d.Model)
	v.SetDefault("openai_base_url", d.OpenAIBaseURL)
	v.SetDefault("openai_token", d.OpenAIToken)
	v.SetDefault("anthropic_base_url", d.AnthropicBaseURL)
	v.SetDefault("anthropic_token", d.AnthropicToken)
	v.SetDefault("gemini_base_url", d.GeminiBaseURL)
	v.SetDefault("gemini_token", d.GeminiToken)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("prompt_file", d.PromptFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_output", d.LogOutput)
	v.SetDefault("tracing_enabled", d.TracingEnabled)
	v.SetDefault("tracing_exporter", d.TracingExporter)
	v.SetDefault("breaker_max_failures", d.BreakerMaxFailures)
	v.SetDefault("breaker_timeout", d.BreakerTimeout)
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads, expands and validates configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand $VAR references in credentials and endpoints
	for _, field := range []*string{
		&config.OpenAIBaseURL, &config.OpenAIToken,
		&config.AnthropicBaseURL, &config.AnthropicToken,
		&config.GeminiBaseURL, &config.GeminiToken,
	} {
		*field = expandEnvVar(*field)
	}

	if config.PromptFile != "" {
		absPath, err := resolveAgainst(v.ConfigFileUsed(), config.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("error resolving prompt file path '%s': %w", config.PromptFile, err)
		}
		config.PromptFile = absPath
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the configuration can start the service.
func (c *Config) Validate() error {
	provider, err := c.GetProvider()
	if err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}
	if !slices.Contains(SupportedProviders, provider) {
		return fmt.Errorf("%w: %s (supported: %v)", relay.ErrUnsupportedProvider, provider, SupportedProviders)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is not configured")
	}
	return nil
}
