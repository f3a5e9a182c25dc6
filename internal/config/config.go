// Package config loads application configuration via Viper from environment
// variables and an optional ~/.alfred/config.yaml file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultModel is the backend model used when none is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Config holds the application's configuration values.
type Config struct {
	APIKey      string
	Model       string
	GitHubToken string

	// DataDir holds the review database; defaults to ~/.alfred.
	DataDir string

	RequestTimeout  time.Duration
	MaxRetries      int
	MaxFileBytes    int
	MaxPromptBytes  int
	MinBalance      float64
	MaxOutputTokens int
	Concurrency     int

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and an optional YAML
// config file in the data directory, sets defaults, and validates bounds.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ALFRED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("model", DefaultModel)
	v.SetDefault("request_timeout", "120s")
	v.SetDefault("max_retries", 3)
	v.SetDefault("max_file_bytes", 200_000)
	v.SetDefault("max_prompt_bytes", 180_000)
	v.SetDefault("min_balance", 0.0)
	v.SetDefault("max_output_tokens", 4000)
	v.SetDefault("concurrency", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Keys also honored from the conventional unprefixed variables.
	_ = v.BindEnv("api_key", "ALFRED_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("github_token", "ALFRED_GITHUB_TOKEN", "GITHUB_TOKEN")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		APIKey:          v.GetString("api_key"),
		Model:           v.GetString("model"),
		GitHubToken:     v.GetString("github_token"),
		DataDir:         v.GetString("data_dir"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		MaxRetries:      v.GetInt("max_retries"),
		MaxFileBytes:    v.GetInt("max_file_bytes"),
		MaxPromptBytes:  v.GetInt("max_prompt_bytes"),
		MinBalance:      v.GetFloat64("min_balance"),
		MaxOutputTokens: v.GetInt("max_output_tokens"),
		Concurrency:     v.GetInt("concurrency"),
		LogLevel:        parseLogLevel(v.GetString("log_level")),
		LogFormat:       v.GetString("log_format"),
	}

	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("max_retries must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.MaxFileBytes <= 0 {
		return nil, fmt.Errorf("max_file_bytes must be positive, got %d", cfg.MaxFileBytes)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}

// MaskedAPIKey returns the API key with the middle hidden, for display.
func (c *Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return "(not set)"
	}
	if len(c.APIKey) <= 12 {
		return "****"
	}
	return c.APIKey[:8] + "..." + c.APIKey[len(c.APIKey)-4:]
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".alfred"
	}
	return filepath.Join(home, ".alfred")
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", s)
		return slog.LevelInfo
	}
}
