package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config is parsed from KEECAL_ prefixed environment variables.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Local state. DBPath and InboxDir default to files under DataDir.
	DataDir  string `envconfig:"DATA_DIR" default:"data"`
	DBPath   string `envconfig:"DB_PATH" default:""`
	InboxDir string `envconfig:"INBOX_DIR" default:""`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// IANA zone used for day boundaries; "Local" uses the host zone.
	TimeZone string `envconfig:"TIMEZONE" default:"Local"`

	// OpenAI-compatible multimodal endpoint
	LLMBaseURL string `envconfig:"LLM_BASE_URL" default:"https://openrouter.ai/api/v1"`
	LLMModel   string `envconfig:"LLM_MODEL" default:"google/gemini-2.0-flash-001"`
	LLMAPIKey  string `envconfig:"LLM_API_KEY" default:""`

	location *time.Location
}

// ResolveDefaults derives file paths and validates the time zone.
func (c *Config) ResolveDefaults() error {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "keecal.db")
	}
	if c.InboxDir == "" {
		c.InboxDir = filepath.Join(c.DataDir, "inbox")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}
	c.location = loc
	return nil
}

// New creates a new Config by parsing environment variables and logs the
// result to log at debug level.
// Example: KEECAL_HTTP_PORT, KEECAL_LLM_API_KEY
func New(log zerolog.Logger) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("KEECAL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("environment", string(cfg.Environment)).
		Str("db_path", cfg.DBPath).
		Str("inbox_dir", cfg.InboxDir).
		Int("port", cfg.HTTPPort).
		Str("timezone", cfg.location.String()).
		Str("llm_base_url", cfg.LLMBaseURL).
		Str("llm_model", cfg.LLMModel).
		Bool("llm_api_key_present", cfg.LLMAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// Location returns the zone used for calendar-day grouping.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
