// Package config loads the optional rescribe.yaml settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rescribe/internal/llm"
	"github.com/roach88/rescribe/internal/prompt"
)

// DefaultPath is probed when no --config flag is given.
const DefaultPath = "rescribe.yaml"

// Config holds file-supplied settings. Every field is optional; zero
// values defer to the package defaults downstream (llm.Config fills model,
// base URL, and timeout; the prompt builder fills the truncation
// threshold). The API key is never configured here - the driver reads it
// from the environment.
type Config struct {
	// Model names the generation model to request.
	Model string `yaml:"model,omitempty"`

	// BaseURL is the OpenAI-compatible endpoint base.
	BaseURL string `yaml:"base_url,omitempty"`

	// MaxOutputTokens caps generated length when positive.
	MaxOutputTokens int `yaml:"max_output_tokens,omitempty"`

	// Temperature sets the sampling temperature when positive.
	Temperature float64 `yaml:"temperature,omitempty"`

	// TimeoutSeconds bounds each generation call.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// MaxResultLength truncates tool results in prompts.
	MaxResultLength int `yaml:"max_result_length,omitempty"`

	// Ledger is the outcome database path. Empty disables recording.
	Ledger string `yaml:"ledger,omitempty"`
}

// Load reads and parses a config YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or carries out-of-range values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Strict field validation catches typos like "baseurl" vs "base_url"
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		// An empty or comment-only file means all defaults.
		if errors.Is(err, io.EOF) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads DefaultPath if it exists, otherwise returns an empty
// config.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat(DefaultPath); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return Load(DefaultPath)
}

// Validate checks field values are in range.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
		}
	}

	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("max_output_tokens must be non-negative, got %d", c.MaxOutputTokens)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}

	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be non-negative, got %d", c.TimeoutSeconds)
	}

	if c.MaxResultLength < 0 {
		return fmt.Errorf("max_result_length must be non-negative, got %d", c.MaxResultLength)
	}

	return nil
}

// ServiceConfig materializes the generation client config with the given
// API key.
func (c *Config) ServiceConfig(apiKey string) llm.Config {
	return llm.Config{
		BaseURL:         c.BaseURL,
		Model:           c.Model,
		APIKey:          apiKey,
		MaxOutputTokens: c.MaxOutputTokens,
		Temperature:     c.Temperature,
		Timeout:         time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

// PromptOptions materializes the prompt render options.
func (c *Config) PromptOptions() prompt.Options {
	return prompt.Options{MaxResultLength: c.MaxResultLength}
}
