package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all CurioNest configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	DBPath    string          `yaml:"db_path"`
	Provider  ProviderConfig  `yaml:"provider"`
	Budget    BudgetConfig    `yaml:"budget"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Notify    NotifyConfig    `yaml:"notify"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ProviderConfig defines the upstream completion provider.
type ProviderConfig struct {
	URL             string        `yaml:"url"`
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
}

// BudgetConfig holds the token budget caps, read once at process start.
type BudgetConfig struct {
	DailyTokens  int64 `yaml:"daily_tokens"`
	HourlyTokens int64 `yaml:"hourly_tokens"`
}

// PipelineConfig tunes the decision pipeline gates.
type PipelineConfig struct {
	RetrievalLimit int `yaml:"retrieval_limit"`
	// MaxContextTokens is the pre-admission ceiling on the estimated token
	// cost of retrieved content. It is a safety margin, not an exact
	// accounting of the full prompt.
	MaxContextTokens int `yaml:"max_context_tokens"`
}

// NotifyConfig defines the escalation mail transport.
type NotifyConfig struct {
	Enabled      bool          `yaml:"enabled"`
	BaseURL      string        `yaml:"base_url"`
	Domain       string        `yaml:"domain"`
	APIKey       string        `yaml:"api_key"`
	From         string        `yaml:"from"`
	TeacherEmail string        `yaml:"teacher_email"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RateLimitConfig controls per-client throttling on the HTTP front door.
type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	MaxClients  int           `yaml:"max_clients"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "curionest.db",
		Provider: ProviderConfig{
			URL:             "https://api.openai.com",
			Model:           "gpt-4o-mini",
			Timeout:         8 * time.Second,
			MaxOutputTokens: 512,
		},
		Budget: BudgetConfig{
			DailyTokens:  150000,
			HourlyTokens: 15000,
		},
		Pipeline: PipelineConfig{
			RetrievalLimit:   3,
			MaxContextTokens: 300,
		},
		Notify: NotifyConfig{
			BaseURL: "https://api.mailgun.net/v3",
			Timeout: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			MaxRequests: 30,
			Window:      time.Minute,
			MaxClients:  1024,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
