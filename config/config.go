// Package config loads and validates the admin agent configuration.
//
// Configuration is a YAML document with defaults applied before decoding,
// so a partial file (or none at all) yields a fully usable Config. All
// values are passed explicitly to the component factories; nothing in this
// package is process-global.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the admin agent.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Policy  PolicyConfig  `yaml:"policy"`
	Confirm ConfirmConfig `yaml:"confirm"`
	LLM     LLMConfig     `yaml:"llm"`
	Explain ExplainConfig `yaml:"explain"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// DataConfig controls where record collections are read and written.
type DataConfig struct {
	// SeedDir holds the immutable fixture documents.
	SeedDir string `yaml:"seed_dir"`
	// WorkingDir holds the mutable copy-on-first-write documents.
	WorkingDir string `yaml:"working_dir"`
	// Dynamic selects the working dataset; false pins collections to the seed.
	Dynamic bool `yaml:"dynamic"`
	// CacheTTL is the read-cache freshness window.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// PolicyConfig holds the policy engine thresholds.
type PolicyConfig struct {
	ConfidenceThreshold     float64      `yaml:"confidence_threshold"`
	PriceDeviationThreshold float64      `yaml:"price_deviation_threshold"`
	RiskScoreThreshold      float64      `yaml:"risk_score_threshold"`
	CustomRules             []CustomRule `yaml:"custom_rules,omitempty"`
}

// CustomRule is an operator-supplied CEL expression that forces a
// confirmation when it evaluates to true.
type CustomRule struct {
	Name   string `yaml:"name"`
	Expr   string `yaml:"expr"`
	Reason string `yaml:"reason"`
}

// ConfirmConfig selects the confirmation store backend.
type ConfirmConfig struct {
	// Backend is "memory" or "redis".
	Backend string `yaml:"backend"`
	// TTL bounds how long a pending confirmation survives. 0 means no expiry.
	TTL   time.Duration `yaml:"ttl"`
	Redis RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the confirmation store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LLMConfig controls the language-model collaborators.
type LLMConfig struct {
	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`
	// BaseURL overrides the provider endpoint, for proxies and
	// OpenAI-compatible backends. The API key comes from the environment.
	BaseURL string `yaml:"base_url"`
	// MaxToolRounds bounds the extractor's tool-calling loop.
	MaxToolRounds int `yaml:"max_tool_rounds"`
	// RequestsPerMinute rate-limits collaborator calls. 0 disables limiting.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// ExplainConfig controls the explanation stage.
type ExplainConfig struct {
	// Timeout is the explanation-generation budget before the deterministic
	// fallback is used.
	Timeout time.Duration `yaml:"timeout"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig controls logging verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with every field set to its default value.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			SeedDir:    "data/seed",
			WorkingDir: "data/working",
			Dynamic:    true,
			CacheTTL:   time.Second,
		},
		Policy: PolicyConfig{
			ConfidenceThreshold:     0.75,
			PriceDeviationThreshold: 40.0,
			RiskScoreThreshold:      0.6,
		},
		Confirm: ConfirmConfig{
			Backend: "memory",
			TTL:     15 * time.Minute,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "adminagent",
			},
		},
		LLM: LLMConfig{
			MaxToolRounds:     8,
			RequestsPerMinute: 60,
		},
		Explain: ExplainConfig{
			Timeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9464",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, applies it over the defaults, and
// validates the result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Policy.ConfidenceThreshold < 0 || c.Policy.ConfidenceThreshold > 1 {
		return fmt.Errorf("policy.confidence_threshold must be in [0,1], got %v", c.Policy.ConfidenceThreshold)
	}
	if c.Policy.PriceDeviationThreshold <= 0 {
		return fmt.Errorf("policy.price_deviation_threshold must be positive, got %v", c.Policy.PriceDeviationThreshold)
	}
	if c.Policy.RiskScoreThreshold < 0 || c.Policy.RiskScoreThreshold > 1 {
		return fmt.Errorf("policy.risk_score_threshold must be in [0,1], got %v", c.Policy.RiskScoreThreshold)
	}
	switch c.Confirm.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("confirm.backend must be \"memory\" or \"redis\", got %q", c.Confirm.Backend)
	}
	if c.Data.CacheTTL < 0 {
		return fmt.Errorf("data.cache_ttl must not be negative, got %v", c.Data.CacheTTL)
	}
	if c.Explain.Timeout <= 0 {
		return fmt.Errorf("explain.timeout must be positive, got %v", c.Explain.Timeout)
	}
	for i, rule := range c.Policy.CustomRules {
		if rule.Expr == "" {
			return fmt.Errorf("policy.custom_rules[%d]: expr must not be empty", i)
		}
	}
	return nil
}
