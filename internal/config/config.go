// Package config loads the agent configuration from an optional YAML file
// with environment variable overrides. Secrets are only read from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Circle CircleConfig `yaml:"circle"`
	Scorer ScorerConfig `yaml:"scorer"`
	Agent  AgentConfig  `yaml:"agent"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RedisConfig holds the KV store connection. Empty Addr selects the
// in-memory store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

// CircleConfig holds the payment provider settings. Keys come from the
// environment only.
type CircleConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"-"`
	EntitySecret string `yaml:"-"`
	USDCAddress  string `yaml:"usdc_address"`
}

// ScorerConfig holds the model provider settings.
type ScorerConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
}

// AgentConfig holds decision policy defaults.
type AgentConfig struct {
	PaymentThreshold float64 `yaml:"payment_threshold"`
	SweepSchedule    string  `yaml:"sweep_schedule"`
	AuthSecret       string  `yaml:"-"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8787"},
		Agent:  AgentConfig{PaymentThreshold: 0.10},
	}
}

// Load reads the configuration file at path when it exists, then applies
// environment overrides. A missing file is not an error; a malformed one
// is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "ARCPAY_ADDR")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Circle.BaseURL, "CIRCLE_API_URL")
	setString(&cfg.Circle.APIKey, "CIRCLE_API_KEY")
	setString(&cfg.Circle.EntitySecret, "ENTITY_SECRET")
	setString(&cfg.Circle.USDCAddress, "USDC_ADDRESS")
	setString(&cfg.Scorer.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.Scorer.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Scorer.Model, "OPENAI_MODEL")
	setString(&cfg.Agent.SweepSchedule, "SUBSCRIPTION_SWEEP_SCHEDULE")
	setString(&cfg.Agent.AuthSecret, "AUTH_SECRET")
	setFloat(&cfg.Agent.PaymentThreshold, "PAYMENT_THRESHOLD")
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*dst = parsed
		}
	}
}
