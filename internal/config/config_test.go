package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8787" {
		t.Fatalf("addr = %q, want default :8787", cfg.Server.Addr)
	}
	if cfg.Agent.PaymentThreshold != 0.10 {
		t.Fatalf("threshold = %v, want default 0.10", cfg.Agent.PaymentThreshold)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  addr: ":9090"
  allowed_origins: ["https://app.example.com"]
redis:
  addr: "localhost:6379"
  db: 2
agent:
  payment_threshold: 0.25
  sweep_schedule: "*/30 * * * *"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 1 {
		t.Fatalf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.Agent.PaymentThreshold != 0.25 {
		t.Fatalf("threshold = %v", cfg.Agent.PaymentThreshold)
	}
	if cfg.Agent.SweepSchedule != "*/30 * * * *" {
		t.Fatalf("schedule = %q", cfg.Agent.SweepSchedule)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARCPAY_ADDR", ":7000")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CIRCLE_API_KEY", "secret-key")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("PAYMENT_THRESHOLD", "0.5")
	t.Setenv("AUTH_SECRET", "0123456789abcdef")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 3 {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.Circle.APIKey != "secret-key" {
		t.Fatalf("circle key not read from env")
	}
	if cfg.Scorer.Model != "gpt-4o" {
		t.Fatalf("model = %q", cfg.Scorer.Model)
	}
	if cfg.Agent.PaymentThreshold != 0.5 {
		t.Fatalf("threshold = %v", cfg.Agent.PaymentThreshold)
	}
	if cfg.Agent.AuthSecret != "0123456789abcdef" {
		t.Fatalf("auth secret not read from env")
	}
}

func TestEnvIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("PAYMENT_THRESHOLD", "lots")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.DB != 0 {
		t.Fatalf("db = %v, want default 0", cfg.Redis.DB)
	}
	if cfg.Agent.PaymentThreshold != 0.10 {
		t.Fatalf("threshold = %v, want default", cfg.Agent.PaymentThreshold)
	}
}
