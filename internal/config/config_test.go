package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected default worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.ModelTimeout != 30*time.Second {
		t.Errorf("expected default model timeout 30s, got %s", cfg.ModelTimeout)
	}
	if cfg.OpenRouterModel == "" {
		t.Error("expected a default model id")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("MODEL_TIMEOUT", "5s")
	t.Setenv("COMPANY_NAME", "Acme HVAC")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected worker count 8, got %d", cfg.WorkerCount)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue enabled")
	}
	if cfg.ModelTimeout != 5*time.Second {
		t.Errorf("expected model timeout 5s, got %s", cfg.ModelTimeout)
	}
	if cfg.CompanyName != "Acme HVAC" {
		t.Errorf("expected company name override, got %s", cfg.CompanyName)
	}
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")

	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected fallback to default 2, got %d", cfg.WorkerCount)
	}
}
