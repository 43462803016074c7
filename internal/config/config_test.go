package config

import (
	"testing"
	"time"

	"pharmacare/backend/internal/snapshot"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGIN", "DATABASE_URL", "REDIS_ADDR",
		"AUTOSAVE_PATH", "AUTOSAVE_INTERVAL_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" || cfg.Address() != ":8080" {
		t.Fatalf("unexpected port config: %+v", cfg)
	}
	if cfg.DatabaseURL != "" || cfg.RedisAddr != "" {
		t.Fatalf("external backends must stay unset by default: %+v", cfg)
	}
	if cfg.AutosavePath != snapshot.DefaultPath() {
		t.Fatalf("autosave path = %q, want %q", cfg.AutosavePath, snapshot.DefaultPath())
	}
	if cfg.AutosaveInterval != 5*time.Minute {
		t.Fatalf("autosave interval = %s, want 5m", cfg.AutosaveInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTOSAVE_INTERVAL_SECONDS", "60")
	t.Setenv("AUTOSAVE_PATH", "/tmp/custom.json")

	cfg := Load()
	if cfg.Address() != ":9090" {
		t.Fatalf("address = %q", cfg.Address())
	}
	if cfg.AutosaveInterval != time.Minute {
		t.Fatalf("interval = %s", cfg.AutosaveInterval)
	}
	if cfg.AutosavePath != "/tmp/custom.json" {
		t.Fatalf("path = %q", cfg.AutosavePath)
	}
}

func TestLoadIgnoresBadInterval(t *testing.T) {
	t.Setenv("AUTOSAVE_INTERVAL_SECONDS", "not-a-number")
	if cfg := Load(); cfg.AutosaveInterval != 5*time.Minute {
		t.Fatalf("bad interval must fall back to 5m, got %s", cfg.AutosaveInterval)
	}
	t.Setenv("AUTOSAVE_INTERVAL_SECONDS", "0")
	if cfg := Load(); cfg.AutosaveInterval != 5*time.Minute {
		t.Fatalf("zero interval must fall back to 5m, got %s", cfg.AutosaveInterval)
	}
}
