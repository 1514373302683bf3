package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q, expected 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver = %q, expected sqlite", cfg.Database.Driver)
	}
	if cfg.Auth.AccessTokenMinutes != 120 {
		t.Errorf("default access token minutes = %d, expected 120", cfg.Auth.AccessTokenMinutes)
	}
	if cfg.Auth.RefreshLifetimeDays != 14 {
		t.Errorf("default refresh lifetime = %d, expected 14", cfg.Auth.RefreshLifetimeDays)
	}
	if cfg.Janitor.IntervalHours != 6 || cfg.Janitor.RetentionDays != 30 {
		t.Errorf("default janitor config = %+v", cfg.Janitor)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, expected default 8080", cfg.Server.Port)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9090"
  mode: test
auth:
  signing_key: file-key
  access_token_minutes: 30
janitor:
  retention_days: 7
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, expected 9090", cfg.Server.Port)
	}
	if cfg.Auth.SigningKey != "file-key" {
		t.Errorf("signing key = %q, expected file-key", cfg.Auth.SigningKey)
	}
	if cfg.Auth.AccessTokenMinutes != 30 {
		t.Errorf("access token minutes = %d, expected 30", cfg.Auth.AccessTokenMinutes)
	}
	if cfg.Janitor.RetentionDays != 7 {
		t.Errorf("retention days = %d, expected 7", cfg.Janitor.RetentionDays)
	}
	// Untouched values keep their defaults
	if cfg.Janitor.IntervalHours != 6 {
		t.Errorf("interval hours = %d, expected default 6", cfg.Janitor.IntervalHours)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("AUTH_SIGNING_KEY", "env-key")
	t.Setenv("AUTH_REFRESH_LIFETIME_DAYS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, expected env override 7070", cfg.Server.Port)
	}
	if cfg.Auth.SigningKey != "env-key" {
		t.Errorf("signing key = %q, expected env-key", cfg.Auth.SigningKey)
	}
	if cfg.Auth.RefreshLifetimeDays != 3 {
		t.Errorf("refresh lifetime = %d, expected 3", cfg.Auth.RefreshLifetimeDays)
	}
}

func TestValidate_ReleaseModeRequiresSigningKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Mode = "release"

	if err := cfg.Validate(); !errors.Is(err, ErrSigningKeyRequired) {
		t.Fatalf("Validate() error = %v, expected ErrSigningKeyRequired", err)
	}

	cfg.Auth.SigningKey = "real-key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with key error = %v", err)
	}
}

func TestValidate_ClampsNonPositiveLifetimes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.AccessTokenMinutes = 0
	cfg.Auth.RefreshLifetimeDays = -1
	cfg.Janitor.IntervalHours = 0
	cfg.Janitor.RetentionDays = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Auth.AccessTokenMinutes != 120 || cfg.Auth.RefreshLifetimeDays != 14 {
		t.Errorf("auth config not clamped: %+v", cfg.Auth)
	}
	if cfg.Janitor.IntervalHours != 6 || cfg.Janitor.RetentionDays != 30 {
		t.Errorf("janitor config not clamped: %+v", cfg.Janitor)
	}
}

func TestEffectiveSigningKey_DevFallback(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.UsingDevSigningKey() {
		t.Error("UsingDevSigningKey() = false with no key configured")
	}
	if cfg.EffectiveSigningKey() == "" {
		t.Error("EffectiveSigningKey() returned empty fallback")
	}

	cfg.Auth.SigningKey = "explicit"
	if cfg.UsingDevSigningKey() {
		t.Error("UsingDevSigningKey() = true with an explicit key")
	}
	if cfg.EffectiveSigningKey() != "explicit" {
		t.Errorf("EffectiveSigningKey() = %q, expected explicit", cfg.EffectiveSigningKey())
	}
}
