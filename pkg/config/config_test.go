package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.DB.Driver != DBDriverSQLite {
		t.Fatalf("expected sqlite driver by default, got %q", cfg.DB.Driver)
	}
	if cfg.Cloud.BaseURL != "https://cloud.example.test" {
		t.Fatalf("unexpected cloud base url %q", cfg.Cloud.BaseURL)
	}
	if got := cfg.Cloud.SubmitTimeout; got != 15*time.Second {
		t.Fatalf("expected default submit timeout 15s, got %v", got)
	}
	if cfg.Sync.MaxAttempts != 3 {
		t.Fatalf("expected default max attempts 3, got %d", cfg.Sync.MaxAttempts)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv("POSTERM_JWT_SECRET"); err != nil {
		t.Fatalf("failed to unset jwt secret: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("POSTERM_DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown database driver to be rejected")
	}
}

func TestIsDev(t *testing.T) {
	app := AppConfig{Env: "DEV"}
	if !app.IsDev() {
		t.Fatal("expected case-insensitive dev match")
	}
	if app.IsProd() {
		t.Fatal("dev env should not report prod")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv("POSTERM_JWT_SECRET", "test-secret")
	t.Setenv("POSTERM_CLOUD_BASE_URL", "https://cloud.example.test")
}
