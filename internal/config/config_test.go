package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.PaymentRateWindow != time.Minute {
		t.Fatalf("expected one minute rate window, got %v", cfg.PaymentRateWindow)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  environment: staging
http:
  addr: ":9000"
database:
  driver: postgres
  dsn: postgres://localhost/invoices
tracing:
  enabled: true
payments:
  rate_limit: 5
  rate_window: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("PAYMENT_RATE_LIMIT", "12")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "staging" || cfg.DatabaseDriver != "postgres" || !cfg.TracingEnabled {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != ":7000" || cfg.PaymentRateLimit != 12 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.PaymentRateWindow != 30*time.Second {
		t.Fatalf("expected 30s window, got %v", cfg.PaymentRateWindow)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOGIN_URL=/signin\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("LOGIN_URL") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LoginURL != "/signin" {
		t.Fatalf("expected login url from .env, got %q", cfg.LoginURL)
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.DatabaseDriver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}

	cfg = defaults()
	cfg.Timezone = "Nowhere/Special"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid timezone error")
	}

	cfg = defaults()
	cfg.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing jwt secret error")
	}
}
