package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  addr: ":9000"
storage:
  postgres_dsn: "postgres://file-dsn"
  clickhouse_dsn: "clickhouse://file-dsn"
quotes:
  alpha_vantage_key: "file-key"
  refresh_interval: 30s
broker:
  client_id: "file-client"
  client_secret: "file-secret"
  redirect_url: "http://localhost/api/broker/callback"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %q", cfg.Server.Addr)
	}
	// Unset fields get defaults.
	if cfg.Server.MetricsAddr != ":9090" {
		t.Errorf("expected default metrics addr, got %q", cfg.Server.MetricsAddr)
	}
	if cfg.Quotes.RefreshInterval != 30*time.Second {
		t.Errorf("expected 30s refresh, got %v", cfg.Quotes.RefreshInterval)
	}
	if cfg.Broker.ClientID != "file-client" {
		t.Errorf("broker client not loaded: %q", cfg.Broker.ClientID)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://env-dsn")
	t.Setenv("ALPHA_VANTAGE_KEY", "env-key")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.PostgresDSN != "postgres://env-dsn" {
		t.Errorf("env did not override dsn: %q", cfg.Storage.PostgresDSN)
	}
	if cfg.Quotes.AlphaVantageKey != "env-key" {
		t.Errorf("env did not override key: %q", cfg.Quotes.AlphaVantageKey)
	}
	// Untouched file values survive.
	if cfg.Storage.ClickhouseDSN != "clickhouse://file-dsn" {
		t.Errorf("file value lost: %q", cfg.Storage.ClickhouseDSN)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("USE_MEMORY", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Storage.UseMemory {
		t.Error("USE_MEMORY env not applied")
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Quotes.RefreshInterval != 15*time.Second {
		t.Errorf("expected default refresh, got %v", cfg.Quotes.RefreshInterval)
	}
}

func TestValidateRequiresDSN(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected error without postgres dsn or use_memory")
	}
}

func TestValidateBrokerRedirect(t *testing.T) {
	t.Setenv("USE_MEMORY", "true")
	t.Setenv("SCHWAB_CLIENT_ID", "client")

	if _, err := Load(""); err == nil {
		t.Error("expected error when client_id set without redirect_url")
	}

	t.Setenv("SCHWAB_REDIRECT_URL", "http://localhost/cb")
	if _, err := Load(""); err != nil {
		t.Errorf("Load with redirect: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
