// Package config loads service configuration from an optional YAML file
// with environment variable overrides for secrets and connection strings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// StorageConfig holds database connections. With UseMemory set, both DSNs
// are ignored and all data lives in process memory.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	UseMemory     bool   `yaml:"use_memory"`
}

// QuotesConfig holds feed settings.
type QuotesConfig struct {
	AlphaVantageKey string        `yaml:"alpha_vantage_key"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// BrokerConfig holds the Schwab OAuth client registration. Broker linking
// is disabled when ClientID is empty.
type BrokerConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Quotes  QuotesConfig  `yaml:"quotes"`
	Broker  BrokerConfig  `yaml:"broker"`
}

// Load reads the YAML file at path, applies environment overrides, and
// fills in defaults. An empty path skips the file and uses env/defaults
// only.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyEnv()

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}
	if c.Quotes.RefreshInterval == 0 {
		c.Quotes.RefreshInterval = 15 * time.Second
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// applyEnv overrides file values with environment variables when set.
func (c *Config) applyEnv() {
	setIfPresent(&c.Server.Addr, "SERVER_ADDR")
	setIfPresent(&c.Server.MetricsAddr, "METRICS_ADDR")
	setIfPresent(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	setIfPresent(&c.Storage.ClickhouseDSN, "CLICKHOUSE_DSN")
	setIfPresent(&c.Quotes.AlphaVantageKey, "ALPHA_VANTAGE_KEY")
	setIfPresent(&c.Broker.ClientID, "SCHWAB_CLIENT_ID")
	setIfPresent(&c.Broker.ClientSecret, "SCHWAB_CLIENT_SECRET")
	setIfPresent(&c.Broker.RedirectURL, "SCHWAB_REDIRECT_URL")
	if os.Getenv("USE_MEMORY") == "true" {
		c.Storage.UseMemory = true
	}
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if !c.Storage.UseMemory && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("postgres_dsn is required unless use_memory is set")
	}
	if c.Broker.ClientID != "" && c.Broker.RedirectURL == "" {
		return fmt.Errorf("broker redirect_url is required when client_id is set")
	}
	return nil
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
