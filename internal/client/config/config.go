package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/pharmalink/internal/client/retry"
	"github.com/dmitrijs2005/pharmalink/internal/client/session"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

// StoreKind selects the backend that persists the refresh token and the
// environment choice.
type StoreKind string

const (
	StoreSQLite   StoreKind = "sqlite"
	StorePostgres StoreKind = "postgres"
	StoreRedis    StoreKind = "redis"
	StoreMemory   StoreKind = "memory"
)

func ParseStoreKind(s string) (StoreKind, error) {
	switch k := StoreKind(s); k {
	case StoreSQLite, StorePostgres, StoreRedis, StoreMemory:
		return k, nil
	default:
		return "", fmt.Errorf("unknown session store %q", s)
	}
}

// Config holds runtime settings for the pharmalink CLI.
type Config struct {
	Environment        string
	MockBaseURL        string
	IntegrationBaseURL string
	CustomBaseURL      string

	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	RefreshLeeway  time.Duration

	MaxRetries         uint64
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	RetryJitterPercent uint64

	StoreKind StoreKind
	StoreDSN  string

	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Environment = string(session.EnvMock)
	c.MockBaseURL = "http://127.0.0.1:8081/api"
	c.IntegrationBaseURL = "https://staging.pharmalink.example/api"
	c.CustomBaseURL = ""

	c.RequestTimeout = 15 * time.Second
	c.RefreshTimeout = 15 * time.Second
	c.RefreshLeeway = 30 * time.Second

	p := retry.DefaultPolicy()
	c.MaxRetries = p.MaxRetries
	c.RetryBaseDelay = p.BaseDelay
	c.RetryMaxDelay = p.MaxDelay
	c.RetryJitterPercent = p.JitterPercent

	c.StoreKind = StoreSQLite
	c.StoreDSN = "pharmalink.db"

	c.LogLevel = "info"
	c.LogFormat = string(logging.FormatText)
	c.MetricsAddr = ""
}

// RetryPolicy converts the retry settings.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries:    c.MaxRetries,
		BaseDelay:     c.RetryBaseDelay,
		MaxDelay:      c.RetryMaxDelay,
		JitterPercent: c.RetryJitterPercent,
	}
}

// Endpoints returns the configured environment URLs.
func (c *Config) Endpoints() session.Endpoints {
	return session.Endpoints{Mock: c.MockBaseURL, Integration: c.IntegrationBaseURL, Custom: c.CustomBaseURL}
}

func (c *Config) Validate() error {
	if _, err := session.ParseEnvironment(c.Environment); err != nil {
		return err
	}
	if _, err := ParseStoreKind(string(c.StoreKind)); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive, got %s", c.RetryBaseDelay)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
