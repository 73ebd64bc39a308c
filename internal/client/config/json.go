package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/pharmalink/internal/flagx"
	"github.com/dmitrijs2005/pharmalink/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Fields left out of the file
// keep their current value.
type JsonConfig struct {
	Environment        string         `json:"environment"`
	MockBaseURL        string         `json:"mock_base_url"`
	IntegrationBaseURL string         `json:"integration_base_url"`
	CustomBaseURL      string         `json:"custom_base_url"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	RefreshTimeout     timex.Duration `json:"refresh_timeout"`
	RefreshLeeway      timex.Duration `json:"refresh_leeway"`
	MaxRetries         *uint64        `json:"max_retries"`
	RetryBaseDelay     timex.Duration `json:"retry_base_delay"`
	RetryMaxDelay      timex.Duration `json:"retry_max_delay"`
	RetryJitterPercent *uint64        `json:"retry_jitter_percent"`
	StoreKind          string         `json:"store"`
	StoreDSN           string         `json:"store_dsn"`
	LogLevel           string         `json:"log_level"`
	LogFormat          string         `json:"log_format"`
	MetricsAddr        string         `json:"metrics_addr"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. Without
// either flag nothing is loaded.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Environment, jc.Environment)
	setString(&cfg.MockBaseURL, jc.MockBaseURL)
	setString(&cfg.IntegrationBaseURL, jc.IntegrationBaseURL)
	setString(&cfg.CustomBaseURL, jc.CustomBaseURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.RefreshTimeout, jc.RefreshTimeout)
	setDuration(&cfg.RefreshLeeway, jc.RefreshLeeway)
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	setDuration(&cfg.RetryBaseDelay, jc.RetryBaseDelay)
	setDuration(&cfg.RetryMaxDelay, jc.RetryMaxDelay)
	if jc.RetryJitterPercent != nil {
		cfg.RetryJitterPercent = *jc.RetryJitterPercent
	}
	if jc.StoreKind != "" {
		cfg.StoreKind = StoreKind(jc.StoreKind)
	}
	setString(&cfg.StoreDSN, jc.StoreDSN)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
