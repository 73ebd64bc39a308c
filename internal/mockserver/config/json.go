package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pharmalink/internal/flagx"
	"github.com/dmitrijs2005/pharmalink/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	Addr            string         `json:"addr"`
	BasePath        string         `json:"base_path"`
	SecretKey       string         `json:"secret_key"`
	AccessTokenTTL  timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL timex.Duration `json:"refresh_token_ttl"`
	SeedEmail       string         `json:"seed_email"`
	SeedPassword    string         `json:"seed_password"`
	LogLevel        string         `json:"log_level"`
	LogFormat       string         `json:"log_format"`
}

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

	for dst, v := range map[*string]string{
		&cfg.Addr:         jc.Addr,
		&cfg.BasePath:     jc.BasePath,
		&cfg.SecretKey:    jc.SecretKey,
		&cfg.SeedEmail:    jc.SeedEmail,
		&cfg.SeedPassword: jc.SeedPassword,
		&cfg.LogLevel:     jc.LogLevel,
		&cfg.LogFormat:    jc.LogFormat,
	} {
		if v != "" {
			*dst = v
		}
	}
	if jc.AccessTokenTTL.Duration != 0 {
		cfg.AccessTokenTTL = jc.AccessTokenTTL.Duration
	}
	if jc.RefreshTokenTTL.Duration != 0 {
		cfg.RefreshTokenTTL = jc.RefreshTokenTTL.Duration
	}
	return nil
}
