package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/pharmalink/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string     listen address
//	-k string     JWT signing key
//	-at duration  access token lifetime
//	-rt duration  refresh token lifetime
//	-l string     log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-k", "-at", "-rt", "-l"})

	fs := flag.NewFlagSet("mockserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "listen address")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "JWT signing key")
	fs.DurationVar(&cfg.AccessTokenTTL, "at", cfg.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&cfg.RefreshTokenTTL, "rt", cfg.RefreshTokenTTL, "refresh token lifetime")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
