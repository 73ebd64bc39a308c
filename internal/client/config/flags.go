package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/pharmalink/internal/flagx"
)

var ownFlags = []string{"-e", "-u", "-t", "-r", "-s", "-d", "-l", "-f", "-m"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-e string     default environment: integration, mock or custom
//	-u string     base URL of the custom environment
//	-t duration   per-attempt request timeout
//	-r uint       retries after a transport failure
//	-s string     session store: sqlite, postgres, redis or memory
//	-d string     session store DSN (file path, postgres DSN or redis URL)
//	-l string     log level
//	-f string     log format: text, json or zerolog
//	-m string     address to serve Prometheus metrics on, empty to disable
//
// args is filtered with flagx.FilterArgs so flags owned by other
// components do not cause parse errors.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, ownFlags)

	fs := flag.NewFlagSet("pharmalink", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Environment, "e", cfg.Environment, "default environment")
	fs.StringVar(&cfg.CustomBaseURL, "u", cfg.CustomBaseURL, "custom environment base URL")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.Uint64Var(&cfg.MaxRetries, "r", cfg.MaxRetries, "max retries")
	store := fs.String("s", string(cfg.StoreKind), "session store kind")
	fs.StringVar(&cfg.StoreDSN, "d", cfg.StoreDSN, "session store DSN")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.StoreKind = StoreKind(*store)
	return nil
}
