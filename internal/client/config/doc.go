// Package config loads runtime configuration for the pharmalink CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "300ms"
// or integer nanoseconds:
//
//	{
//	  "environment": "mock",
//	  "mock_base_url": "http://127.0.0.1:8081/api",
//	  "request_timeout": "15s",
//	  "max_retries": 3,
//	  "retry_base_delay": "300ms",
//	  "store": "sqlite",
//	  "store_dsn": "pharmalink.db",
//	  "log_format": "json"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
