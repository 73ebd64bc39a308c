// Package metadata provides the durable key/value backends behind the
// client session store.
//
// Backends
//
//   - SQLRepository over dbx.DBTX, for SQLite (default, local file) and
//     Postgres (shared deployments, pgx stdlib driver)
//   - RedisRepository over go-redis, keys namespaced by a prefix
//   - MemoryRepository, process-local, for tests and ephemeral sessions
//
// All backends implement Repository and share its absent-key contract:
// Get returns (nil, nil) for a missing key.
package metadata
