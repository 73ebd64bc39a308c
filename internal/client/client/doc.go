// Package client is the API client used by pharmalink front ends.
//
// # Overview
//
// A Client wires the session store, the request executor, the retry
// coordinator and the token refresh coordinator into one request API:
//
//	c := client.New(cfg, client.Deps{Repo: storage.Metadata, Logger: log})
//	var meds []Medicine
//	err := c.Get(ctx, "/medicines", &meds, client.WithQuery(map[string]any{"page": 1}))
//
// Each call runs as refresh(retry(execute)): transport failures of
// idempotent calls are retried first; a 401 then triggers at most one token
// refresh shared by all concurrent callers, and the call is replayed once
// with the new token.
//
// # Error Handling
//
// Failures are the typed errors of package apierr. Front ends pass them to
// a recovery.Handler rather than showing them directly.
//
// # Storage
//
// OpenStorage opens the durable backend (SQLite, Postgres, Redis or memory)
// that holds the refresh token and the environment choice.
package client
