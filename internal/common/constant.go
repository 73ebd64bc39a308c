// Package common holds identifiers shared by the API client and the mock
// backend: header names, durable storage keys and domain error codes.
package common

const (
	// HeaderAuthorization carries "Bearer <access token>" on outbound requests.
	HeaderAuthorization = "Authorization"
	// HeaderRequestID correlates a client attempt with server logs.
	HeaderRequestID = "X-Request-ID"

	BearerPrefix = "Bearer "
)

// Durable keys in the client-side metadata store.
const (
	KeyRefreshToken  = "auth.refresh_token"
	KeyEnvironment   = "api.environment"
	KeyCustomBaseURL = "api.custom_base_url"
)
