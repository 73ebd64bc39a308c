package common

// Domain error codes carried in {code, message} error bodies. The client
// maps them to user-facing messages; the mock backend emits them.
const (
	CodeInvalidCredentials  = "AUTH_001"
	CodeTokenExpired        = "AUTH_002"
	CodeForbidden           = "AUTH_003"
	CodeInvalidToken        = "AUTH_004"
	CodeRefreshTokenInvalid = "AUTH_005"

	CodeValidationFailed = "VAL_001"
	CodeMissingField     = "VAL_002"

	CodeNotFound = "RES_001"
	CodeConflict = "RES_002"

	CodeNetworkUnreachable = "NET_001"
	CodeTimeout            = "NET_002"

	CodeServerError = "SRV_001"
	CodeUnavailable = "SRV_002"

	CodeRateLimited = "RATE_001"

	CodeSessionExpired = "SESSION_001"

	CodeCancelled = "REQ_001"

	CodeUnknown = "UNKNOWN"
)
