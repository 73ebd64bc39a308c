package classify

import "github.com/dmitrijs2005/pharmalink/internal/common"

// FallbackMessage is shown for any code missing from the table.
const FallbackMessage = "An unexpected error occurred. Please try again."

var messages = map[string]string{
	common.CodeInvalidCredentials:  "Invalid credentials. Please check your email and password.",
	common.CodeTokenExpired:        "Your session has expired. Please log in again.",
	common.CodeForbidden:           "You do not have permission to perform this action.",
	common.CodeInvalidToken:        "Invalid or missing authentication token.",
	common.CodeRefreshTokenInvalid: "Your session is no longer valid. Please log in again.",
	common.CodeValidationFailed:    "Some fields are invalid. Please review the form and try again.",
	common.CodeMissingField:        "A required field is missing.",
	common.CodeNotFound:            "The requested resource was not found.",
	common.CodeConflict:            "The resource already exists or was changed by someone else.",
	common.CodeNetworkUnreachable:  "Unable to reach the server. Check your connection and try again.",
	common.CodeTimeout:             "The request timed out. Please try again.",
	common.CodeServerError:         "The server encountered an error. Please try again later.",
	common.CodeUnavailable:         "The service is temporarily unavailable.",
	common.CodeRateLimited:         "Too many requests. Please wait a moment and try again.",
	common.CodeSessionExpired:      "You have been signed out. Please log in to continue.",
	common.CodeCancelled:           "The request was cancelled.",
	common.CodeUnknown:             FallbackMessage,
}

// GetErrorMessage returns the user-facing text for code, or FallbackMessage
// when the code is not registered.
func GetErrorMessage(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return FallbackMessage
}

// Registered reports whether code has its own message.
func Registered(code string) bool {
	_, ok := messages[code]
	return ok
}
