package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkError_MessageNamesAttempts(t *testing.T) {
	err := &NetworkError{Method: http.MethodGet, Path: "/medicines", Attempts: 4, Err: errors.New("connection refused")}
	assert.Equal(t, "request failed after 4 attempts: GET /medicines: connection refused", err.Error())
	assert.ErrorIs(t, err, ErrUnavailable)

	single := &NetworkError{Method: http.MethodPost, Path: "/x", Attempts: 1, Err: context.DeadlineExceeded}
	assert.Contains(t, single.Error(), "network error")
	assert.ErrorIs(t, single, context.DeadlineExceeded)
}

func TestValidationError_UnwrapsToHTTPError(t *testing.T) {
	err := fmt.Errorf("create medicine: %w", &ValidationError{
		HTTPError: HTTPError{Status: http.StatusBadRequest, Code: "VAL_001", Message: "bad"},
		Fields:    map[string]string{"name": "required"},
	})

	var he *HTTPError
	assert.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Fields["name"])
}

func TestAuthExpiredError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &AuthExpiredError{Reason: "refresh rejected"})
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(&HTTPError{Status: http.StatusUnauthorized}))
	assert.False(t, IsUnauthorized(&HTTPError{Status: http.StatusForbidden}))
	assert.False(t, IsUnauthorized(errors.New("plain")))
	assert.Equal(t, 0, StatusOf(nil))
}
