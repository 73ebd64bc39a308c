package mockserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

// writeData sends the success envelope.
func writeData(w http.ResponseWriter, r *http.Request, status int, data any, pagination *wire.Pagination) {
	raw, err := json.Marshal(data)
	if err != nil {
		writeFrameworkError(w, r, http.StatusInternalServerError, "failed to encode response")
		return
	}
	render.Status(r, status)
	render.JSON(w, r, wire.Envelope{
		Success: true,
		Data:    raw,
		Meta:    &wire.Meta{Timestamp: time.Now().UTC(), Pagination: pagination},
	})
}

// writeDomainError sends {code, message, details?}.
func writeDomainError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]string) {
	render.Status(r, status)
	render.JSON(w, r, wire.ErrorBody{
		Code:    code,
		Message: wire.Messages{message},
		Details: details,
	})
}

// writeFrameworkError sends the router-level shape
// {statusCode, message, error, timestamp, path, method}.
func writeFrameworkError(w http.ResponseWriter, r *http.Request, status int, messages ...string) {
	render.Status(r, status)
	render.JSON(w, r, wire.ErrorBody{
		StatusCode: status,
		Message:    wire.Messages(messages),
		Error:      http.StatusText(status),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       r.URL.Path,
		Method:     r.Method,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		writeFrameworkError(w, r, http.StatusBadRequest, "request body must be valid JSON")
		return false
	}
	return true
}
