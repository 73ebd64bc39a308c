// Package wire describes the JSON contract between the API client and the
// backend: the success envelope, both error body shapes and the auth DTOs.
package wire

import (
	"encoding/json"
	"strings"
	"time"
)

// Envelope wraps every successful response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta,omitempty"`
}

type Meta struct {
	Timestamp  time.Time   `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ErrorBody covers both error shapes the backend emits:
//
//	framework: {statusCode, message, error, timestamp, path, method}
//	domain:    {code, message, details?}
//
// Framework validation errors send message as a list of strings.
type ErrorBody struct {
	StatusCode int               `json:"statusCode,omitempty"`
	Code       string            `json:"code,omitempty"`
	Message    Messages          `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Timestamp  string            `json:"timestamp,omitempty"`
	Path       string            `json:"path,omitempty"`
	Method     string            `json:"method,omitempty"`
}

// Messages decodes either a JSON string or a list of strings.
type Messages []string

func (m *Messages) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*m = Messages{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

func (m Messages) MarshalJSON() ([]byte, error) {
	if len(m) == 1 {
		return json.Marshal(m[0])
	}
	return json.Marshal([]string(m))
}

func (m Messages) String() string {
	return strings.Join(m, "; ")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	TokenPair
	User User `json:"user"`
}

// Medicine is the demo catalogue resource served by the mock backend.
type Medicine struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Manufacturer         string    `json:"manufacturer,omitempty"`
	Price                float64   `json:"price"`
	Stock                int       `json:"stock"`
	RequiresPrescription bool      `json:"requiresPrescription"`
	CreatedAt            time.Time `json:"createdAt"`
}

type CreateMedicineRequest struct {
	Name                 string  `json:"name"`
	Manufacturer         string  `json:"manufacturer,omitempty"`
	Price                float64 `json:"price"`
	Stock                int     `json:"stock"`
	RequiresPrescription bool    `json:"requiresPrescription"`
}
