package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/pharmalink/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pharmalink/internal/common"
)

// Environment identifies the backend the client talks to.
type Environment string

const (
	EnvIntegration Environment = "integration"
	EnvMock        Environment = "mock"
	EnvCustom      Environment = "custom"
)

var ErrInvalidEnvironment = errors.New("invalid environment")

// ParseEnvironment validates s.
func ParseEnvironment(s string) (Environment, error) {
	switch e := Environment(s); e {
	case EnvIntegration, EnvMock, EnvCustom:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEnvironment, s)
	}
}

// Endpoints are the configured base URLs. Custom is used when no custom
// URL has been persisted.
type Endpoints struct {
	Mock        string
	Integration string
	Custom      string
}

// Environments persists the active backend selection next to the session.
type Environments struct {
	repo      metadata.Repository
	endpoints Endpoints
	fallback  Environment
}

// NewEnvironments uses fallback until a choice is persisted with Set.
func NewEnvironments(repo metadata.Repository, endpoints Endpoints, fallback Environment) *Environments {
	return &Environments{repo: repo, endpoints: endpoints, fallback: fallback}
}

// Current returns the persisted environment, or the fallback when none is
// stored or the stored value is unreadable.
func (e *Environments) Current(ctx context.Context) Environment {
	v, err := e.repo.Get(ctx, common.KeyEnvironment)
	if err != nil || v == nil {
		return e.fallback
	}
	env, err := ParseEnvironment(string(v))
	if err != nil {
		return e.fallback
	}
	return env
}

// Set persists env. customURL is required for EnvCustom and ignored otherwise.
func (e *Environments) Set(ctx context.Context, env Environment, customURL string) error {
	if _, err := ParseEnvironment(string(env)); err != nil {
		return err
	}
	values := map[string][]byte{common.KeyEnvironment: []byte(env)}
	if env == EnvCustom {
		if err := validateBaseURL(customURL); err != nil {
			return err
		}
		values[common.KeyCustomBaseURL] = []byte(customURL)
	}
	return e.repo.SetMany(ctx, values)
}

// BaseURL resolves the active environment to a base URL.
func (e *Environments) BaseURL(ctx context.Context) (string, error) {
	switch env := e.Current(ctx); env {
	case EnvMock:
		return e.endpoints.Mock, nil
	case EnvIntegration:
		return e.endpoints.Integration, nil
	default:
		v, err := e.repo.Get(ctx, common.KeyCustomBaseURL)
		if err != nil {
			return "", err
		}
		if len(v) == 0 {
			v = []byte(e.endpoints.Custom)
		}
		if len(v) == 0 {
			return "", fmt.Errorf("%w: custom environment has no base URL", ErrInvalidEnvironment)
		}
		return string(v), nil
	}
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvironment, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base URL must be absolute http(s), got %q", ErrInvalidEnvironment, raw)
	}
	return nil
}
