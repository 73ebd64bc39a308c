// Package services contains the application services the CLI drives: the
// session lifecycle (login, logout, restore, status) and the medicines
// catalogue. Both sit on top of client.Client and add no HTTP logic of
// their own.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pharmalink/internal/client/client"
	"github.com/dmitrijs2005/pharmalink/internal/client/session"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

// Status is a snapshot of the session for display.
type Status struct {
	Authenticated bool
	Environment   session.Environment
	BaseURL       string
	RefreshState  string
}

// AuthService defines session operations for the CLI.
//
// Contract:
//   - Login: exchange credentials for a session and persist the refresh token.
//   - Logout: revoke the session on the server when possible and forget it locally.
//   - Restore: re-establish a session from the persisted refresh token.
//   - Status: report authentication state and the active backend.
//   - SwitchEnvironment: select a backend; switching drops the session.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (*wire.User, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (bool, error)
	Status(ctx context.Context) Status
	SwitchEnvironment(ctx context.Context, env session.Environment, customURL string) error
}

type authService struct {
	client *client.Client
}

func NewAuthService(c *client.Client) AuthService {
	return &authService{client: c}
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*wire.User, error) {
	u, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return u, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

func (a *authService) Restore(ctx context.Context) (bool, error) {
	return a.client.Restore(ctx)
}

func (a *authService) Status(ctx context.Context) Status {
	envs := a.client.Environments()
	st := Status{
		Authenticated: a.client.IsAuthenticated(ctx),
		Environment:   envs.Current(ctx),
		RefreshState:  a.client.RefreshState().String(),
	}
	if u, err := envs.BaseURL(ctx); err == nil {
		st.BaseURL = u
	}
	return st
}

// SwitchEnvironment persists the selection and clears the local session.
// Tokens issued by one backend are not valid on another.
func (a *authService) SwitchEnvironment(ctx context.Context, env session.Environment, customURL string) error {
	envs := a.client.Environments()
	if env == envs.Current(ctx) && env != session.EnvCustom {
		return nil
	}
	if err := envs.Set(ctx, env, customURL); err != nil {
		return fmt.Errorf("%w: %w", ErrEnvironment, err)
	}
	if err := a.client.ClearTokens(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ErrEnvironment wraps failures to select a backend.
var ErrEnvironment = errors.New("cannot switch environment")
