package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/pharmalink/internal/client/apierr"
	"github.com/dmitrijs2005/pharmalink/internal/client/config"
	"github.com/dmitrijs2005/pharmalink/internal/client/metrics"
	"github.com/dmitrijs2005/pharmalink/internal/client/refresh"
	"github.com/dmitrijs2005/pharmalink/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pharmalink/internal/client/retry"
	"github.com/dmitrijs2005/pharmalink/internal/client/session"
	"github.com/dmitrijs2005/pharmalink/internal/client/transport"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

const (
	pathLogin   = "/auth/login"
	pathRefresh = "/auth/refresh"
	pathLogout  = "/auth/logout"
	pathMe      = "/auth/me"
)

// Deps are the collaborators New does not build itself. Only Repo is
// required.
type Deps struct {
	Repo           metadata.Repository
	Logger         logging.Logger
	Metrics        *metrics.Metrics
	Doer           transport.Doer
	Tracer         trace.Tracer
	OnAuthRequired func()
}

// Client is the request and session API used by every front end.
type Client struct {
	store   *session.Store
	envs    *session.Environments
	exec    *transport.Executor
	retry   *retry.Coordinator
	refresh *refresh.Coordinator
	logger  logging.Logger
}

func New(cfg *config.Config, deps Deps) *Client {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store := session.NewStore(deps.Repo, logger)
	envs := session.NewEnvironments(deps.Repo, cfg.Endpoints(), session.Environment(cfg.Environment))

	execOpts := []transport.Option{
		transport.WithTimeout(cfg.RequestTimeout),
		transport.WithLogger(logger.With("component", "transport")),
		transport.WithMetrics(deps.Metrics),
	}
	if deps.Doer != nil {
		execOpts = append(execOpts, transport.WithDoer(deps.Doer))
	}
	if deps.Tracer != nil {
		execOpts = append(execOpts, transport.WithTracer(deps.Tracer))
	}

	c := &Client{
		store:  store,
		envs:   envs,
		exec:   transport.NewExecutor(envs, execOpts...),
		retry:  retry.NewCoordinator(cfg.RetryPolicy(), logger.With("component", "retry"), deps.Metrics),
		logger: logger.With("component", "client"),
	}
	c.refresh = refresh.NewCoordinator(store, c.refreshTokens,
		refresh.WithTimeout(cfg.RefreshTimeout),
		refresh.WithLeeway(cfg.RefreshLeeway),
		refresh.WithOnAuthRequired(deps.OnAuthRequired),
		refresh.WithLogger(logger),
		refresh.WithMetrics(deps.Metrics),
	)
	return c
}

func (c *Client) Session() *session.Store { return c.store }

func (c *Client) Environments() *session.Environments { return c.envs }

// RefreshState exposes the refresh coordinator's state for status output.
func (c *Client) RefreshState() refresh.State { return c.refresh.State() }

// SetTokens stores a new session and re-arms the refresh coordinator.
func (c *Client) SetTokens(ctx context.Context, access, refreshToken string) error {
	if err := c.store.SetTokens(ctx, access, refreshToken); err != nil {
		return err
	}
	c.refresh.Reset()
	return nil
}

func (c *Client) ClearTokens(ctx context.Context) error {
	return c.store.ClearTokens(ctx)
}

func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.store.IsAuthenticated(ctx)
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodGet, path, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodPost, path, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodPut, path, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodDelete, path, out, opts...)
}

// Do sends an authenticated request and decodes the envelope data into out
// (which may be nil). A 401 triggers one token refresh and one replay;
// transport failures are retried for idempotent requests.
func (c *Client) Do(ctx context.Context, method, path string, out any, opts ...CallOption) error {
	o := newCallOptions(opts)
	req := transport.Request{
		Method:  method,
		Path:    path,
		Query:   o.query,
		Body:    o.body,
		Timeout: o.timeout,
	}
	idempotent := o.retry || method == http.MethodGet || method == http.MethodHead

	res, err := refresh.Do(ctx, c.refresh, func(ctx context.Context, token string) (*transport.Result, error) {
		return retry.Do(ctx, c.retry, method, idempotent, func(ctx context.Context) (*transport.Result, error) {
			return c.exec.Execute(ctx, req, token)
		})
	})
	if err != nil {
		return err
	}

	if o.meta != nil && res.Meta != nil {
		*o.meta = *res.Meta
	}
	return decode(res.Data, out)
}

// Login exchanges credentials for a session. A wrong password surfaces as
// an *apierr.HTTPError with status 401 and code AUTH_001.
func (c *Client) Login(ctx context.Context, email, password string) (*wire.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	res, err := c.exec.Execute(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   pathLogin,
		Body:   wire.LoginRequest{Email: email, Password: password},
	}, "")
	if err != nil {
		return nil, err
	}

	var lr wire.LoginResponse
	if err := decode(res.Data, &lr); err != nil {
		return nil, err
	}
	if lr.AccessToken == "" || lr.RefreshToken == "" {
		return nil, &apierr.UnknownError{Message: "login response has no tokens"}
	}
	if err := c.SetTokens(ctx, lr.AccessToken, lr.RefreshToken); err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "logged in", "email", email)
	return &lr.User, nil
}

// Logout revokes the refresh token on the server when possible and always
// clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	rt, err := c.store.RefreshToken(ctx)
	if err != nil {
		c.logger.Warn(ctx, "reading refresh token failed", "err", err)
	}

	if rt != "" {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := c.exec.Execute(ctx, transport.Request{
			Method: http.MethodPost,
			Path:   pathLogout,
			Body:   wire.RefreshRequest{RefreshToken: rt},
		}, c.store.AccessToken())
		cancel()
		if err != nil {
			c.logger.Warn(ctx, "server logout failed", "err", err)
		}
	}

	if err := c.store.ClearTokens(ctx); err != nil {
		return err
	}
	c.logger.Info(ctx, "logged out")
	return nil
}

// Restore re-derives the access token from a persisted refresh token, as a
// new process must do at startup. It reports whether a session is active.
func (c *Client) Restore(ctx context.Context) (bool, error) {
	if !c.store.IsAuthenticated(ctx) {
		return false, nil
	}

	_, err := c.refresh.Refresh(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apierr.ErrAuthRequired):
		return false, nil
	default:
		return c.store.IsAuthenticated(ctx), err
	}
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*wire.User, error) {
	var u wire.User
	if err := c.Get(ctx, pathMe, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// refreshTokens is the refresh coordinator's only way to reach the server.
// It is neither retried nor routed through 401 handling.
func (c *Client) refreshTokens(ctx context.Context, refreshToken string) (wire.TokenPair, error) {
	res, err := c.exec.Execute(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   pathRefresh,
		Body:   wire.RefreshRequest{RefreshToken: refreshToken},
	}, "")
	if err != nil {
		return wire.TokenPair{}, err
	}

	var pair wire.TokenPair
	if err := decode(res.Data, &pair); err != nil {
		return wire.TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return wire.TokenPair{}, &apierr.UnknownError{Message: "refresh response has no access token"}
	}
	return pair, nil
}

func decode(data json.RawMessage, out any) error {
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apierr.UnknownError{Message: "decode response data", Err: err}
	}
	return nil
}
