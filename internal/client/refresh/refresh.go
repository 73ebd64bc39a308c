// Package refresh renews the access token when the backend answers 401 and
// replays the rejected call. At most one refresh call is in flight at any
// time; callers that hit 401 while it runs wait for its outcome.
package refresh

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/pharmalink/internal/client/apierr"
	"github.com/dmitrijs2005/pharmalink/internal/client/metrics"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

const DefaultTimeout = 15 * time.Second

type State int

const (
	Idle State = iota
	Refreshing
	LoggedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	case LoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// TokenStore is the slice of session.Store the coordinator needs.
type TokenStore interface {
	AccessToken() string
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string) error
	ClearTokens(ctx context.Context) error
}

// RefreshFunc exchanges a refresh token for a new pair. It must not go
// through the coordinator itself.
type RefreshFunc func(ctx context.Context, refreshToken string) (wire.TokenPair, error)

type Coordinator struct {
	store   TokenStore
	refresh RefreshFunc
	logger  logging.Logger
	metrics *metrics.Metrics

	timeout        time.Duration
	leeway         time.Duration
	onAuthRequired func()

	group singleflight.Group

	mu       sync.Mutex
	state    State
	flight   uint64
	epoch    uint64 // bumped by every logout
	waiters  int
	notified bool
}

type Option func(*Coordinator)

// WithTimeout bounds a single refresh call. The call is detached from the
// caller that started it, so this is its only deadline.
func WithTimeout(d time.Duration) Option { return func(c *Coordinator) { c.timeout = d } }

// WithLeeway makes the coordinator refresh ahead of time when the access
// token is a JWT expiring within d.
func WithLeeway(d time.Duration) Option { return func(c *Coordinator) { c.leeway = d } }

// WithOnAuthRequired registers fn to run once each time the session ends
// because it could not be renewed.
func WithOnAuthRequired(fn func()) Option { return func(c *Coordinator) { c.onAuthRequired = fn } }

func WithLogger(l logging.Logger) Option { return func(c *Coordinator) { c.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

func NewCoordinator(store TokenStore, fn RefreshFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		refresh: fn,
		logger:  logging.Discard(),
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("component", "refresh")
	return c
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of callers parked on the in-flight refresh.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters
}

// Reset leaves LoggedOut. Call it whenever a new session is stored.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == LoggedOut {
		c.state = Idle
	}
	c.notified = false
}

// Refresh forces a token renewal, joining one already in flight. It is used
// to restore a session at startup.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	return c.obtain(ctx, c.store.AccessToken())
}

// Do runs call with the current access token. On 401 it obtains a fresh
// token (starting or joining the single refresh) and replays call exactly
// once with that token. A second 401 ends the session.
func Do[T any](ctx context.Context, c *Coordinator, call func(ctx context.Context, accessToken string) (T, error)) (T, error) {
	var zero T

	token, err := c.tokenForCall(ctx)
	if err != nil {
		return zero, err
	}

	v, err := call(ctx, token)
	if !apierr.IsUnauthorized(err) {
		return v, err
	}

	c.logger.Debug(ctx, "access token rejected")
	fresh, err := c.obtain(ctx, token)
	if err != nil {
		return zero, err
	}

	v, err = call(ctx, fresh)
	if apierr.IsUnauthorized(err) {
		c.logout(ctx, "request rejected after refresh")
		return zero, &apierr.AuthExpiredError{Reason: "request rejected after token refresh", Err: err}
	}
	return v, err
}

// tokenForCall returns the token to send, refreshing first when the access
// token is missing or about to expire and a refresh token exists.
func (c *Coordinator) tokenForCall(ctx context.Context) (string, error) {
	access := c.store.AccessToken()
	if access != "" && !c.expiring(access) {
		return access, nil
	}

	rt, err := c.store.RefreshToken(ctx)
	if err != nil || rt == "" || c.State() == LoggedOut {
		return access, nil
	}
	return c.obtain(ctx, access)
}

// obtain returns a token newer than failing. It starts a refresh when none
// is running, joins the running one otherwise, and skips refreshing when
// another refresh already replaced failing.
func (c *Coordinator) obtain(ctx context.Context, failing string) (string, error) {
	c.mu.Lock()
	waiter := false
	switch c.state {
	case LoggedOut:
		c.mu.Unlock()
		return "", &apierr.AuthExpiredError{Reason: "session ended"}
	case Idle:
		if cur := c.store.AccessToken(); cur != "" && cur != failing && !c.expiring(cur) {
			c.mu.Unlock()
			return cur, nil
		}
		c.state = Refreshing
		c.flight++
	case Refreshing:
		waiter = true
		c.waiters++
		c.metrics.IncQueuedReplay()
	}

	key := strconv.FormatUint(c.flight, 10)
	epoch := c.epoch
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.run(detached, epoch)
	})
	c.mu.Unlock()

	if waiter {
		defer func() {
			c.mu.Lock()
			c.waiters--
			c.mu.Unlock()
		}()
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// run performs one refresh call and settles the state before returning, so
// the state is final by the time waiters are released. A pair obtained after
// a logout in epoch is discarded.
func (c *Coordinator) run(ctx context.Context, epoch uint64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rt, err := c.store.RefreshToken(ctx)
	if err != nil {
		c.finish()
		c.metrics.IncRefresh("failed")
		return "", &apierr.UnknownError{Message: "read refresh token", Err: err}
	}
	if rt == "" {
		c.metrics.IncRefresh("rejected")
		c.logout(ctx, "no refresh token stored")
		return "", &apierr.AuthExpiredError{Reason: "no refresh token stored"}
	}

	c.logger.Debug(ctx, "refreshing access token")
	pair, err := c.refresh(ctx, rt)
	if err != nil {
		if rejected(err) {
			c.metrics.IncRefresh("rejected")
			c.logout(ctx, "refresh token rejected")
			return "", &apierr.AuthExpiredError{Reason: "refresh token rejected", Err: err}
		}
		c.metrics.IncRefresh("failed")
		c.logger.Warn(ctx, "token refresh failed", "err", err)
		c.finish()
		return "", err
	}

	if pair.RefreshToken == "" {
		pair.RefreshToken = rt
	}
	stale, err := c.keep(ctx, epoch, pair)
	if stale {
		c.metrics.IncRefresh("rejected")
		c.logger.Warn(ctx, "discarding refreshed tokens, session ended during refresh")
		return "", &apierr.AuthExpiredError{Reason: "session ended during token refresh"}
	}
	if err != nil {
		c.metrics.IncRefresh("failed")
		c.logger.Error(ctx, "storing refreshed tokens failed", "err", err)
		c.finish()
		return "", &apierr.UnknownError{Message: "store refreshed session", Err: err}
	}

	c.metrics.IncRefresh("success")
	c.logger.Info(ctx, "access token refreshed")
	c.finish()
	return pair.AccessToken, nil
}

// keep persists pair unless a logout happened since epoch. It holds mu so a
// logout either precedes it (stale) or clears the pair afterwards.
func (c *Coordinator) keep(ctx context.Context, epoch uint64, pair wire.TokenPair) (stale bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return true, nil
	}
	return false, c.store.SetTokens(ctx, pair.AccessToken, pair.RefreshToken)
}

// finish returns to Idle after a refresh. A logout that happened meanwhile wins.
func (c *Coordinator) finish() {
	c.mu.Lock()
	if c.state == Refreshing {
		c.state = Idle
	}
	c.mu.Unlock()
}

// logout clears the session and fires OnAuthRequired once per logout.
func (c *Coordinator) logout(ctx context.Context, reason string) {
	c.mu.Lock()
	c.state = LoggedOut
	c.epoch++
	notify := !c.notified
	c.notified = true
	c.mu.Unlock()

	c.logger.Warn(ctx, "session ended", "reason", reason)
	if err := c.store.ClearTokens(ctx); err != nil {
		c.logger.Error(ctx, "clearing tokens failed", "err", err)
	}
	if notify && c.onAuthRequired != nil {
		c.onAuthRequired()
	}
}

// expiring reports whether token is a JWT whose exp falls within the
// leeway. Opaque tokens never expire from the client's point of view.
func (c *Coordinator) expiring(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) <= c.leeway
}

// rejected reports whether the refresh endpoint refused the token itself,
// as opposed to being unreachable or failing.
func rejected(err error) bool {
	var he *apierr.HTTPError
	if !errors.As(err, &he) {
		return false
	}
	switch he.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return he.Status < http.StatusInternalServerError && strings.HasPrefix(he.Code, "AUTH_")
}
