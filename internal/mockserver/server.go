// Package mockserver is the in-memory backend behind the "mock"
// environment. It speaks the same envelope and error shapes as the real
// backend and issues short-lived JWT access tokens with rotating refresh
// tokens, so the client's session handling can be exercised end to end.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/pharmalink/internal/logging"
	"github.com/dmitrijs2005/pharmalink/internal/mockserver/config"
)

type Server struct {
	cfg    *config.Config
	logger logging.Logger
	store  *store
	secret []byte

	registry *prometheus.Registry
	requests *prometheus.CounterVec

	loginCalls   atomic.Int64
	refreshCalls atomic.Int64
}

func New(cfg *config.Config, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	st, err := newStore(cfg.SeedEmail, cfg.SeedPassword)
	if err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		cfg:      cfg,
		logger:   logger.With("component", "mockserver"),
		store:    st,
		secret:   []byte(cfg.SecretKey),
		registry: reg,
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pharmalink_mock_requests_total",
			Help: "Requests served by the mock backend, by route and status",
		}, []string{"route", "status"}),
	}, nil
}

// Handler returns the router. Routes live under cfg.BasePath; /metrics is
// served at the root.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFrameworkError(w, r, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFrameworkError(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	routes := func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/auth/me", s.handleMe)
			r.Get("/medicines", s.handleListMedicines)
			r.Post("/medicines", s.handleCreateMedicine)
			r.Get("/medicines/{id}", s.handleGetMedicine)
			r.Delete("/medicines/{id}", s.handleDeleteMedicine)
		})
	}

	if base := strings.TrimRight(s.cfg.BasePath, "/"); base != "" {
		r.Route(base, routes)
	} else {
		routes(r)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "mock backend listening", "addr", s.cfg.Addr, "base_path", s.cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	s.logger.Info(ctx, "shutting down mock backend")
	return srv.Shutdown(shutdownCtx)
}

// RevokeAccessTokens invalidates every access token issued so far while
// keeping refresh tokens valid, as if all of them had expired at once.
func (s *Server) RevokeAccessTokens() { s.store.bumpGeneration() }

// RevokeSessions invalidates every refresh token.
func (s *Server) RevokeSessions() { s.store.revokeAllRefresh() }

func (s *Server) LoginCalls() int64 { return s.loginCalls.Load() }

func (s *Server) RefreshCalls() int64 { return s.refreshCalls.Load() }

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(route, fmt.Sprint(status)).Inc()
	})
}
