// Package recovery connects classified errors to the event bus and routes
// the user's chosen action back to the call site that failed.
package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/pharmalink/internal/client/classify"
	"github.com/dmitrijs2005/pharmalink/internal/client/events"
	"github.com/dmitrijs2005/pharmalink/internal/client/metrics"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

const DefaultTTL = 10 * time.Minute

type entry struct {
	opts    classify.Options
	created time.Time
}

type Handler struct {
	classifier     *classify.Classifier
	bus            *events.Bus
	logger         logging.Logger
	metrics        *metrics.Metrics
	onAuthRequired func()
	ttl            time.Duration
	now            func() time.Time

	mu      sync.Mutex
	pending map[string]entry

	wg sync.WaitGroup
}

type Option func(*Handler)

func WithLogger(l logging.Logger) Option { return func(h *Handler) { h.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }

// WithOnAuthRequired sets what the login action does.
func WithOnAuthRequired(fn func()) Option { return func(h *Handler) { h.onAuthRequired = fn } }

// WithTTL bounds how long an unanswered error keeps its retry callback.
func WithTTL(d time.Duration) Option { return func(h *Handler) { h.ttl = d } }

func New(classifier *classify.Classifier, bus *events.Bus, opts ...Option) *Handler {
	h := &Handler{
		classifier: classifier,
		bus:        bus,
		logger:     logging.Discard(),
		ttl:        DefaultTTL,
		now:        time.Now,
		pending:    make(map[string]entry),
	}
	for _, o := range opts {
		o(h)
	}
	if h.ttl <= 0 {
		h.ttl = DefaultTTL
	}
	h.logger = h.logger.With("component", "recovery")
	return h
}

// Handle classifies err, publishes the result on app:error and remembers
// the call site's options until the user acts or the entry expires.
func (h *Handler) Handle(ctx context.Context, err error, opts classify.Options) classify.ProcessedError {
	pe := h.classifier.Classify(ctx, err, opts)

	h.mu.Lock()
	h.pending[pe.ID] = entry{opts: opts, created: h.now()}
	h.mu.Unlock()

	h.metrics.IncErrorPublished(string(pe.Severity))
	if h.bus.Errors.Publish(ctx, pe) == 0 {
		h.logger.Warn(ctx, "no surface received error", "id", pe.ID, "code", pe.Code)
	}
	return pe
}

// Pending returns the number of errors still awaiting an action.
func (h *Handler) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Run consumes app:error-action until ctx is done or the bus closes.
func (h *Handler) Run(ctx context.Context) {
	actions, cancel := h.bus.Actions.Subscribe()
	defer cancel()

	sweep := time.NewTicker(h.ttl / 2)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			h.wg.Wait()
			return
		case ev, ok := <-actions:
			if !ok {
				h.wg.Wait()
				return
			}
			h.dispatch(ctx, ev)
		case <-sweep.C:
			h.expire()
		}
	}
}

func (h *Handler) take(id string) (entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.pending[id]
	delete(h.pending, id)
	return e, ok
}

func (h *Handler) dispatch(ctx context.Context, ev events.ActionEvent) {
	e, ok := h.take(ev.ErrorID)
	if !ok {
		h.logger.Debug(ctx, "action for unknown or expired error", "id", ev.ErrorID, "action", string(ev.Action))
		return
	}

	switch ev.Action {
	case classify.ActionRetry, classify.ActionRefresh:
		if e.opts.Retry == nil {
			return
		}
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.retry(ctx, ev.ErrorID, e.opts)
		}()
	case classify.ActionLogin:
		if h.onAuthRequired != nil {
			h.onAuthRequired()
		}
	case classify.ActionContact:
		h.logger.Info(ctx, "user asked for support", "id", ev.ErrorID)
	case classify.ActionClose:
	}
}

// retry re-runs the call site's operation. Success retracts the original
// notification; failure replaces it with a freshly classified one.
func (h *Handler) retry(ctx context.Context, id string, opts classify.Options) {
	err := opts.Retry(ctx)
	h.bus.Removes.Publish(ctx, events.RemoveEvent{ErrorID: id})
	if err == nil {
		h.logger.Info(ctx, "retry succeeded", "id", id)
		return
	}
	h.Handle(ctx, err, opts)
}

func (h *Handler) expire() {
	cutoff := h.now().Add(-h.ttl)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, e := range h.pending {
		if e.created.Before(cutoff) {
			delete(h.pending, id)
		}
	}
}
