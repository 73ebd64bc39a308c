package client

import (
	"time"

	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

type callOptions struct {
	query   map[string]any
	body    any
	timeout time.Duration
	retry   bool
	meta    *wire.Meta
}

// CallOption tunes a single request.
type CallOption func(*callOptions)

func newCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithQuery adds query parameters. nil values are skipped and slices are
// sent as repeated keys.
func WithQuery(q map[string]any) CallOption {
	return func(o *callOptions) {
		if o.query == nil {
			o.query = make(map[string]any, len(q))
		}
		for k, v := range q {
			o.query[k] = v
		}
	}
}

// WithBody sets the JSON request body.
func WithBody(body any) CallOption {
	return func(o *callOptions) { o.body = body }
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// WithRetry allows transport retries for a non-GET request the caller
// knows to be idempotent.
func WithRetry() CallOption {
	return func(o *callOptions) { o.retry = true }
}

// WithMeta receives the envelope's meta block, such as pagination.
func WithMeta(m *wire.Meta) CallOption {
	return func(o *callOptions) { o.meta = m }
}
