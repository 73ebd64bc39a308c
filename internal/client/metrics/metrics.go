// Package metrics holds the Prometheus instruments of the API client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every client-side instrument. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Retries         *prometheus.CounterVec
	Refreshes       *prometheus.CounterVec
	QueuedReplays   prometheus.Counter
	ErrorsPublished *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmalink_client_requests_total",
			Help: "HTTP attempts issued by the API client, by method and status (0 = no response)",
		}, []string{"method", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pharmalink_client_request_duration_seconds",
			Help:    "Latency of single HTTP attempts",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmalink_client_retries_total",
			Help: "Transport-level retries scheduled, by method",
		}, []string{"method"}),
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmalink_client_token_refreshes_total",
			Help: "Token refresh calls, by outcome (success, rejected, failed)",
		}, []string{"outcome"}),
		QueuedReplays: f.NewCounter(prometheus.CounterOpts{
			Name: "pharmalink_client_queued_replays_total",
			Help: "Requests that waited for an in-flight refresh instead of starting one",
		}),
		ErrorsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmalink_client_errors_published_total",
			Help: "Processed errors broadcast to UI surfaces, by severity",
		}, []string{"severity"}),
	}
}

func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) IncRetry(method string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(method).Inc()
}

func (m *Metrics) IncRefresh(outcome string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncQueuedReplay() {
	if m == nil {
		return
	}
	m.QueuedReplays.Inc()
}

func (m *Metrics) IncErrorPublished(severity string) {
	if m == nil {
		return
	}
	m.ErrorsPublished.WithLabelValues(severity).Inc()
}
