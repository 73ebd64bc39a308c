// Package transport builds and performs single HTTP calls against the
// backend and unwraps the response envelope.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/pharmalink/internal/client/apierr"
	"github.com/dmitrijs2005/pharmalink/internal/client/metrics"
	"github.com/dmitrijs2005/pharmalink/internal/common"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

const (
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 8 << 20

	tracerName = "github.com/dmitrijs2005/pharmalink/internal/client/transport"
)

// Doer performs one HTTP round trip. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BaseURLResolver yields the base URL for each request, so the active
// environment can change at runtime.
type BaseURLResolver interface {
	BaseURL(ctx context.Context) (string, error)
}

// Request describes one API call. Query values that are nil or nil pointers
// are skipped. Timeout bounds a single attempt; zero means the executor default.
type Request struct {
	Method  string
	Path    string
	Query   map[string]any
	Body    any
	Timeout time.Duration
}

// Result is the unwrapped success envelope.
type Result struct {
	Data json.RawMessage
	Meta *wire.Meta
}

type Executor struct {
	doer    Doer
	base    BaseURLResolver
	timeout time.Duration
	logger  logging.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Executor)

func WithDoer(d Doer) Option { return func(e *Executor) { e.doer = d } }

func WithTimeout(d time.Duration) Option { return func(e *Executor) { e.timeout = d } }

func WithLogger(l logging.Logger) Option { return func(e *Executor) { e.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Executor) { e.metrics = m } }

func WithTracer(t trace.Tracer) Option { return func(e *Executor) { e.tracer = t } }

func NewExecutor(base BaseURLResolver, opts ...Option) *Executor {
	e := &Executor{
		doer:    &http.Client{},
		base:    base,
		timeout: DefaultTimeout,
		logger:  logging.Discard(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Build resolves req against the current base URL and sets the JSON and
// auth headers. accessToken may be empty for anonymous calls.
func (e *Executor) Build(ctx context.Context, req Request, accessToken string) (*http.Request, error) {
	base, err := e.base.BaseURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve base url: %w", err)
	}

	target, err := resolveURL(base, req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader = http.NoBody
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	id := logging.RequestIDFrom(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	httpReq.Header.Set(common.HeaderRequestID, id)
	if accessToken != "" {
		httpReq.Header.Set(common.HeaderAuthorization, common.BearerPrefix+accessToken)
	}
	return httpReq, nil
}

// Execute performs one attempt under the per-request timeout and returns
// the envelope's data. Failures are *apierr.NetworkError, *apierr.HTTPError,
// *apierr.ValidationError or *apierr.UnknownError; a cancelled or expired
// caller context is returned as the context error.
func (e *Executor) Execute(ctx context.Context, req Request, accessToken string) (*Result, error) {
	parent := ctx
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if logging.RequestIDFrom(ctx) == "" {
		ctx = logging.ContextWithRequestID(ctx, uuid.NewString())
	}

	ctx, span := e.tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		))
	defer span.End()

	httpReq, err := e.Build(ctx, req, accessToken)
	if err != nil {
		err = &apierr.UnknownError{Message: "invalid request", Err: err}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	started := time.Now()
	resp, err := e.doer.Do(httpReq)
	if err != nil {
		e.metrics.ObserveRequest(req.Method, 0, time.Since(started))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")

		if perr := parent.Err(); perr != nil {
			return nil, perr
		}
		e.logger.Debug(ctx, "transport failure", "method", req.Method, "path", req.Path, "err", err)
		return nil, &apierr.NetworkError{
			Method:   req.Method,
			Path:     req.Path,
			Attempts: 1,
			Timeout:  isTimeout(err),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	e.metrics.ObserveRequest(req.Method, resp.StatusCode, time.Since(started))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		span.SetStatus(codes.Error, "body read failed")
		if perr := parent.Err(); perr != nil {
			return nil, perr
		}
		return nil, &apierr.NetworkError{Method: req.Method, Path: req.Path, Attempts: 1, Timeout: isTimeout(err), Err: err}
	}

	e.logger.Debug(ctx, "response received", "method", req.Method, "path", req.Path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := decodeError(resp.StatusCode, raw, req.Method, req.Path)
		span.SetStatus(codes.Error, herr.Error())
		return nil, herr
	}

	res, err := unwrapEnvelope(raw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func unwrapEnvelope(raw []byte) (*Result, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &Result{}, nil
	}

	var env wire.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &apierr.UnknownError{Message: "malformed response envelope", Err: err}
	}
	if !env.Success {
		return nil, &apierr.UnknownError{Message: "server reported failure in a success response"}
	}
	return &Result{Data: env.Data, Meta: env.Meta}, nil
}

// decodeError builds the typed error for a non-2xx response.
func decodeError(status int, raw []byte, method, path string) error {
	herr := apierr.HTTPError{
		Status:  status,
		Message: "request failed with status " + strconv.Itoa(status),
		Method:  method,
		Path:    path,
	}

	var body wire.ErrorBody
	if len(raw) == 0 || json.Unmarshal(raw, &body) != nil {
		return &herr
	}

	herr.Code = body.Code
	if msg := body.Message.String(); msg != "" {
		herr.Message = msg
	} else if body.Error != "" {
		herr.Message = body.Error
	}

	if status != http.StatusBadRequest && status != http.StatusUnprocessableEntity {
		return &herr
	}

	fields := body.Details
	if len(fields) == 0 && len(body.Message) > 1 {
		fields = fieldsFromMessages(body.Message)
	}
	if len(fields) == 0 {
		return &herr
	}
	return &apierr.ValidationError{HTTPError: herr, Fields: fields}
}

// fieldsFromMessages keys framework validation messages ("price must be
// positive") by their leading property name.
func fieldsFromMessages(msgs wire.Messages) map[string]string {
	out := make(map[string]string, len(msgs))
	for _, m := range msgs {
		field, _, _ := strings.Cut(m, " ")
		if prev, ok := out[field]; ok {
			out[field] = prev + "; " + m
			continue
		}
		out[field] = m
	}
	return out
}
