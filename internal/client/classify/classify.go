// Package classify turns terminal request failures into ProcessedErrors:
// a user-facing message, a severity, display settings and the actions the
// user may take. It never renders anything.
package classify

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pharmalink/internal/client/apierr"
	"github.com/dmitrijs2005/pharmalink/internal/common"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

type ActionType string

const (
	ActionRetry   ActionType = "retry"
	ActionLogin   ActionType = "login"
	ActionRefresh ActionType = "refresh"
	ActionContact ActionType = "contact"
	ActionClose   ActionType = "close"
)

type UserAction struct {
	Type    ActionType
	Label   string
	Primary bool
}

// DisplayConfig tells a UI surface how to show the error.
type DisplayConfig struct {
	ShowToast bool
	AutoClose bool
	Duration  time.Duration
}

// ProcessedError is the only failure representation UI code sees.
type ProcessedError struct {
	ID          string
	Message     string
	Severity    Severity
	Context     string
	Code        string
	Status      int
	Retryable   bool
	Fields      map[string]string
	Config      DisplayConfig
	UserActions []UserAction
	OccurredAt  time.Time
}

// Clone returns a copy that shares no mutable state with p.
func (p ProcessedError) Clone() ProcessedError {
	p.Fields = maps.Clone(p.Fields)
	p.UserActions = slices.Clone(p.UserActions)
	return p
}

// HasAction reports whether the user may choose t.
func (p ProcessedError) HasAction(t ActionType) bool {
	return slices.ContainsFunc(p.UserActions, func(a UserAction) bool { return a.Type == t })
}

// RetryFunc re-runs the failed operation from its call site.
type RetryFunc func(ctx context.Context) error

type Options struct {
	// Context labels the operation, such as "Medicine search".
	Context string
	// Retry enables the retry action for retryable failures.
	Retry RetryFunc
	// AllowDismissCritical keeps the close action on CRITICAL errors.
	AllowDismissCritical bool
}

var displayBySeverity = map[Severity]DisplayConfig{
	SeverityInfo:     {ShowToast: true, AutoClose: true, Duration: 3 * time.Second},
	SeverityWarning:  {ShowToast: true, AutoClose: true, Duration: 5 * time.Second},
	SeverityError:    {ShowToast: true},
	SeverityCritical: {ShowToast: true},
}

type Classifier struct {
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

func New(logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Classifier{
		logger: logger.With("component", "classify"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// outcome is what the error says about itself before presentation rules.
type outcome struct {
	code      string
	severity  Severity
	status    int
	retryable bool
	auth      bool
	conflict  bool
	contact   bool
	fields    map[string]string
}

func (c *Classifier) Classify(ctx context.Context, err error, opts Options) ProcessedError {
	o := inspect(err)

	p := ProcessedError{
		ID:         c.newID(),
		Message:    GetErrorMessage(o.code),
		Severity:   o.severity,
		Context:    opts.Context,
		Code:       o.code,
		Status:     o.status,
		Retryable:  o.retryable,
		Fields:     maps.Clone(o.fields),
		Config:     displayBySeverity[o.severity],
		OccurredAt: c.now(),
	}
	p.UserActions = actions(o, opts)

	c.logger.Debug(ctx, "error classified",
		"id", p.ID, "code", p.Code, "severity", string(p.Severity), "context", p.Context, "err", err)
	return p
}

func inspect(err error) outcome {
	var (
		ae *apierr.AuthExpiredError
		ve *apierr.ValidationError
		ne *apierr.NetworkError
		he *apierr.HTTPError
	)

	switch {
	case err == nil:
		return outcome{code: common.CodeUnknown, severity: SeverityError, contact: true}
	case errors.Is(err, context.Canceled):
		return outcome{code: common.CodeCancelled, severity: SeverityInfo}
	case errors.As(err, &ae):
		return outcome{code: common.CodeSessionExpired, severity: SeverityCritical, status: http.StatusUnauthorized, auth: true}
	case errors.As(err, &ve):
		return outcome{
			code:     serverCode(ve.Code, common.CodeValidationFailed),
			severity: SeverityWarning,
			status:   ve.Status,
			fields:   ve.Fields,
		}
	case errors.As(err, &ne):
		code := common.CodeNetworkUnreachable
		if ne.Timeout {
			code = common.CodeTimeout
		}
		return outcome{code: code, severity: SeverityError, retryable: true}
	case errors.Is(err, context.DeadlineExceeded):
		return outcome{code: common.CodeTimeout, severity: SeverityError, retryable: true}
	case errors.As(err, &he):
		return fromStatus(he)
	default:
		return outcome{code: common.CodeUnknown, severity: SeverityError, contact: true}
	}
}

func fromStatus(he *apierr.HTTPError) outcome {
	o := outcome{status: he.Status, severity: SeverityError}

	switch s := he.Status; {
	case s == http.StatusUnauthorized && he.Code == common.CodeInvalidCredentials:
		o.code = common.CodeInvalidCredentials
		o.severity = SeverityWarning
		o.auth = true
	case s == http.StatusUnauthorized:
		o.code = serverCode(he.Code, common.CodeTokenExpired)
		o.severity = SeverityCritical
		o.auth = true
	case s == http.StatusForbidden:
		o.code = serverCode(he.Code, common.CodeForbidden)
		o.contact = true
	case s == http.StatusNotFound:
		o.code = serverCode(he.Code, common.CodeNotFound)
	case s == http.StatusConflict:
		o.code = serverCode(he.Code, common.CodeConflict)
		o.conflict = true
	case s == http.StatusBadRequest || s == http.StatusUnprocessableEntity:
		o.code = serverCode(he.Code, common.CodeValidationFailed)
		o.severity = SeverityWarning
	case s == http.StatusTooManyRequests:
		o.code = common.CodeRateLimited
		o.severity = SeverityWarning
		o.retryable = true
	case s == http.StatusServiceUnavailable:
		o.code = serverCode(he.Code, common.CodeUnavailable)
		o.retryable = true
		o.contact = true
	case s >= http.StatusInternalServerError:
		o.code = serverCode(he.Code, common.CodeServerError)
		o.retryable = true
		o.contact = true
	default:
		o.code = serverCode(he.Code, common.CodeUnknown)
	}
	return o
}

// serverCode keeps the server's code when it has a message of its own.
func serverCode(code, derived string) string {
	if code != "" && Registered(code) {
		return code
	}
	return derived
}

func actions(o outcome, opts Options) []UserAction {
	var out []UserAction
	hasPrimary := false
	add := func(t ActionType, label string, primary bool) {
		primary = primary && !hasPrimary
		hasPrimary = hasPrimary || primary
		out = append(out, UserAction{Type: t, Label: label, Primary: primary})
	}

	if o.auth {
		add(ActionLogin, "Log in", true)
	}
	if o.retryable && opts.Retry != nil {
		add(ActionRetry, "Try again", true)
	}
	if o.conflict {
		add(ActionRefresh, "Reload", true)
	}
	if o.contact {
		add(ActionContact, "Contact support", false)
	}
	if o.severity != SeverityCritical || opts.AllowDismissCritical {
		add(ActionClose, "Dismiss", false)
	}
	return out
}
