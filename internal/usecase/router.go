package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"support-router/internal/domain"
)

const (
	DefaultResetLinkBase = "https://example.com/reset-password"

	msgUnrecognized = "We couldn't automatically process your request, " +
		"so it has been forwarded to a human support agent."
)

// RecordWriter is the store surface the handlers and logger write through.
type RecordWriter interface {
	PutOrder(ctx context.Context, order domain.Order) error
	PutPasswordReset(ctx context.Context, reset domain.PasswordReset) error
	UpdateUser(ctx context.Context, userID string, assignments []domain.Assignment) error
	PutComplaint(ctx context.Context, complaint domain.Complaint) error
	PutInteractionLog(ctx context.Context, entry domain.InteractionLog) error
}

// Request is a classified support request as decoded from the inbound body.
// Intent is nil when the body carried an explicit null. Fields is nil when
// the body carried an explicit null for it.
type Request struct {
	Intent     *string
	Confidence float64
	Message    string
	FromEmail  string
	Fields     map[string]any
}

// Option configures a Router or InteractionLogger.
type Option func(*options)

type options struct {
	resetLinkBase string
	clock         func() time.Time
}

func newOptions(opts []Option) *options {
	o := &options{
		resetLinkBase: DefaultResetLinkBase,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithResetLinkBase sets the URL password reset tokens are appended to.
func WithResetLinkBase(base string) Option {
	return func(o *options) {
		o.resetLinkBase = strings.TrimSpace(base)
	}
}

// WithClock overrides time.Now for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// Router maps an intent to its handler and runs it.
type Router struct {
	store     RecordWriter
	resetBase *url.URL
	clock     func() time.Time
}

func NewRouter(store RecordWriter, opts ...Option) (*Router, error) {
	if store == nil {
		return nil, errors.New("usecase: record writer must not be nil")
	}
	o := newOptions(opts)
	base, err := url.Parse(o.resetLinkBase)
	if err != nil {
		return nil, fmt.Errorf("usecase: parse reset link base: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("usecase: reset link base %q must be an absolute URL", o.resetLinkBase)
	}
	return &Router{store: store, resetBase: base, clock: o.clock}, nil
}

// Dispatch runs exactly one handler for a recognized intent, or returns the
// escalation result for anything else. Escalations are results, not errors;
// an error means the fields were null where a handler reads them, or a store
// write failed.
func (r *Router) Dispatch(ctx context.Context, req Request) (domain.Result, error) {
	switch intent := domain.ParseIntentLabel(req.Intent); intent {
	case domain.IntentRefund:
		return r.refund(ctx, req.FromEmail, req.Fields)
	case domain.IntentPasswordReset:
		return r.passwordReset(ctx, req.FromEmail)
	case domain.IntentCancelSubscription:
		return r.cancelSubscription(ctx, req.FromEmail)
	case domain.IntentAccountUpdate:
		return r.accountUpdate(ctx, req.FromEmail, req.Fields)
	case domain.IntentComplaint:
		return r.complaint(ctx, req.FromEmail, req.Message)
	case domain.IntentUnrecognized:
		return domain.Result{
			Status:             domain.StatusEscalate,
			Intent:             req.Intent,
			MessageForCustomer: msgUnrecognized,
		}, nil
	default:
		return domain.Result{}, newError(ErrorInternal, "unhandled_intent", fmt.Errorf("intent %d", intent))
	}
}

func (r *Router) timestamp() string {
	return r.clock().UTC().Format(time.RFC3339Nano)
}

var newUUID = func() string {
	return uuid.NewString()
}
