package usecase

import (
	"context"
	"errors"
	"time"

	"support-router/internal/domain"
)

// InteractionLogger appends one audit row per dispatched request.
type InteractionLogger struct {
	store RecordWriter
	clock func() time.Time
}

func NewInteractionLogger(store RecordWriter, opts ...Option) (*InteractionLogger, error) {
	if store == nil {
		return nil, errors.New("usecase: record writer must not be nil")
	}
	o := newOptions(opts)
	return &InteractionLogger{store: store, clock: o.clock}, nil
}

// Log records the request and the outcome the customer is about to receive.
// Write failures are returned to the caller unchanged in meaning.
func (l *InteractionLogger) Log(ctx context.Context, req Request, result domain.Result) error {
	err := l.store.PutInteractionLog(ctx, domain.InteractionLog{
		LogID:        newUUID(),
		Timestamp:    l.clock().UTC().Format(time.RFC3339Nano),
		Intent:       req.Intent,
		Confidence:   req.Confidence,
		Email:        req.FromEmail,
		Message:      req.Message,
		ResultStatus: result.Status,
		ResultIntent: result.Intent,
	})
	if err != nil {
		return newError(ErrorStore, "dynamodb_log_write_error", err)
	}
	return nil
}
