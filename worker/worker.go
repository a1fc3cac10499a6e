package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"studioworkers/logger"
	"studioworkers/models"
)

var (
	// ErrInvalidJob is returned before any callback when a payload lacks the
	// identity fields needed to report on it.
	ErrInvalidJob = errors.New("invalid job payload")

	// ErrQueueUnavailable wraps failures to pop from the queue.
	ErrQueueUnavailable = errors.New("queue unavailable")
)

// StatusReporter delivers a status payload to a callback path.
type StatusReporter interface {
	PostStatus(ctx context.Context, callbackPath string, payload interface{}) error
}

// reporter holds what both job orchestrators share.
type reporter struct {
	kind     string
	callback StatusReporter
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func newReporter(kind string, callback StatusReporter, metrics *Metrics, log *slog.Logger, now func() time.Time) reporter {
	if now == nil {
		now = time.Now
	}
	return reporter{
		kind:     kind,
		callback: callback,
		metrics:  metrics,
		logger:   logger.OrDefault(log).With(slog.String("worker", kind)),
		now:      now,
	}
}

func (r *reporter) timestamp() string {
	return models.UTCNow(r.now())
}

func (r *reporter) post(ctx context.Context, log *slog.Logger, callbackPath string, status models.JobStatus, payload interface{}) error {
	if err := r.callback.PostStatus(ctx, callbackPath, payload); err != nil {
		r.metrics.callbackFailed(r.kind)
		log.Error("Failed to deliver status callback",
			slog.String("status", string(status)),
			slog.String("callback_path", callbackPath),
			slog.String("error", err.Error()),
		)
		return err
	}
	log.Info("Reported job status", slog.String("status", string(status)))
	return nil
}

// failed reports the failed status for engineErr. A callback error is joined
// with engineErr so callers can see both.
func (r *reporter) failed(ctx context.Context, log *slog.Logger, callbackPath string, payload interface{}, engineErr error, started time.Time) error {
	log.Warn("Job failed", slog.String("error", engineErr.Error()))
	r.metrics.observe(r.kind, jobResultFailed, r.now().Sub(started))
	if err := r.post(ctx, log, callbackPath, models.StatusFailed, payload); err != nil {
		return errors.Join(err, engineErr)
	}
	return engineErr
}

func (r *reporter) invalid(err error) error {
	r.metrics.observe(r.kind, jobResultInvalid, 0)
	r.logger.Warn("Rejecting job payload", slog.String("error", err.Error()))
	return err
}
