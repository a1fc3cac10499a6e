package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"studioworkers/models"
	"studioworkers/pricing"
	"studioworkers/services"
)

type PricingProcessor struct {
	reporter
	queue string
}

type PricingOptions struct {
	Queue    string
	Callback StatusReporter
	Metrics  *Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewPricingProcessor(opts PricingOptions) *PricingProcessor {
	return &PricingProcessor{
		reporter: newReporter("pricing", opts.Callback, opts.Metrics, opts.Logger, opts.Now),
		queue:    opts.Queue,
	}
}

func (p *PricingProcessor) ProcessSingleJob(ctx context.Context, payload map[string]interface{}) (*models.PricingStatus, error) {
	started := p.now()
	job, err := models.PricingJobFromPayload(payload)
	if err != nil {
		return nil, p.invalid(fmt.Errorf("%w: %w", ErrInvalidJob, err))
	}

	if !job.Valid() {
		return nil, p.invalid(fmt.Errorf("%w: pricing job requires jobId and organizationId", ErrInvalidJob))
	}

	log := p.logger.With(
		slog.String("job_id", job.JobID),
		slog.String("organization_id", job.OrganizationID),
	)

	processing := &models.PricingStatus{
		JobID:          job.JobID,
		OrganizationID: job.OrganizationID,
		Status:         models.StatusProcessing,
		ProcessedAt:    p.timestamp(),
	}
	if err := p.post(ctx, log, job.CallbackPath, processing.Status, processing); err != nil {
		return nil, err
	}

	recommendation, err := pricing.RecommendPrice(job)
	if err != nil {
		failed := &models.PricingStatus{
			JobID:          job.JobID,
			OrganizationID: job.OrganizationID,
			Status:         models.StatusFailed,
			Error:          err.Error(),
			ProcessedAt:    p.timestamp(),
		}
		return nil, p.failed(ctx, log, job.CallbackPath, failed, err, started)
	}

	completed := &models.PricingStatus{
		JobID:                 job.JobID,
		OrganizationID:        job.OrganizationID,
		Status:                models.StatusCompleted,
		PricingRecommendation: recommendation,
		ProcessedAt:           p.timestamp(),
	}
	if err := p.post(ctx, log, job.CallbackPath, completed.Status, completed); err != nil {
		return nil, err
	}

	log.Debug("Pricing recommendation",
		slog.Int64("suggested_daily_rate_cents", recommendation.SuggestedDailyRateCents),
		slog.Float64("confidence", recommendation.Confidence),
	)
	p.metrics.observe(p.kind, jobResultCompleted, p.now().Sub(started))
	return completed, nil
}

func (p *PricingProcessor) RunConsumerIteration(ctx context.Context, q services.QueueClient) (*models.PricingStatus, error) {
	payload, err := q.PopJob(ctx, p.queue)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}
	if payload == nil {
		return nil, nil
	}
	// A popped job always reaches its terminal callback, even during shutdown.
	return p.ProcessSingleJob(context.WithoutCancel(ctx), payload)
}

func (p *PricingProcessor) Iteration(q services.QueueClient) Iteration {
	return func(ctx context.Context) (bool, error) {
		status, err := p.RunConsumerIteration(ctx, q)
		return status != nil || err != nil, err
	}
}
