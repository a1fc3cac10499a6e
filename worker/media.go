package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"studioworkers/media"
	"studioworkers/models"
	"studioworkers/services"
)

type MediaProcessor struct {
	reporter
	queue    string
	pipeline *media.Pipeline
}

type MediaOptions struct {
	Queue    string
	Pipeline *media.Pipeline
	Callback StatusReporter
	Metrics  *Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewMediaProcessor(opts MediaOptions) *MediaProcessor {
	pipeline := opts.Pipeline
	if pipeline == nil {
		pipeline = &media.Pipeline{}
	}
	return &MediaProcessor{
		reporter: newReporter("media", opts.Callback, opts.Metrics, opts.Logger, opts.Now),
		queue:    opts.Queue,
		pipeline: pipeline,
	}
}

// ProcessSingleJob reports processing, runs the pipeline and reports the
// outcome. On success the completed payload is returned; on pipeline failure
// the failed callback is sent and the pipeline error is returned.
func (p *MediaProcessor) ProcessSingleJob(ctx context.Context, payload map[string]interface{}) (*models.MediaStatus, error) {
	started := p.now()
	job := models.MediaJobFromPayload(payload)

	if !job.Valid() {
		return nil, p.invalid(fmt.Errorf("%w: media job requires jobId, organizationId and assetId", ErrInvalidJob))
	}

	log := p.logger.With(
		slog.String("job_id", job.JobID),
		slog.String("organization_id", job.OrganizationID),
		slog.String("asset_id", job.AssetID),
	)

	processing := &models.MediaStatus{
		JobID:          job.JobID,
		OrganizationID: job.OrganizationID,
		AssetID:        job.AssetID,
		Status:         models.StatusProcessing,
		ProcessedAt:    p.timestamp(),
	}
	if err := p.post(ctx, log, job.CallbackPath, processing.Status, processing); err != nil {
		return nil, err
	}

	result, err := p.pipeline.Process(ctx, job)
	if err != nil {
		failed := &models.MediaStatus{
			JobID:          job.JobID,
			OrganizationID: job.OrganizationID,
			AssetID:        job.AssetID,
			Status:         models.StatusFailed,
			Error:          err.Error(),
			ProcessedAt:    p.timestamp(),
		}
		return nil, p.failed(ctx, log, job.CallbackPath, failed, err, started)
	}

	completed := &models.MediaStatus{
		JobID:                 job.JobID,
		OrganizationID:        job.OrganizationID,
		AssetID:               job.AssetID,
		Status:                models.StatusCompleted,
		MediaProcessingResult: result,
		ProcessedAt:           p.timestamp(),
	}
	if err := p.post(ctx, log, job.CallbackPath, completed.Status, completed); err != nil {
		return nil, err
	}

	p.metrics.observe(p.kind, jobResultCompleted, p.now().Sub(started))
	return completed, nil
}

// RunConsumerIteration pops one job. It returns nil, nil when the queue is empty.
// ctx only bounds the pop; the job itself is not cancelled by it.
func (p *MediaProcessor) RunConsumerIteration(ctx context.Context, q services.QueueClient) (*models.MediaStatus, error) {
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

// Iteration adapts RunConsumerIteration for a Consumer.
func (p *MediaProcessor) Iteration(q services.QueueClient) Iteration {
	return func(ctx context.Context) (bool, error) {
		status, err := p.RunConsumerIteration(ctx, q)
		return status != nil || err != nil, err
	}
}
