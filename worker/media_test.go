package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioworkers/media"
	"studioworkers/models"
	"studioworkers/services"
)

func newMediaProcessor(cb StatusReporter, metrics *Metrics) *MediaProcessor {
	return NewMediaProcessor(MediaOptions{
		Queue:    "media-jobs",
		Pipeline: &media.Pipeline{BinaryPath: "ffmpeg"},
		Callback: cb,
		Metrics:  metrics,
		Now:      fixedClock(),
	})
}

func mediaPayload(jobID, source string) map[string]interface{} {
	return map[string]interface{}{
		"jobId":          jobID,
		"organizationId": "org-1",
		"assetId":        "asset-" + jobID,
		"sourceUrl":      source,
		"callbackPath":   "/workers/media/status",
	}
}

func TestMediaProcessor_ReportsProcessingThenCompleted(t *testing.T) {
	cb := &recordingReporter{}
	reg := prometheus.NewRegistry()
	p := newMediaProcessor(cb, NewMetrics(reg))

	status, err := p.ProcessSingleJob(context.Background(), mediaPayload("job-1", "https://cdn.example.com/media/video.mp4"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, []string{"processing", "completed"}, cb.statuses())

	processing := cb.posted[0].Payload
	assert.Equal(t, "/workers/media/status", cb.posted[0].Path)
	assert.Equal(t, map[string]interface{}{
		"jobId":          "job-1",
		"organizationId": "org-1",
		"assetId":        "asset-job-1",
		"status":         "processing",
		"processedAt":    fixedTimestamp,
	}, processing)

	completed := cb.posted[1].Payload
	assert.Equal(t, "https://cdn.example.com/media/video.mp4/thumbnails/asset-job-1.jpg", completed["thumbnailUrl"])
	assert.Equal(t, "https://cdn.example.com/media/video.mp4/proxy/asset-job-1.mp4", completed["proxyUrl"])
	assert.Equal(t, "h264", completed["metadata"].(map[string]interface{})["codec"])
	assert.NotContains(t, completed, "error")

	assert.Equal(t, *status.ProxyURL, completed["proxyUrl"])
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.jobs.WithLabelValues("media", "completed")))
}

func TestMediaProcessor_ReportsFailedStatus(t *testing.T) {
	cb := &recordingReporter{}
	reg := prometheus.NewRegistry()
	p := newMediaProcessor(cb, NewMetrics(reg))

	status, err := p.ProcessSingleJob(context.Background(), mediaPayload("job-2", "file:///tmp/video.mp4"))

	assert.Nil(t, status)
	var pe *media.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, media.ErrUnsupportedSource)

	assert.Equal(t, []string{"processing", "failed"}, cb.statuses())
	failed := cb.posted[1].Payload
	assert.Equal(t, "Unsupported source URL", failed["error"])
	assert.NotContains(t, failed, "metadata")
	assert.NotContains(t, failed, "thumbnailUrl")
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.jobs.WithLabelValues("media", "failed")))
}

func TestMediaProcessor_InvalidJobSendsNoCallback(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{name: "empty payload", payload: map[string]interface{}{}},
		{name: "missing asset", payload: map[string]interface{}{"jobId": "j", "organizationId": "o"}},
		{name: "missing organization", payload: map[string]interface{}{"jobId": "j", "assetId": "a"}},
		{name: "missing job id", payload: map[string]interface{}{"organizationId": "o", "assetId": "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := &recordingReporter{}
			p := newMediaProcessor(cb, nil)

			_, err := p.ProcessSingleJob(context.Background(), tt.payload)

			require.ErrorIs(t, err, ErrInvalidJob)
			assert.Empty(t, cb.posted)
		})
	}
}

func TestMediaProcessor_ProcessingCallbackFailureStopsJob(t *testing.T) {
	transportErr := &services.TransportError{URL: "http://api/workers/media/status", Err: errors.New("connection refused")}
	cb := &recordingReporter{failOn: map[string]error{"processing": transportErr}}
	reg := prometheus.NewRegistry()
	p := newMediaProcessor(cb, NewMetrics(reg))

	_, err := p.ProcessSingleJob(context.Background(), mediaPayload("job-3", "https://cdn/v.mp4"))

	var te *services.TransportError
	require.ErrorAs(t, err, &te)
	assert.Empty(t, cb.posted)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.callbackFailures.WithLabelValues("media")))
}

func TestMediaProcessor_FailedCallbackErrorIsJoined(t *testing.T) {
	transportErr := &services.TransportError{URL: "http://api/workers/media/status", StatusCode: 502, Err: errors.New("bad gateway")}
	cb := &recordingReporter{failOn: map[string]error{"failed": transportErr}}
	p := newMediaProcessor(cb, nil)

	_, err := p.ProcessSingleJob(context.Background(), mediaPayload("job-4", "ftp://host/v.mp4"))

	var te *services.TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, media.ErrUnsupportedSource)
	assert.Equal(t, []string{"processing"}, cb.statuses())
}

func TestMediaProcessor_CompletedCallbackFailure(t *testing.T) {
	transportErr := &services.TransportError{URL: "http://api/workers/media/status", Err: errors.New("timeout")}
	cb := &recordingReporter{failOn: map[string]error{"completed": transportErr}}
	p := newMediaProcessor(cb, nil)

	status, err := p.ProcessSingleJob(context.Background(), mediaPayload("job-5", "s3://raw/v.mp4"))

	assert.Nil(t, status)
	require.ErrorIs(t, err, transportErr)
	assert.Equal(t, []string{"processing"}, cb.statuses())
}

func TestMediaProcessor_RunConsumerIteration(t *testing.T) {
	queue := services.NewMemoryQueue(mediaPayload("job-6", "https://cdn.example.com/media/clip.mov"))
	cb := &recordingReporter{}
	p := newMediaProcessor(cb, nil)

	status, err := p.RunConsumerIteration(context.Background(), queue)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Len(t, cb.posted, 2)
	assert.Zero(t, queue.Len())

	status, err = p.RunConsumerIteration(context.Background(), queue)
	require.NoError(t, err)
	assert.Nil(t, status)
	assert.Len(t, cb.posted, 2)
}

type brokenQueue struct{}

func (brokenQueue) PopJob(context.Context, string) (map[string]interface{}, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestMediaProcessor_QueueErrorIsWrapped(t *testing.T) {
	p := newMediaProcessor(&recordingReporter{}, nil)

	_, err := p.RunConsumerIteration(context.Background(), brokenQueue{})

	require.ErrorIs(t, err, ErrQueueUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}
