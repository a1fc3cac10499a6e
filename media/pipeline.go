package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studioworkers/models"
)

var ErrUnsupportedSource = errors.New("Unsupported source URL")

var supportedSchemes = []string{"http://", "https://", "s3://"}

// PipelineError is returned by the pipeline for any failing step. Its message
// is the message of the underlying error.
type PipelineError struct {
	Err error
}

func (e *PipelineError) Error() string {
	return e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// TranscodeError reports a failed proxy transcode.
type TranscodeError struct {
	AssetID string
	Err     error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode asset %s: %v", e.AssetID, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// Transcoder produces a proxy rendition of sourceURL and returns where it lives.
type Transcoder interface {
	Transcode(ctx context.Context, binaryPath, sourceURL, assetID string) (string, error)
}

// ExtractMetadata checks the source scheme and returns a fixed metadata record.
// The source itself is not read.
func ExtractMetadata(sourceURL string) (map[string]interface{}, error) {
	if !hasSupportedScheme(sourceURL) {
		return nil, ErrUnsupportedSource
	}

	return map[string]interface{}{
		"sourceUrl":       sourceURL,
		"codec":           "h264",
		"durationSeconds": 120,
		"width":           1920,
		"height":          1080,
	}, nil
}

func GenerateThumbnail(sourceURL, assetID string) string {
	return fmt.Sprintf("%s/thumbnails/%s.jpg", strings.TrimRight(sourceURL, "/"), assetID)
}

// GenerateProxy derives the proxy location without running the transcoder.
// binaryPath is accepted so callers can switch to a Transcoder without
// changing call sites.
func GenerateProxy(sourceURL, assetID, binaryPath string) string {
	_ = binaryPath
	return fmt.Sprintf("%s/proxy/%s.mp4", strings.TrimRight(sourceURL, "/"), assetID)
}

type Pipeline struct {
	BinaryPath string
	// Transcoder is optional; without it proxies come from GenerateProxy.
	Transcoder Transcoder
}

func (p *Pipeline) Process(ctx context.Context, job models.MediaJob) (*models.MediaProcessingResult, error) {
	metadata, err := ExtractMetadata(job.SourceURL)
	if err != nil {
		return nil, &PipelineError{Err: err}
	}

	thumbnailURL := GenerateThumbnail(job.SourceURL, job.AssetID)

	var proxyURL string
	if p.Transcoder != nil {
		proxyURL, err = p.Transcoder.Transcode(ctx, p.BinaryPath, job.SourceURL, job.AssetID)
		if err != nil {
			var te *TranscodeError
			if !errors.As(err, &te) {
				err = &TranscodeError{AssetID: job.AssetID, Err: err}
			}
			return nil, &PipelineError{Err: err}
		}
	} else {
		proxyURL = GenerateProxy(job.SourceURL, job.AssetID, p.BinaryPath)
	}

	return &models.MediaProcessingResult{
		Metadata:     metadata,
		ThumbnailURL: thumbnailURL,
		ProxyURL:     &proxyURL,
	}, nil
}

// ProcessJob runs the stub pipeline for job.
func ProcessJob(job models.MediaJob, binaryPath string) (*models.MediaProcessingResult, error) {
	p := &Pipeline{BinaryPath: binaryPath}
	return p.Process(context.Background(), job)
}

func hasSupportedScheme(sourceURL string) bool {
	for _, scheme := range supportedSchemes {
		if strings.HasPrefix(sourceURL, scheme) {
			return true
		}
	}
	return false
}
