package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"studioworkers/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const proxyContentType = "video/mp4"

// S3Store gives the transcoder readable inputs and a place for proxies.
type S3Store struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucket     string
	presignTTL time.Duration
}

func NewS3Store(cfg *config.MediaConfig) (*S3Store, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.S3Region),
	}

	if cfg.AWSS3AccessKey != "" || cfg.AWSS3SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(
			cfg.AWSS3AccessKey,
			cfg.AWSS3SecretKey,
			"",
		)
	}

	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
	}

	if cfg.S3UsePathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	ttl := cfg.S3PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Store{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucket:     cfg.S3Bucket,
		presignTTL: ttl,
	}, nil
}

// InputURL presigns s3:// sources. Other URLs are already readable and are
// returned unchanged.
func (s *S3Store) InputURL(ctx context.Context, sourceURL string) (string, error) {
	if !strings.HasPrefix(sourceURL, "s3://") {
		return sourceURL, nil
	}

	bucket, key, err := parseS3URL(sourceURL)
	if err != nil {
		return "", err
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	signed, err := req.Presign(s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", sourceURL, err)
	}
	return signed, nil
}

// UploadProxy stores the file at proxy/<assetID>.mp4 and returns its s3:// location.
func (s *S3Store) UploadProxy(ctx context.Context, localPath, assetID string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("proxy/%s.mp4", assetID)
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(proxyContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func parseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url %q: %w", raw, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 url %q: bucket and key are required", raw)
	}
	return bucket, key, nil
}
