package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TranscoderStub   = "stub"
	TranscoderFFmpeg = "ffmpeg"
)

type Common struct {
	Port            int
	APIBaseURL      string
	RedisURL        string
	RedisPrefix     string
	JobsQueue       string
	CallbackToken   string
	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

type MediaConfig struct {
	Common
	FFmpegBinaryPath string
	Transcoder       string
	TempDir          string
	S3Bucket         string
	S3Region         string
	AWSS3AccessKey   string
	AWSS3SecretKey   string
	S3Endpoint       string
	S3UsePathStyle   bool
	S3PresignTTL     time.Duration
}

type PricingConfig struct {
	Common
}

// LoadDotEnv reads a .env file into the process environment when one exists.
// Values already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func loadCommon(portKey string, defaultPort int, queueKey, defaultQueue, tokenKey string) Common {
	redisPrefix := getEnv("REDIS_PREFIX", "")

	return Common{
		Port:            getEnvInt(portKey, defaultPort),
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:3000"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisPrefix:     redisPrefix,
		JobsQueue:       applyPrefix(getEnv(queueKey, defaultQueue), redisPrefix),
		CallbackToken:   getEnv(tokenKey, ""),
		PollInterval:    getEnvDuration("WORKER_POLL_INTERVAL", time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}
}

func LoadMedia() *MediaConfig {
	return &MediaConfig{
		Common:           loadCommon("MEDIA_WORKER_PORT", 8101, "MEDIA_JOBS_QUEUE", "media-jobs", "MEDIA_WORKER_CALLBACK_TOKEN"),
		FFmpegBinaryPath: getEnv("FFMPEG_BINARY_PATH", "ffmpeg"),
		Transcoder:       strings.ToLower(getEnv("MEDIA_TRANSCODER", TranscoderStub)),
		TempDir:          getEnv("MEDIA_TEMP_DIR", os.TempDir()),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		// Prefer unified S3_* vars, fall back to legacy AWS_* vars for compatibility
		S3Region:       getEnvWithFallback("S3_REGION", "AWS_DEFAULT_REGION", "us-east-1"),
		AWSS3AccessKey: getEnvWithFallback("S3_KEY", "AWS_ACCESS_KEY_ID", ""),
		AWSS3SecretKey: getEnvWithFallback("S3_SECRET", "AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3UsePathStyle: getEnvBool("S3_USE_PATH_STYLE_ENDPOINT", false),
		S3PresignTTL:   getEnvDuration("S3_PRESIGN_TTL", 15*time.Minute),
	}
}

func LoadPricing() *PricingConfig {
	return &PricingConfig{
		Common: loadCommon("PRICING_WORKER_PORT", 8102, "PRICING_JOBS_QUEUE", "pricing-jobs", "PRICING_WORKER_CALLBACK_TOKEN"),
	}
}

func (c *Common) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid worker port: %d", c.Port)
	}
	if strings.TrimSpace(c.JobsQueue) == "" {
		return errors.New("jobs queue name is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.APIBaseURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func (c *MediaConfig) Validate() error {
	if err := c.Common.Validate(); err != nil {
		return err
	}
	switch c.Transcoder {
	case TranscoderStub:
	case TranscoderFFmpeg:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when MEDIA_TRANSCODER=ffmpeg")
		}
	default:
		return fmt.Errorf("unknown transcoder mode: %q", c.Transcoder)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvWithFallback(primaryKey, secondaryKey, fallback string) string {
	if value := os.Getenv(primaryKey); value != "" {
		return value
	}
	if value := os.Getenv(secondaryKey); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func applyPrefix(key string, prefix string) string {
	if prefix == "" {
		return key
	}
	return prefix + key
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}
