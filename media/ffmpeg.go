package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"studioworkers/logger"
)

const maxStderrBytes = 1024

// ObjectStore resolves sources into something ffmpeg can read and stores
// finished proxies.
type ObjectStore interface {
	InputURL(ctx context.Context, sourceURL string) (string, error)
	UploadProxy(ctx context.Context, localPath, assetID string) (string, error)
}

// FFmpegTranscoder renders a 540p H.264 proxy with an external ffmpeg binary.
type FFmpegTranscoder struct {
	Store   ObjectStore
	TempDir string
	Logger  *slog.Logger
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, binaryPath, sourceURL, assetID string) (string, error) {
	log := logger.OrDefault(t.Logger)

	input, err := t.Store.InputURL(ctx, sourceURL)
	if err != nil {
		return "", &TranscodeError{AssetID: assetID, Err: fmt.Errorf("resolve input: %w", err)}
	}

	out, err := os.CreateTemp(t.TempDir, assetID+"-proxy-*.mp4")
	if err != nil {
		return "", &TranscodeError{AssetID: assetID, Err: fmt.Errorf("create output: %w", err)}
	}
	outputPath := out.Name()
	out.Close()
	defer os.Remove(outputPath)

	args := []string{
		"-y",
		"-i", input,
		"-vf", "scale=-2:540",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	}

	log.Debug("running transcoder", slog.String("asset_id", assetID), slog.String("binary", binaryPath))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &TranscodeError{
			AssetID: assetID,
			Err:     fmt.Errorf("ffmpeg execution: %w - %s", err, tail(stderr.String(), maxStderrBytes)),
		}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", &TranscodeError{AssetID: assetID, Err: err}
	}
	if info.Size() == 0 {
		return "", &TranscodeError{AssetID: assetID, Err: errors.New("ffmpeg produced an empty file")}
	}

	location, err := t.Store.UploadProxy(ctx, outputPath, assetID)
	if err != nil {
		return "", &TranscodeError{AssetID: assetID, Err: fmt.Errorf("upload proxy: %w", err)}
	}

	log.Info("proxy transcoded", slog.String("asset_id", assetID), slog.String("location", location))
	return location, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
