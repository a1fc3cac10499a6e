package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"studioworkers/config"
	"studioworkers/media"
	"studioworkers/services"
	"studioworkers/worker"
)

func init() {
	rootCmd.AddCommand(mediaCmd)
}

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Consume the media jobs queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg := config.LoadMedia()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid media worker configuration: %w", err)
		}

		ctx := cmd.Context()
		rt, err := newWorkerDeps(ctx, cfg.Common)
		if err != nil {
			return err
		}
		defer rt.Close()

		pipeline, err := buildPipeline(cfg, rt)
		if err != nil {
			return err
		}

		processor := worker.NewMediaProcessor(worker.MediaOptions{
			Queue:    cfg.JobsQueue,
			Pipeline: pipeline,
			Callback: rt.callback,
			Metrics:  rt.metrics,
			Logger:   rt.log,
		})
		consumer := worker.NewConsumer("media", cfg.JobsQueue, processor.Iteration(rt.queue), cfg.PollInterval, rt.log)

		rt.log.Info("Media worker ready",
			slog.String("queue", cfg.JobsQueue),
			slog.String("transcoder", cfg.Transcoder),
			slog.String("api_base_url", cfg.APIBaseURL),
		)
		return rt.serve(ctx, cfg.Common, consumer)
	},
}

func buildPipeline(cfg *config.MediaConfig, rt *workerDeps) (*media.Pipeline, error) {
	pipeline := &media.Pipeline{BinaryPath: cfg.FFmpegBinaryPath}
	if cfg.Transcoder != config.TranscoderFFmpeg {
		return pipeline, nil
	}

	store, err := services.NewS3Store(cfg)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	pipeline.Transcoder = &media.FFmpegTranscoder{
		Store:   store,
		TempDir: cfg.TempDir,
		Logger:  rt.log,
	}
	return pipeline, nil
}
