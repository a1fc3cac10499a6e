package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"studioworkers/config"
	"studioworkers/logger"
	"studioworkers/server"
	"studioworkers/services"
	"studioworkers/worker"
)

// workerDeps is the wiring shared by both worker commands.
type workerDeps struct {
	log      *slog.Logger
	redis    *redis.Client
	queue    *services.RedisQueue
	callback *services.CallbackClient
	registry *prometheus.Registry
	metrics  *worker.Metrics
}

func newWorkerDeps(ctx context.Context, common config.Common) (*workerDeps, error) {
	log := logger.New(logger.Config{Level: common.LogLevel, Format: common.LogFormat})

	client, err := services.DialRedis(ctx, common.RedisURL)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &workerDeps{
		log:      log,
		redis:    client,
		queue:    services.NewRedisQueue(client, log),
		callback: services.NewCallbackClient(common.APIBaseURL, common.CallbackToken),
		registry: reg,
		metrics:  worker.NewMetrics(reg),
	}, nil
}

func (rt *workerDeps) Close() {
	if err := rt.redis.Close(); err != nil {
		rt.log.Warn("Failed to close redis client", slog.String("error", err.Error()))
	}
}

// serve runs the consumer and the health server until ctx is cancelled.
func (rt *workerDeps) serve(ctx context.Context, common config.Common, consumer *worker.Consumer) error {
	srv := server.NewHTTPServer(common.Port, server.NewRouter(rt.log, rt.registry))

	serveErr := make(chan error, 1)
	go func() {
		rt.log.Info("Health server listening", slog.Int("port", common.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("health server: %w", err)
		}
		close(serveErr)
	}()

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Run(consumerCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		rt.log.Info("Shutdown signal received, stopping worker")
	case err, ok := <-serveErr:
		if ok {
			runErr = err
		}
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), common.ShutdownTimeout)
	defer done()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Warn("Health server shutdown failed", slog.String("error", err.Error()))
	}

	select {
	case <-consumerDone:
		rt.log.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		rt.log.Warn("Shutdown timeout, forcing exit")
	}

	return runErr
}
