package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"studioworkers/logger"
)

// Iteration handles at most one job. worked is false when there was nothing
// to do, so the consumer can wait before polling again.
type Iteration func(ctx context.Context) (worked bool, err error)

// Consumer runs iterations back to back on a single goroutine. A failed job
// is logged and the loop moves on to the next one.
type Consumer struct {
	name         string
	queue        string
	iterate      Iteration
	pollInterval time.Duration
	logger       *slog.Logger
}

func NewConsumer(name, queue string, iterate Iteration, pollInterval time.Duration, log *slog.Logger) *Consumer {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Consumer{
		name:         name,
		queue:        queue,
		iterate:      iterate,
		pollInterval: pollInterval,
		logger:       logger.OrDefault(log),
	}
}

// Run blocks until ctx is cancelled and then returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Starting consumer",
		slog.String("worker", c.name),
		slog.String("queue", c.queue),
		slog.Duration("poll_interval", c.pollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Shutting down consumer", slog.String("worker", c.name))
			return ctx.Err()
		default:
		}

		worked, err := c.iterate(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Job iteration failed",
				slog.String("worker", c.name),
				slog.String("queue", c.queue),
				slog.String("error", err.Error()),
			)
			if errors.Is(err, ErrQueueUnavailable) {
				worked = false
			}
		}

		if worked {
			continue
		}

		select {
		case <-ctx.Done():
			c.logger.Info("Shutting down consumer", slog.String("worker", c.name))
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}
