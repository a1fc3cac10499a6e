package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"studioworkers/config"
	"studioworkers/worker"
)

func init() {
	rootCmd.AddCommand(pricingCmd)
}

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Consume the pricing jobs queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg := config.LoadPricing()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid pricing worker configuration: %w", err)
		}

		ctx := cmd.Context()
		rt, err := newWorkerDeps(ctx, cfg.Common)
		if err != nil {
			return err
		}
		defer rt.Close()

		processor := worker.NewPricingProcessor(worker.PricingOptions{
			Queue:    cfg.JobsQueue,
			Callback: rt.callback,
			Metrics:  rt.metrics,
			Logger:   rt.log,
		})
		consumer := worker.NewConsumer("pricing", cfg.JobsQueue, processor.Iteration(rt.queue), cfg.PollInterval, rt.log)

		rt.log.Info("Pricing worker ready",
			slog.String("queue", cfg.JobsQueue),
			slog.String("api_base_url", cfg.APIBaseURL),
		)
		return rt.serve(ctx, cfg.Common, consumer)
	},
}
