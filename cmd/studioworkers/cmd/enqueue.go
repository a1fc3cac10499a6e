package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"studioworkers/config"
	"studioworkers/logger"
	"studioworkers/models"
	"studioworkers/services"
)

var enqueueFile string

func init() {
	enqueueCmd.Flags().StringVarP(&enqueueFile, "file", "f", "-", "JSON job payload, or - for stdin")
	rootCmd.AddCommand(enqueueCmd)
}

var enqueueCmd = &cobra.Command{
	Use:       "enqueue <media|pricing>",
	Short:     "Push a job payload onto a worker queue",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"media", "pricing"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		common := commonFor(args[0])

		in := cmd.InOrStdin()
		if enqueueFile != "-" {
			f, err := os.Open(enqueueFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		ctx := cmd.Context()
		client, err := services.DialRedis(ctx, common.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		log := logger.New(logger.Config{Level: common.LogLevel, Format: common.LogFormat, Writer: cmd.ErrOrStderr()})
		jobID, err := enqueueJob(ctx, services.NewRedisQueue(client, log), common.JobsQueue, in)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s job %s on %s\n", args[0], jobID, common.JobsQueue)
		return nil
	},
}

type jobPusher interface {
	PushJob(ctx context.Context, queueName string, payload map[string]interface{}) error
}

func commonFor(kind string) config.Common {
	if kind == "media" {
		return config.LoadMedia().Common
	}
	return config.LoadPricing().Common
}

// enqueueJob decodes a single JSON object from r, assigns a jobId when the
// payload has none (absent, null or blank) and pushes it onto queue.
func enqueueJob(ctx context.Context, q jobPusher, queue string, r io.Reader) (string, error) {
	var payload map[string]interface{}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return "", fmt.Errorf("decode job payload: %w", err)
	}
	if payload == nil {
		return "", errors.New("job payload must be a JSON object")
	}

	jobID := models.JobIDFromPayload(payload)
	if strings.TrimSpace(jobID) == "" {
		jobID = uuid.NewString()
		payload["jobId"] = jobID
	}

	if err := q.PushJob(ctx, queue, payload); err != nil {
		return "", err
	}
	return jobID, nil
}
