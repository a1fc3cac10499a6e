package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	envFile string
)

var rootCmd = &cobra.Command{
	Use:           "studioworkers",
	Short:         "Background workers for the rental studio platform",
	Long:          "Queue consumers that process media assets and compute rental price recommendations.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
}

// Execute runs the root command with ctx as the cancellation source.
func Execute(ctx context.Context) {
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
