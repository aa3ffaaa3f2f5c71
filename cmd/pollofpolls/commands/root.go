package commands

import (
	"context"
	"fmt"
	"os"
	"pollofpolls-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pollofpolls",
	Short: "pollofpolls scrapes UK voting intention polls, aggregates them and projects ward results.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file, <name>.local.<ext> is merged over it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enables debug logs and dumps scraper requests to disk.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
