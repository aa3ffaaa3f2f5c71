package commands

import (
	"context"
	"log/slog"
	"pollofpolls-backend/internal/api"
	"pollofpolls-backend/internal/chrono"
	"pollofpolls-backend/lib/serviceutil"
	"pollofpolls-backend/lib/telemetry"
	"time"

	"github.com/spf13/cobra"
)

var (
	servePort   *int
	serveRunNow *bool
)

func init() {
	servePort = serveCmd.Flags().Int("port", 0, "The port to serve the API on, defaults to the config value.")
	serveRunNow = serveCmd.Flags().Bool("run-now", false, "Also runs once at startup instead of waiting for the schedule.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>] [--run-now]",
	Short: "Runs the scheduled daily job and serves the read API.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		st, closeStore := cfg.openStore()
		defer closeStore()

		telemetry.InstrumentPerfStats(ctx)

		metrics := api.NewMetrics()
		run := newRunner(cfg, st, metrics)

		cron := chrono.NewStandardCron()
		err := run.Schedule(ctx, cron, cfg.schedule())
		if err != nil {
			closeStore()
			serviceutil.Fatal("failed to schedule daily run", err)
		}
		slog.Info("scheduled daily run", "spec", cfg.schedule())

		if *serveRunNow {
			go func() {
				_, err := run.Run(ctx)
				if err != nil {
					slog.Warn("startup run did not complete", "err", err)
				}
			}()
		}

		server := api.NewServer(api.Options{
			Store:    st,
			Baseline: cfg.loadBaseline(""),
			Metrics:  metrics,
		})
		err = serviceutil.StartHttpServer(ctx, cfg.port(*servePort), server)
		if err != nil {
			slog.Error("http server stopped", "err", err)
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		cron.Stop(stopCtx)
	},
}
