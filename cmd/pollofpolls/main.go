package main

import (
	"context"
	"log/slog"
	"pollofpolls-backend/cmd/pollofpolls/commands"
	"pollofpolls-backend/lib/serviceutil"
	"pollofpolls-backend/lib/telemetry"
	"time"
)

func main() {
	ctx := serviceutil.SignalContext()

	err := telemetry.SetupFromEnv(ctx, "pollofpolls")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	commands.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err = telemetry.Shutdown(shutdownCtx)
	if err != nil {
		slog.Warn("telemetry shutdown", "err", err)
	}
}
