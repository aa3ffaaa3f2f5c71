package telemetry

import (
	"context"
	"log/slog"
	"os"
	"pollofpolls-backend/lib/configutil"
	"sync"
)

var (
	setupTestLock         sync.Mutex
	setupTestEnvironments = map[string]bool{}
)

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once
func SetupForTesting(serviceName string) func() {
	setupTestLock.Lock()
	defer setupTestLock.Unlock()

	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	err := SetupFromEnv(context.Background(), serviceName)
	if err != nil {
		panic(err)
	}

	return func() {
		err = Shutdown(context.Background())
		if err != nil {
			panic(err)
		}
	}
}

// searches up the filesystem from the cwd to find a file
// called telemetry.json5, once found it will then use it
// as a config to setup telemetry.
//
// if no such file exists, the global no-op providers are left in place.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[config]("telemetry.json5")
	if os.IsNotExist(err) {
		slog.DebugContext(ctx, "no telemetry.json5 found, exporters disabled", "service", serviceName)
		return nil
	}
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, config)
}
