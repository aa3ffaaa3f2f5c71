package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const perfStatsInterval = time.Second * 30

var (
	meter               = otel.Meter("pollofpolls/perf_stats")
	cpuGauge, _         = meter.Float64Gauge("cpu_usage", metric.WithUnit("%"))
	heapGauge, _        = meter.Int64Gauge("heap_alloc_mb", metric.WithUnit("MB"))
	liveObjectsGauge, _ = meter.Int64Gauge("live_objects")
	goroutineGauge, _   = meter.Int64Gauge("goroutine_count")
	gcPauseGauge, _     = meter.Float64Gauge("last_gc_pause_ms", metric.WithUnit("ms"))
)

// InstrumentPerfStats records process gauges every 30 seconds until ctx is
// done. CPU usage is measured over the interval since the previous sample.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(perfStatsInterval)
		defer ticker.Stop()

		// primes the cpu counters so the first sample has a baseline
		_, _ = cpu.PercentWithContext(ctx, 0, false)

		for {
			select {
			case <-ticker.C:
				recordPerfStats(ctx, &memStats)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func recordPerfStats(ctx context.Context, memStats *runtime.MemStats) {
	runtime.ReadMemStats(memStats)

	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(usage) > 0 {
		cpuGauge.Record(ctx, usage[0])
	} else if err != nil {
		slog.WarnContext(ctx, "failed to read cpu usage", "err", err)
	}

	heapGauge.Record(ctx, int64(memStats.HeapAlloc/1_000_000))
	liveObjectsGauge.Record(ctx, int64(memStats.Mallocs)-int64(memStats.Frees))
	goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
	if memStats.NumGC > 0 {
		pause := memStats.PauseNs[(memStats.NumGC+255)%256]
		gcPauseGauge.Record(ctx, float64(pause)/float64(time.Millisecond))
	}
}
