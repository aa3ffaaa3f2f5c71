package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var shutdownFuncs []func(context.Context) error

func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// InitSlog installs a colored console handler as the default slog logger.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func Setup(ctx context.Context, serviceName string, config config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	tracerProvider, err := newTraceProvider(ctx, r, config)
	if err != nil {
		return err
	}
	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
		shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	}

	meterProvider, err := newMetricProvider(ctx, r, config)
	if err != nil {
		return err
	}
	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
		shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	}

	return nil
}

func Shutdown(ctx context.Context) error {
	var errlist []error
	for _, fn := range shutdownFuncs {
		err := fn(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	shutdownFuncs = nil
	return errors.Join(errlist...)
}
