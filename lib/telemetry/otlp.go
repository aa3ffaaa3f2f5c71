package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultMetricInterval = time.Second * 15

type otlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint" validate:"omitempty,url"`
	HttpEndpoint string            `json:"http_endpoint" validate:"omitempty,url"`
	Headers      map[string]string `json:"headers"`
}

// transport picks the exporter protocol, grpc wins when both are set.
// An empty protocol means the signal is not exported.
func (c otlpConnConfig) transport() (protocol, endpoint string) {
	switch {
	case c.GrpcEndpoint != "":
		return "grpc", c.GrpcEndpoint
	case c.HttpEndpoint != "":
		return "http", c.HttpEndpoint
	}
	return "", ""
}

type otlpConfig struct {
	Traces  otlpConnConfig `json:"traces"`
	Metrics otlpConnConfig `json:"metrics"`
}

type config struct {
	Otlp                  otlpConfig `json:"otlp"`
	MetricIntervalSeconds int        `json:"metric_interval_seconds" validate:"omitempty,gte=1"`
}

func (c config) metricInterval() time.Duration {
	if c.MetricIntervalSeconds <= 0 {
		return defaultMetricInterval
	}
	return time.Duration(c.MetricIntervalSeconds) * time.Second
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

// newTraceProvider returns nil if traces are not exported.
func newTraceProvider(ctx context.Context, r *resource.Resource, c config) (*trace.TracerProvider, error) {
	protocol, endpoint := c.Otlp.Traces.transport()
	if protocol == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	var (
		exporter trace.SpanExporter
		err      error
	)
	headers := c.Otlp.Traces.Headers
	if protocol == "grpc" {
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(endpoint),
			otlptracegrpc.WithHeaders(headers),
		)
	} else {
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(endpoint),
			otlptracehttp.WithHeaders(headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("trace exporter initialized", "type", protocol, "endpoint", endpoint, "headers", len(headers) > 0)

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

// newMetricProvider returns nil if metrics are not exported.
func newMetricProvider(ctx context.Context, r *resource.Resource, c config) (*metric.MeterProvider, error) {
	protocol, endpoint := c.Otlp.Metrics.transport()
	if protocol == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	var (
		exporter metric.Exporter
		err      error
	)
	headers := c.Otlp.Metrics.Headers
	if protocol == "grpc" {
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(endpoint),
			otlpmetricgrpc.WithHeaders(headers),
		)
	} else {
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(endpoint),
			otlpmetrichttp.WithHeaders(headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("metric exporter initialized", "type", protocol, "endpoint", endpoint, "headers", len(headers) > 0)

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(c.metricInterval()))),
		metric.WithResource(r),
	), nil
}
