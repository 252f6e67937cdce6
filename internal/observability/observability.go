// Package observability wires OpenTelemetry tracing for the client.
//
// Traces are exported over OTLP HTTP to a local collector (e.g. an agent
// listening on localhost:4318). Export is strictly best-effort: an
// unreachable collector degrades to a no-op tracer rather than failing
// startup, since tracing must never block the learning client itself.
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultEndpoint is the conventional local OTLP HTTP endpoint.
const DefaultEndpoint = "localhost:4318"

// Config for trace export.
type Config struct {
	// Endpoint is the OTLP HTTP host:port (default: localhost:4318).
	Endpoint string
	// Environment tags spans with a deployment environment (dev, prod).
	Environment string
	// ServiceName identifies this client in the tracing backend.
	ServiceName string
}

// Setup installs a global tracer provider exporting to the configured
// OTLP endpoint. It returns a shutdown function that flushes pending
// spans; the function is always safe to call, even when setup degraded
// to a no-op.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "classistant"
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		logger.Warn("trace exporter unavailable, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	attrs := []sdkresource.Option{
		sdkresource.WithAttributes(semconv.ServiceName(serviceName)),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, sdkresource.WithAttributes(
			semconv.DeploymentEnvironment(cfg.Environment)))
	}
	res, err := sdkresource.New(ctx, attrs...)
	if err != nil {
		logger.Warn("trace resource build failed, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", serviceName,
		"environment", cfg.Environment,
	)
	return provider.Shutdown, nil
}
