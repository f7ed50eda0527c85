package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Config struct {
	ServiceName   string
	TraceEndpoint string
	Headers       map[string]string
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

// Setup installs a global tracer provider exporting over OTLP/HTTP. With no
// endpoint configured tracing stays on the global no-op provider.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.TraceEndpoint == "" {
		slog.Info("tracing disabled", "reason", "no trace endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	r, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	exportCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	exporter, err := otlptracehttp.New(
		exportCtx,
		otlptracehttp.WithEndpointURL(cfg.TraceEndpoint),
		otlptracehttp.WithHeaders(cfg.Headers),
	)
	if err != nil {
		return nil, err
	}
	slog.Info(
		"tracer export initialized",
		"type", "http",
		"endpoint", cfg.TraceEndpoint,
		"headers", len(cfg.Headers) > 0,
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		return errors.Join(provider.ForceFlush(ctx), provider.Shutdown(ctx))
	}, nil
}
