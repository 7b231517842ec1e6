package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "sabik"

// InstrumentationName names the tracer and meter used by Sabik packages.
const InstrumentationName = "github.com/zero-day-ai/sabik"

// NewTracerProvider returns a provider that exports spans synchronously
// through a SlogSpanExporter.
func NewTracerProvider(logger *slog.Logger, level slog.Level) *sdktrace.TracerProvider {
	if logger == nil {
		logger = slog.Default()
	}

	exporter := NewSlogSpanExporter(logger, level)

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
		),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		res = resource.Default()
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
}

// Tracer returns the Sabik tracer from a provider.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	return tp.Tracer(InstrumentationName)
}
