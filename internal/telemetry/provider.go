// ABOUTME: Opt-in OpenTelemetry tracing setup shared by both binaries
// ABOUTME: Registers an OTLP/HTTP tracer provider only when WEN_OTEL_ENDPOINT is set

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/2389/wen/internal/config"
)

// Settings controls tracing. Both fields come from the environment.
type Settings struct {
	Endpoint string `env:"WEN_OTEL_ENDPOINT"`
	Enabled  bool   `env:"WEN_OTEL_ENABLED" envDefault:"true"`
}

// Setup initialises tracing for serviceName.
//
// Tracing is opt-in: when WEN_OTEL_ENDPOINT is empty or WEN_OTEL_ENABLED is
// false, Setup returns a no-op shutdown function and leaves the global
// provider alone, so spans started by the rest of the code are discarded.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var s Settings
	if err := config.ParseEnv(&s); err != nil {
		return noop, err
	}
	if !s.Enabled || s.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(s.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, fmt.Errorf("building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
