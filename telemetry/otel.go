// Package telemetry installs OpenTelemetry tracing for the storefront and
// provides the traced HTTP plumbing used by the API client and mock server.
//
// Setup must run before any traced client or middleware is created if spans
// are wanted; without it the global no-op provider is used.
//
//	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, logger)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/itsneelabh/pizzeria/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name used by the storefront packages.
const InstrumentationName = "github.com/itsneelabh/pizzeria"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// SetupOption customizes Setup
type SetupOption func(*setupOptions)

type setupOptions struct {
	stdout   io.Writer
	exporter sdktrace.SpanExporter
}

// WithStdoutWriter redirects the stdout exporter, mostly for tests.
func WithStdoutWriter(w io.Writer) SetupOption {
	return func(o *setupOptions) { o.stdout = w }
}

// WithExporter uses exporter instead of building one from the config.
func WithExporter(exporter sdktrace.SpanExporter) SetupOption {
	return func(o *setupOptions) { o.exporter = exporter }
}

// Setup installs a global TracerProvider and W3C propagators. When tracing is
// disabled it installs nothing and returns a no-op shutdown.
func Setup(ctx context.Context, cfg core.TelemetryConfig, logger core.Logger, opts ...SetupOption) (ShutdownFunc, error) {
	logger = core.OrNoOp(logger)
	if !cfg.Enabled {
		logger.Debug("Telemetry disabled", nil)
		return func(context.Context) error { return nil }, nil
	}

	o := &setupOptions{stdout: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	exporter := o.exporter
	if exporter == nil {
		var err error
		exporter, err = newExporter(ctx, cfg, o.stdout)
		if err != nil {
			return nil, err
		}
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "pizzeria"
	}
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Telemetry initialized", map[string]interface{}{
		"exporter":     cfg.Exporter,
		"endpoint":     cfg.Endpoint,
		"service_name": serviceName,
	})

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg core.TelemetryConfig, stdout io.Writer) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", core.ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exporter, nil
	case core.ExporterOTLP:
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unknown exporter %q: %w", cfg.Exporter, core.ErrInvalidConfiguration)
	}
}

// Tracer returns the storefront tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
