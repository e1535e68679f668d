package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"salespipe/internal/config"
)

const (
	ServiceName    = "salespipe"
	ServiceVersion = "1.0.0"
	TracerName     = "salespipe"
)

// TracingProviders holds the tracer provider and its exporter sink for one
// binary. Nil providers mean tracing is disabled and no span is recorded.
type TracingProviders struct {
	TracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
	Logger         *slog.Logger

	traceFile *os.File
}

// InitializeTracing sets up stage tracing from configuration. It returns
// nil providers without error when tracing is disabled; spans started
// against the global tracer are then no-ops. The exporter never shares the
// pipeline's stdout unless explicitly configured to, because stdout
// carries the progress and summary contract lines.
func InitializeTracing(cfg config.TracingConfig, logger *slog.Logger) (*TracingProviders, error) {
	if !cfg.Enabled || cfg.Exporter == "none" {
		return nil, nil
	}

	ctx := context.Background()

	res, err := createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &TracingProviders{
		Logger: logger,
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "file":
		dir := filepath.Dir(cfg.OutputPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory %s: %w", dir, err)
		}
		file, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace file %s: %w", cfg.OutputPath, err)
		}
		providers.traceFile = file
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(file),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(TracerName, trace.WithInstrumentationVersion(ServiceVersion))

	otel.SetTracerProvider(tp)

	logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.Exporter),
		slog.String("output_path", cfg.OutputPath),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource() (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// Shutdown flushes pending spans and closes the trace sink.
func (p *TracingProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.traceFile != nil {
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("tracing shutdown errors: %v", errs)
	}

	if p.Logger != nil {
		p.Logger.InfoContext(ctx, "Tracing shutdown complete")
	}
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RecordError records err on the span carried by ctx and marks the span
// failed. A context without a recording span is a no-op, so callers need
// no tracing-enabled guard.
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// AddSpanEvent attaches a named event with typed attributes to the span
// carried by ctx. Stages use it to mark completion with their timing. A
// context without a recording span is a no-op.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.AddEvent(name, trace.WithAttributes(attrs...))
}
