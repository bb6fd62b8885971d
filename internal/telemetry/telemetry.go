// Package telemetry installs the OpenTelemetry tracer provider that receives
// the fetcher and crawler spans.
//
// With the "none" exporter Setup leaves the global no-op provider in place,
// so instrumented code costs nothing when tracing is off.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Supported exporters.
const (
	ExporterNone     = "none"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// ErrUnknownExporter is returned by Setup for an exporter it cannot build.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// exporterTimeout bounds exporter construction.
const exporterTimeout = 3 * time.Second

// Options configures Setup.
type Options struct {
	// ServiceName and ServiceVersion describe the process on every span.
	ServiceName    string
	ServiceVersion string

	// Exporter is one of the Exporter constants.
	Exporter string

	// Endpoint is the collector URL. Empty uses the exporter defaults.
	Endpoint string

	// Headers are sent with every export.
	Headers map[string]string
}

// Option customises Setup.
type Option func(*settings)

type settings struct {
	exporter sdktrace.SpanExporter
	logger   *slog.Logger
}

// WithSpanExporter exports spans synchronously to exporter, overriding
// Options.Exporter.
func WithSpanExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *settings) {
		s.exporter = exporter
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Telemetry owns the installed tracer provider.
type Telemetry struct {
	provider *sdktrace.TracerProvider
}

// Enabled reports whether spans are exported.
func (t *Telemetry) Enabled() bool {
	return t.provider != nil
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// Setup builds the exporter named in opts and installs a tracer provider as
// the global one. Callers must call Shutdown before exiting.
func Setup(ctx context.Context, opts Options, options ...Option) (*Telemetry, error) {
	s := settings{logger: slog.Default()}
	for _, o := range options {
		o(&s)
	}
	logger := s.logger.With("component", "telemetry")

	var export sdktrace.TracerProviderOption
	switch {
	case s.exporter != nil:
		export = sdktrace.WithSyncer(s.exporter)
	case opts.Exporter == ExporterNone || opts.Exporter == "":
		logger.Debug("tracing disabled")
		return &Telemetry{}, nil
	default:
		exporter, err := newExporter(ctx, opts)
		if err != nil {
			return nil, err
		}
		export = sdktrace.WithBatcher(exporter)
	}

	r, err := newResource(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(export, sdktrace.WithResource(r))
	otel.SetTracerProvider(provider)

	logger.Info("tracing enabled", "exporter", opts.Exporter, "endpoint", opts.Endpoint)
	return &Telemetry{provider: provider}, nil
}

func newResource(opts Options) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(opts.ServiceName)}
	if opts.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(opts.ServiceVersion))
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
}

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	switch opts.Exporter {
	case ExporterOTLPHTTP:
		httpOpts := []otlptracehttp.Option{otlptracehttp.WithHeaders(opts.Headers)}
		if opts.Endpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpointURL(opts.Endpoint))
		}
		exporter, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp-http exporter: %w", err)
		}
		return exporter, nil
	case ExporterOTLPGRPC:
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithHeaders(opts.Headers)}
		if opts.Endpoint != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpointURL(opts.Endpoint))
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp-grpc exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, opts.Exporter)
	}
}
