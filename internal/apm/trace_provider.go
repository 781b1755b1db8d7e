// Package apm provides OpenTelemetry tracing setup and thin wrappers used
// across the application.
package apm

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/stxdex/price-engine/internal/logger"
)

// Provider identifies a span exporter backend.
type Provider string

const (
	ZipkinProvider  Provider = "ZIPKIN_PROVIDER"
	OTLPProvider    Provider = "OTLP_PROVIDER"
	ConsoleProvider Provider = "CONSOLE_PROVIDER"
	EmptyProvider   Provider = "EMPTY_PROVIDER"
)

// TraceProvider manages the lifecycle of the configured tracer provider.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// NewEmptyTraceProvider returns a no-op provider for disabled telemetry.
func NewEmptyTraceProvider() TraceProvider {
	return emptyTraceProvider{}
}

// TracerOptions holds exporter selection state.
type TracerOptions struct {
	exporter           sdktrace.SpanExporter
	tracerProviderName string
	useEmpty           bool
}

// TracerOption configures the trace provider.
type TracerOption func(*TracerOptions)

// WithProvider selects the exporter backend.
func WithProvider(provider Provider, log logger.LoggerInterface) TracerOption {
	switch provider {
	case ZipkinProvider:
		return useZipkin()
	case OTLPProvider:
		return useOTLP(log)
	case ConsoleProvider:
		return useConsole()
	}

	log.Warn(context.Background(), "tracer provider not found, tracing disabled",
		"provider", string(provider))
	return func(o *TracerOptions) {
		o.useEmpty = true
		o.tracerProviderName = string(EmptyProvider)
	}
}

func useConsole() TracerOption {
	return func(o *TracerOptions) {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			panic(err)
		}
		o.exporter = exp
		o.tracerProviderName = string(ConsoleProvider)
	}
}

func useZipkin() TracerOption {
	return func(o *TracerOptions) {
		url := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

		exp, err := zipkin.New(url)
		if err != nil {
			panic(err)
		}
		o.exporter = exp
		o.tracerProviderName = string(ZipkinProvider)
	}
}

func useOTLP(log logger.LoggerInterface) TracerOption {
	return func(o *TracerOptions) {
		url := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")

		var exp sdktrace.SpanExporter
		var err error
		if protocol == "http/protobuf" {
			log.Info(context.Background(), "initializing OTLP HTTP trace exporter", "endpoint", url)
			exp, err = otlptracehttp.New(context.Background(),
				otlptracehttp.WithEndpointURL(url))
		} else {
			log.Info(context.Background(), "initializing OTLP gRPC trace exporter", "endpoint", url)
			exp, err = otlptracegrpc.New(context.Background(),
				otlptracegrpc.WithEndpointURL(url))
		}
		if err != nil {
			log.Error(context.Background(), "error initializing OTLP exporter", "error", err)
			panic(err)
		}

		o.exporter = exp
		o.tracerProviderName = string(OTLPProvider)
	}
}

// NewTraceProvider installs a global tracer provider with the selected
// exporter. The service name is taken from OTEL_SERVICE_NAME.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	serviceName := os.Getenv("OTEL_SERVICE_NAME")

	if len(options) == 0 {
		options = []TracerOption{useConsole()}
	}

	opts := &TracerOptions{}
	for _, opt := range options {
		opt(opts)
	}

	if opts.useEmpty {
		return NewEmptyTraceProvider()
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("otel.provider", opts.tracerProviderName),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
