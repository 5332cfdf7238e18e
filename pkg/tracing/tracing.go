package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	_defaultServiceName  = "domain-service"
	_defaultOTLPEndpoint = "localhost:4317"
)

type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// New installs a global tracer provider. Disabled tracing yields a no-op
// tracer. exporter is one of "stdout", "otlp" or "none".
func New(enabled bool, exporter, endpoint, serviceName string, sampleRate float64) (*Provider, error) {
	if serviceName == "" {
		serviceName = _defaultServiceName
	}

	if !enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(serviceName)}, nil
	}

	var (
		exp sdktrace.SpanExporter
		err error
	)

	switch exporter {
	case "stdout":
		exp, err = stdouttrace.New()
		if err != nil {
			return nil, fmt.Errorf("tracing - New - stdouttrace.New: %w", err)
		}
	case "otlp":
		if endpoint == "" {
			endpoint = _defaultOTLPEndpoint
		}
		exp, err = otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("tracing - New - otlptracegrpc.New: %w", err)
		}
	case "none", "":
	default:
		return nil, fmt.Errorf("tracing - New: unsupported exporter %q", exporter)
	}

	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
	}, nil
}

func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
