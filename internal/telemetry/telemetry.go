// Package telemetry wraps process and tool invocations in OpenTelemetry
// spans. The teacher's go.mod carries the full otel/otlp-grpc stack
// (go.opentelemetry.io/otel, otel/sdk, otel/trace,
// otlp/otlptrace/otlptracegrpc) but no file in the snapshot actually calls
// it; this package is where it gets wired, matching server.Shell's
// "minutes to days" lifetime (spec.md §1) — exactly the kind of long-lived
// process an operator wants traced, not just logged.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dcmtkgo/dcmtkgo"

// Provider owns the process-wide TracerProvider. A zero-value *Provider
// (returned by NewProvider when endpoint is empty) makes every Start*
// function below a safe no-op, so telemetry is opt-in: dcmtkctl runs fine
// with no collector configured.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider builds a TracerProvider exporting spans to an OTLP/gRPC
// collector at endpoint (host:port, no scheme) and installs it as the
// global provider. An empty endpoint disables tracing entirely.
func NewProvider(ctx context.Context, endpoint, serviceName string) (*Provider, error) {
	if endpoint == "" {
		return &Provider{}, nil
	}

	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otlp trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

// Shutdown flushes and closes the exporter. Safe to call on a nil/no-op
// Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// StartProcessSpan opens a span covering one server.Shell instance's
// lifetime, from Start through its terminal state.
func StartProcessSpan(ctx context.Context, binary, correlationID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "process."+binary,
		trace.WithAttributes(
			attribute.String("dcmtk.binary", binary),
			attribute.String("dcmtk.correlation_id", correlationID),
		))
}

// StartToolSpan opens a span covering one toolwrap call.
func StartToolSpan(ctx context.Context, toolName, correlationID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tool."+toolName,
		trace.WithAttributes(
			attribute.String("dcmtk.tool", toolName),
			attribute.String("dcmtk.correlation_id", correlationID),
		))
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
