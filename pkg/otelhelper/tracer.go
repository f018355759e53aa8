// Package otelhelper provides OpenTelemetry tracing for submission operations.
package otelhelper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// Common attribute keys.
	SubmissionIDKey   = "tangram.submission.id"
	StageFromKey      = "tangram.stage.from"
	StageToKey        = "tangram.stage.to"
	ActionKey         = "tangram.action"
	FilterPolicyKey   = "tangram.filter.policy"
	FilterCriteriaKey = "tangram.filter.criteria"
	ResultCountKey    = "tangram.result.count"
	SourceKey         = "tangram.source"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// NewTracer returns a tracer exporting over OTLP/HTTP when enabled, and a
// no-op tracer otherwise. The exporter reads the standard OTEL_EXPORTER_OTLP_* variables.
//
// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func NewTracer(ctx context.Context, serviceName string, enabled bool) (trace.Tracer, ShutdownFunc, error) {
	if !enabled {
		return noop.NewTracerProvider().Tracer(serviceName), func(context.Context) error { return nil }, nil
	}

	provider, err := newTracerProvider(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	return provider.Tracer(serviceName), provider.Shutdown, nil
}

// nolint:ireturn,spancheck // Returning interface is intentional for OpenTelemetry tracing
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func newTracerProvider(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}))

	return tp, nil
}
