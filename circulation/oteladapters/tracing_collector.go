package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// TracingCollector implements circulation.TracingCollector on the
// OpenTelemetry tracing API.
type TracingCollector struct {
	tracer trace.Tracer
}

var _ circulation.TracingCollector = (*TracingCollector)(nil)

// NewTracingCollector creates a collector on the given tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span with the given name and attributes and returns
// the span-carrying context plus a SpanContext wrapper.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, circulation.SpanContext) {

	options := make([]trace.SpanStartOption, 0, len(attrs))
	for key, value := range attrs {
		options = append(options, trace.WithAttributes(attribute.String(key, value)))
	}

	spanCtx, span := t.tracer.Start(ctx, name, options...)

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan sets final attributes and status on the span and ends it.
func (t *TracingCollector) FinishSpan(spanCtx circulation.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	for key, value := range attrs {
		otelSpanCtx.span.SetAttributes(attribute.String(key, value))
	}

	otelSpanCtx.setSpanStatus(status)
	otelSpanCtx.span.End()
}

// OTelSpanContext implements circulation.SpanContext by wrapping an
// OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

var _ circulation.SpanContext = (*OTelSpanContext)(nil)

// SetStatus maps the status string to an OpenTelemetry status code.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status)
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func (s *OTelSpanContext) setSpanStatus(status string) {
	switch status {
	case "ok", "success", "completed":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed", "failure":
		s.span.SetStatus(codes.Error, "operation failed")
	case "cancelled", "canceled":
		s.span.SetStatus(codes.Error, "operation cancelled")
	case "timeout":
		s.span.SetStatus(codes.Error, "operation timed out")
	case "conflict":
		s.span.SetStatus(codes.Error, "concurrency conflict")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}
