package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("compositor")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDeliverySpan starts a span around one bus delivery.
	StartDeliverySpan(ctx context.Context, kind, message string) (context.Context, trace.Span)

	// StartDrainSpan starts a span around one drain of an event source.
	// Deliveries made by the drain become its children.
	StartDrainSpan(ctx context.Context, module string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses the global OTel tracer
// provider. Configure the provider before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartDeliverySpan(ctx context.Context, kind, message string) (context.Context, trace.Span) {
	return StartDeliverySpan(ctx, kind, message)
}

func (m *otelSpanManager) StartDrainSpan(ctx context.Context, module string) (context.Context, trace.Span) {
	return StartDrainSpan(ctx, module)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartDeliverySpan starts a span named compositor.deliver.<kind>.
// Uses the global OTel tracer.
func StartDeliverySpan(ctx context.Context, kind, message string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "compositor.deliver."+kind,
		trace.WithAttributes(
			attribute.String("message.kind", kind),
			attribute.String("message.type", message),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartDrainSpan starts a span named compositor.drain.<module>.
// Uses the global OTel tracer.
func StartDrainSpan(ctx context.Context, module string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "compositor.drain."+module,
		trace.WithAttributes(
			attribute.String("module.name", module),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
