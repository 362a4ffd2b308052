package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "runhooks"

// StartDispatchSpan starts a span covering fan-out of one run event.
func StartDispatchSpan(ctx context.Context, runID, projectID, event string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("project.id", projectID),
			attribute.String("hook.event", event),
		),
	)
}

// StartDeliverySpan starts a span for one outbound hook post.
func StartDeliverySpan(ctx context.Context, hookID, hookType, event string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "hook.delivery",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("hook.id", hookID),
			attribute.String("hook.type", hookType),
			attribute.String("hook.event", event),
		),
	)
}
