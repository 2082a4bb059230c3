package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const featureTracerName = "creditgate/feature"

// StartFeatureSpan opens the span that covers one use of a gated feature:
// the vendor check and the usage event that follows it.
func StartFeatureSpan(ctx context.Context, feature string) (context.Context, trace.Span) {
	return otel.Tracer(featureTracerName).Start(ctx, "feature "+feature,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrFeature.String(feature)),
	)
}

// EndFeatureSpan records the outcome ("allowed", "denied" or "error") and
// ends the span.
func EndFeatureSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(AttrFeatureOutcome.String(outcome))
	if err != nil {
		span.RecordError(SafeError(err))
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
}
