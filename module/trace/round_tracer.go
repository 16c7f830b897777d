package trace

import (
	"context"

	"github.com/opentracing/opentracing-go"
)

// Tracer is the narrow span-starting contract the round-management core
// consumes. *OpenTracer already satisfies it via its
// StartSpanFromContext method; this interface lets callers (the payload
// client) depend on the capability they need instead of the full OpenTracer
// surface, and lets tests substitute NoopRoundTracer.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, operationName SpanName, opts ...opentracing.StartSpanOption) (opentracing.Span, context.Context)
}

var _ Tracer = (*OpenTracer)(nil)

// NoopRoundTracer is a Tracer that starts no-op spans, for tests and
// deployments that don't wire a Jaeger collector.
type NoopRoundTracer struct{}

var _ Tracer = (*NoopRoundTracer)(nil)

func (NoopRoundTracer) StartSpanFromContext(ctx context.Context, operationName SpanName, opts ...opentracing.StartSpanOption) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, string(operationName))
}
