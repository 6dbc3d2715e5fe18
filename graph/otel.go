package graph

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware creates an OpenTelemetry span per node invocation.
//
// Each span is named after the node and carries agentgraph.node_id plus the
// resulting transition as attributes. Node failures set the span's error
// status and record the error.
//
// Usage:
//
//	tracer := otel.Tracer("agentgraph")
//	g.WithMiddleware(NewTracingMiddleware[MyState](tracer))
type TracingMiddleware[S any] struct {
	tracer trace.Tracer
}

// NewTracingMiddleware creates a TracingMiddleware over the given tracer.
func NewTracingMiddleware[S any](tracer trace.Tracer) *TracingMiddleware[S] {
	return &TracingMiddleware[S]{tracer: tracer}
}

// AroundRun spans the node invocation (implements NodeMiddleware).
func (t *TracingMiddleware[S]) AroundRun(ctx context.Context, nodeID string, state S, next NodeRunner[S]) (S, Next, error) {
	ctx, span := t.tracer.Start(ctx, "node "+nodeID)
	defer span.End()

	span.SetAttributes(attribute.String("agentgraph.node_id", nodeID))

	outState, outNext, err := next(ctx, state)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return outState, outNext, err
	}

	switch {
	case outNext.Terminal:
		span.SetAttributes(attribute.String("agentgraph.next", "end"))
	case outNext.To != "":
		span.SetAttributes(attribute.String("agentgraph.next", outNext.To))
	default:
		span.SetAttributes(attribute.String("agentgraph.next", "continue"))
	}
	return outState, outNext, nil
}
