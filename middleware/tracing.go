package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for drover tracing.
const tracerName = "github.com/droverhq/drover"

// Tracing returns middleware that wraps each operation in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: drover.instance.id, drover.workflow.name,
// drover.op, drover.instance.status. On error, the span status is set to
// codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, op *Op, next Handler) error {
		ctx, span := tracer.Start(ctx, "drover.driver."+op.Name,
			trace.WithAttributes(
				attribute.String("drover.instance.id", op.Instance.ID.String()),
				attribute.String("drover.workflow.name", op.Instance.Workflow.Name),
				attribute.String("drover.op", op.Name),
				attribute.String("drover.instance.status", string(op.Instance.Status)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
