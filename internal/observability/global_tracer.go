package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ideas-central"

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer(tracerName)
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		globalTracer = otel.Tracer(tracerName)
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return GetGlobalTracer().Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceEvaluationFunction starts a new span for an evaluation engine function.
func TraceEvaluationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "evaluation", functionName, attributes...)
}

// TraceRecordFunction starts a new span for a record facade function.
func TraceRecordFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "record", functionName, attributes...)
}

// TraceStoreFunction starts a new span for a persistence backend function.
func TraceStoreFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "store", functionName, attributes...)
}

// TraceNotifyFunction starts a new span for a notification hook.
func TraceNotifyFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "notify", functionName, attributes...)
}

// TraceAuthFunction starts a new span for an identity function.
func TraceAuthFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "auth", functionName, attributes...)
}

// TraceClassifierFunction starts a new span for a classifier function.
func TraceClassifierFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "classifier", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// AttributeIdeaID returns a tracing attribute for an idea ID.
func AttributeIdeaID(id string) attribute.KeyValue {
	return attribute.String("idea.id", id)
}

// AttributeProblemID returns a tracing attribute for a problem ID.
func AttributeProblemID(id string) attribute.KeyValue {
	return attribute.String("problem.id", id)
}

// AttributeEvaluatorID returns a tracing attribute for an evaluator's user ID.
func AttributeEvaluatorID(id string) attribute.KeyValue {
	return attribute.String("evaluator.id", id)
}

// AttributeUserID returns a tracing attribute for a user ID.
func AttributeUserID(id string) attribute.KeyValue {
	return attribute.String("user.id", id)
}

// AttributeStatus returns a tracing attribute for a lifecycle status.
func AttributeStatus(status string) attribute.KeyValue {
	return attribute.String("status", status)
}

// AttributeSearch returns a tracing attribute for a search value.
func AttributeSearch(search string) attribute.KeyValue {
	return attribute.String("search", search)
}

// AttributeBackend returns a tracing attribute for the persistence backend name.
func AttributeBackend(name string) attribute.KeyValue {
	return attribute.String("store.backend", name)
}
