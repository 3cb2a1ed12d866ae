package metrics

import (
	"context"
)

// Tracer is an abstract interface for distributed tracing.
type Tracer interface {
	// StartSpan starts a span named name as a child of the span in ctx.
	//
	// Returns a context carrying the new span and a function that ends it.
	// Call the returned function in a defer statement.
	StartSpan(ctx context.Context, name string, attributes map[string]interface{}) (context.Context, func())

	// RecordError records err on the current span and marks it failed.
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent adds an event to the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
