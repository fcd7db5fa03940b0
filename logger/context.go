package logger

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields. Values stored under these keys
// are automatically extracted and attached to log records by ContextHandler.
const (
	// ContextKeyWorkflowID identifies the current workflow turn.
	ContextKeyWorkflowID contextKey = "workflow_id"

	// ContextKeySessionID identifies the user session.
	ContextKeySessionID contextKey = "session_id"

	// ContextKeyTraceID is used for request correlation.
	ContextKeyTraceID contextKey = "trace_id"

	// ContextKeyStage identifies the pipeline stage (e.g., "planning", "executing").
	ContextKeyStage contextKey = "stage"

	// ContextKeyIntent identifies the extracted intent, once known.
	ContextKeyIntent contextKey = "intent"
)

// allContextKeys lists the keys the handler extracts from context.
var allContextKeys = []contextKey{
	ContextKeyWorkflowID,
	ContextKeySessionID,
	ContextKeyTraceID,
	ContextKeyStage,
	ContextKeyIntent,
}

// WithWorkflowID returns a new context with the workflow ID set.
func WithWorkflowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyWorkflowID, id)
}

// WithSessionID returns a new context with the session ID set.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, id)
}

// WithTraceID returns a new context with the trace ID set.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyTraceID, id)
}

// WithStage returns a new context with the pipeline stage set.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ContextKeyStage, stage)
}

// WithIntent returns a new context with the intent set.
func WithIntent(ctx context.Context, intent string) context.Context {
	return context.WithValue(ctx, ContextKeyIntent, intent)
}
