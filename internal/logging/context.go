package logging

import (
	"context"

	"go.uber.org/zap"
)

type documentCtxKey struct{}
type runCtxKey struct{}

// WithDocument attaches the path of the document being processed.
func WithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, documentCtxKey{}, path)
}

// WithRunID attaches the id of the current batch or index run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, id)
}

// DocumentFromContext returns the document path, or "" if none is set.
func DocumentFromContext(ctx context.Context) string {
	v, _ := ctx.Value(documentCtxKey{}).(string)
	return v
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 2)
	if id, _ := ctx.Value(runCtxKey{}).(string); id != "" {
		fields = append(fields, zap.String("run.id", id))
	}
	if doc := DocumentFromContext(ctx); doc != "" {
		fields = append(fields, zap.String("document", doc))
	}
	return fields
}
