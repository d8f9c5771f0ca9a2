// Package net provides utilities for working with request contexts
package net

import (
	"context"

	"crimedash/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyDatasetID ctxKey = "dataset_id"

// WithRequest annotates context with the request id and the dataset session it targets
// both ids are mirrored onto the request scoped logger
func WithRequest(ctx context.Context, reqID, datasetID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
		ctx = logger.WithRequest(ctx, reqID)
	}
	return WithDataset(ctx, datasetID)
}

// WithDataset annotates context with a dataset session id
func WithDataset(ctx context.Context, datasetID string) context.Context {
	if datasetID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, keyDatasetID, datasetID)
	return logger.WithDataset(ctx, datasetID)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// DatasetID returns the dataset session id on the context if present
func DatasetID(ctx context.Context) string {
	if v, ok := ctx.Value(keyDatasetID).(string); ok {
		return v
	}
	return ""
}
