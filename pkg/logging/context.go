package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, OrDefault(logger))
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := FromContext(ctx).With()
	next := addField(logger, key, value).Logger()
	return WithLogger(ctx, &next)
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logCtx := FromContext(ctx).With()
	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}
	next := logCtx.Logger()
	return WithLogger(ctx, &next)
}

// WithStation adds station context to the logger.
func WithStation(ctx context.Context, stationID string) context.Context {
	return WithField(ctx, "station_id", stationID)
}

// WithSheet adds sheet context to the logger.
func WithSheet(ctx context.Context, sheet string) context.Context {
	return WithField(ctx, "sheet", sheet)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}

// Station returns a child of logger tagged with the station id.
func Station(logger *zerolog.Logger, stationID string) *zerolog.Logger {
	child := OrDefault(logger).With().Str("station_id", stationID).Logger()
	return &child
}

// Component returns a child of logger tagged with a component name.
func Component(logger *zerolog.Logger, name string) *zerolog.Logger {
	child := OrDefault(logger).With().Str("component", name).Logger()
	return &child
}
