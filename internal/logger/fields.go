package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldSource    = "source"
	FieldRunID     = "run_id"
	FieldProfileID = "profile_id"
)

// WithFields attaches fields to logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithAI tags logger with the AI provider and model. Blank values are skipped.
func WithAI(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, nonEmpty(FieldProvider, provider, FieldModel, model)...)
}

// WithSource tags logger with a job board name.
func WithSource(logger *zap.Logger, source string) *zap.Logger {
	return WithFields(logger, nonEmpty(FieldSource, source)...)
}

// WithRun tags logger with a pipeline run and, when known, the profile it serves.
func WithRun(logger *zap.Logger, runID string, profileID int64) *zap.Logger {
	fields := nonEmpty(FieldRunID, runID)
	if profileID > 0 {
		fields = append(fields, zap.Int64(FieldProfileID, profileID))
	}
	return WithFields(logger, fields...)
}

// nonEmpty turns key/value pairs into string fields, dropping blank ones.
func nonEmpty(pairs ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key := strings.TrimSpace(pairs[i])
		value := strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}
