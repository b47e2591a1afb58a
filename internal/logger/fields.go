package logger

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// FieldJobSource is the structured log field key for where the job description came from.
	FieldJobSource = "job_source"
	// FieldJobPreview is the structured log field key for a shortened job description.
	FieldJobPreview = "job_preview"
	// FieldJobLength is the structured log field key for the job description length in runes.
	FieldJobLength = "job_length"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// JobFields describes a job description: its source, rune length and a
// preview cut to previewLen runes.
func JobFields(source, description string, previewLen int) []zap.Field {
	fields := StringFields(
		StringField{Key: FieldJobSource, Value: source},
		StringField{Key: FieldJobPreview, Value: TruncateForLog(description, previewLen)},
	)
	return append(fields, zap.Int(FieldJobLength, utf8.RuneCountInString(strings.TrimSpace(description))))
}
