package logging

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Strum355/log"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON writes one JSON object per line, for production.
	FormatJSON Format = "json"
	// FormatText writes human-readable lines, for local runs.
	FormatText Format = "text"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown log format %q: must be json or text", s)
	}
}

// Init configures the process-wide logger. It must run before the first log call.
func Init(format Format, out io.Writer) {
	cfg := &log.Config{Output: out}
	if format == FormatJSON {
		log.InitJSONLogger(cfg)
		return
	}
	log.InitSimpleLogger(cfg)
}

// WithFields returns a context carrying fields for log.WithContext, merged
// over any fields ctx already carries.
func WithFields(ctx context.Context, fields log.Fields) context.Context {
	merged := log.Fields{}
	if existing, ok := ctx.Value(log.Key).(log.Fields); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, log.Key, merged)
}

// FieldsFrom returns the fields carried by ctx, or nil.
func FieldsFrom(ctx context.Context) log.Fields {
	fields, _ := ctx.Value(log.Key).(log.Fields)
	return fields
}
