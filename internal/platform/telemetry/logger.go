package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// redactedKeys never reach log output even if a caller passes them.
var redactedKeys = map[string]bool{
	"signature":  true,
	"public_key": true,
	"token":      true,
	"body":       true,
}

// NewLogger builds the service logger. format is "json" or "text"; w
// defaults to stderr.
func NewLogger(level, format string, w ...io.Writer) *slog.Logger {
	var writer io.Writer = os.Stderr
	if len(w) > 0 {
		writer = w[0]
	}

	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(handler).With("service", "interactions")
}

func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
