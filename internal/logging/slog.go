package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// #region slog
// Init installs the global slog default. A nil w means os.Stderr. Format is
// "text" or "json"; anything else is rejected and the default is left
// alone. Timestamps are written in UTC so audit rows and log lines line up.
func Init(level slog.Level, format string, w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: utcTime}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func utcTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.TimeValue(a.Value.Time().UTC())
	}
	return a
}

// New returns a logger tagged with a "component" attribute.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// WithRequest scopes l to one adjudication request. Requests without an ID
// are tagged "-" so every line still carries the attribute.
func WithRequest(l *slog.Logger, id string) *slog.Logger {
	if id == "" {
		id = "-"
	}
	return l.With(slog.String("request", id))
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// #endregion slog
