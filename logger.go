package overlay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while the frame loop and the window's input
// dispatch are logging.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for overlay and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by overlay:
//   - [slog.LevelDebug]: internals (pass recording, row pitch, buffer sizes)
//   - [slog.LevelInfo]: lifecycle (backend selected, adapter, window created, shutdown)
//   - [slog.LevelWarn]: fallbacks and anomalies (preferred backend unavailable,
//     shutdown during an active frame, GPU timing unavailable)
//   - [slog.LevelError]: failures returned to the caller
//
// Example:
//
//	overlay.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages (backend, render,
// window, internal/...) call this so they share one configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// ParseLevel parses "debug", "info", "warn" or "error" (any case).
// "off" and the empty string return ok=false, meaning logging stays disabled.
func ParseLevel(s string) (level slog.Level, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "off") {
		return 0, false, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, false, fmt.Errorf("overlay: invalid log level %q: %w", s, err)
	}
	return level, true, nil
}

// NewTextLogger builds a text logger writing to w at the given level name.
// It returns nil (silent) for "off" or an empty level.
func NewTextLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, ok, err := ParseLevel(level)
	if err != nil || !ok {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
