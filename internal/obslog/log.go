// Package obslog provides the structured/leveled logging used across the
// registry, bridge and adapters: a small Logger interface over log/slog,
// built from a format ("json"/"standard") and level, writing to
// caller-supplied writers so the host process decides where logs land.
package obslog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is the interface every component in this module logs through.
type Logger interface {
	DebugContext(ctx context.Context, msg string, keysAndValues ...any)
	InfoContext(ctx context.Context, msg string, keysAndValues ...any)
	WarnContext(ctx context.Context, msg string, keysAndValues ...any)
	ErrorContext(ctx context.Context, msg string, keysAndValues ...any)
}

// New creates a Logger based on the provided format and level.
func New(format, level string, out, err io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewStructuredLogger(out, err, level)
	case "standard":
		return NewStdLogger(out, err, level)
	default:
		return nil, fmt.Errorf("logging format invalid: %s", format)
	}
}

// StdLogger writes human-readable text, warnings and errors to err, debug
// and info to out.
type StdLogger struct {
	outLogger *slog.Logger
	errLogger *slog.Logger
}

// NewStdLogger creates a Logger that uses outW and errW for informational
// and error messages respectively.
func NewStdLogger(outW, errW io.Writer, logLevel string) (Logger, error) {
	programLevel := new(slog.LevelVar)
	slogLevel, err := SeverityToLevel(logLevel)
	if err != nil {
		return nil, err
	}
	programLevel.Set(slogLevel)

	handlerOptions := &slog.HandlerOptions{Level: programLevel}

	return &StdLogger{
		outLogger: slog.New(slog.NewTextHandler(outW, handlerOptions)),
		errLogger: slog.New(slog.NewTextHandler(errW, handlerOptions)),
	}, nil
}

func (sl *StdLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...any) {
	sl.outLogger.DebugContext(ctx, msg, keysAndValues...)
}

func (sl *StdLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...any) {
	sl.outLogger.InfoContext(ctx, msg, keysAndValues...)
}

func (sl *StdLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...any) {
	sl.errLogger.WarnContext(ctx, msg, keysAndValues...)
}

func (sl *StdLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...any) {
	sl.errLogger.ErrorContext(ctx, msg, keysAndValues...)
}

// SlogLogger returns a single *slog.Logger that routes records to the out
// or err writer based on level, for callers that want a plain slog.Logger
// (e.g. to pass into a library that accepts one).
func (sl *StdLogger) SlogLogger() *slog.Logger {
	return slog.New(&SplitHandler{OutHandler: sl.outLogger.Handler(), ErrHandler: sl.errLogger.Handler()})
}

const (
	Debug = "DEBUG"
	Info  = "INFO"
	Warn  = "WARN"
	Error = "ERROR"
)

// SeverityToLevel maps a severity string to an slog.Level.
func SeverityToLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case Debug:
		return slog.LevelDebug, nil
	case Info:
		return slog.LevelInfo, nil
	case Warn:
		return slog.LevelWarn, nil
	case Error:
		return slog.LevelError, nil
	default:
		return slog.Level(-5), fmt.Errorf("invalid log level: %s", s)
	}
}

func levelToSeverity(s string) (string, error) {
	switch s {
	case slog.LevelDebug.String():
		return Debug, nil
	case slog.LevelInfo.String():
		return Info, nil
	case slog.LevelWarn.String():
		return Warn, nil
	case slog.LevelError.String():
		return Error, nil
	default:
		return "", fmt.Errorf("invalid slog level: %s", s)
	}
}

// StructuredLogger writes JSON records, suitable for ingestion by a log
// collector.
type StructuredLogger struct {
	outLogger *slog.Logger
	errLogger *slog.Logger
}

// NewStructuredLogger creates a Logger that writes JSON lines.
func NewStructuredLogger(outW, errW io.Writer, logLevel string) (Logger, error) {
	programLevel := new(slog.LevelVar)
	slogLevel, err := SeverityToLevel(logLevel)
	if err != nil {
		return nil, err
	}
	programLevel.Set(slogLevel)

	replace := func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.LevelKey:
			sev, _ := levelToSeverity(a.Value.String())
			return slog.Attr{Key: "severity", Value: slog.StringValue(sev)}
		case slog.MessageKey:
			return slog.Attr{Key: "message", Value: a.Value}
		case slog.TimeKey:
			return slog.Attr{Key: "timestamp", Value: a.Value}
		}
		return a
	}

	opts := &slog.HandlerOptions{AddSource: true, Level: programLevel, ReplaceAttr: replace}
	return &StructuredLogger{
		outLogger: slog.New(slog.NewJSONHandler(outW, opts)),
		errLogger: slog.New(slog.NewJSONHandler(errW, opts)),
	}, nil
}

func (sl *StructuredLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...any) {
	sl.outLogger.DebugContext(ctx, msg, keysAndValues...)
}

func (sl *StructuredLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...any) {
	sl.outLogger.InfoContext(ctx, msg, keysAndValues...)
}

func (sl *StructuredLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...any) {
	sl.errLogger.WarnContext(ctx, msg, keysAndValues...)
}

func (sl *StructuredLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...any) {
	sl.errLogger.ErrorContext(ctx, msg, keysAndValues...)
}

func (sl *StructuredLogger) SlogLogger() *slog.Logger {
	return slog.New(&SplitHandler{OutHandler: sl.outLogger.Handler(), ErrHandler: sl.errLogger.Handler()})
}

// SplitHandler routes records at or above Warn to ErrHandler and everything
// else to OutHandler.
type SplitHandler struct {
	OutHandler slog.Handler
	ErrHandler slog.Handler
}

func (h *SplitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelWarn {
		return h.ErrHandler.Enabled(ctx, level)
	}
	return h.OutHandler.Enabled(ctx, level)
}

func (h *SplitHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		return h.ErrHandler.Handle(ctx, r)
	}
	return h.OutHandler.Handle(ctx, r)
}

func (h *SplitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SplitHandler{
		OutHandler: h.OutHandler.WithAttrs(attrs),
		ErrHandler: h.ErrHandler.WithAttrs(attrs),
	}
}

func (h *SplitHandler) WithGroup(name string) slog.Handler {
	return &SplitHandler{
		OutHandler: h.OutHandler.WithGroup(name),
		ErrHandler: h.ErrHandler.WithGroup(name),
	}
}

// Discard is a Logger that drops everything, for tests that don't care
// about log output.
func Discard() Logger {
	l, _ := NewStdLogger(io.Discard, io.Discard, Error)
	return l
}
