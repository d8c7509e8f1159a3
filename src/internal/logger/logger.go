package logger

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"midway/src/internal/core"
	"midway/src/internal/format"
	"midway/src/internal/sink"
)

// DefaultClockInterval is the coarse timestamp refresh period.
const DefaultClockInterval = 10 * time.Millisecond

// Options configures a root logger.
type Options struct {
	Enabled bool
	Level   core.Level
	Name    string

	// Sink is the root delivery tree. Defaults to a text console sink.
	Sink sink.Sink

	// ClockInterval overrides the coarse timestamp refresh period.
	ClockInterval time.Duration
}

// Logger produces leveled structured log entries and forwards them to its
// bound sink. Child loggers share the root's sink and clock, so flushing or
// closing the root drains every child's entries identically.
type Logger struct {
	enabled bool
	level   atomic.Int32
	name    string
	sink    sink.Sink
	fields  map[string]any
	clock   *clock
	root    bool
}

// New creates a root logger.
func New(opts Options) *Logger {
	if opts.Sink == nil {
		opts.Sink = sink.NewConsole(format.NewText())
	}
	if opts.Level == 0 {
		opts.Level = core.LevelInfo
	}
	if opts.ClockInterval <= 0 {
		opts.ClockInterval = DefaultClockInterval
	}

	l := &Logger{
		enabled: opts.Enabled,
		name:    opts.Name,
		sink:    opts.Sink,
		clock:   newClock(opts.ClockInterval),
		root:    true,
	}
	l.level.Store(int32(opts.Level))
	return l
}

// Child returns a derived logger that merges the given fixed fields into
// every entry it produces. The sink reference is shared, not re-wrapped.
func (l *Logger) Child(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	child := &Logger{
		enabled: l.enabled,
		name:    l.name,
		sink:    l.sink,
		fields:  merged,
		clock:   l.clock,
	}
	child.level.Store(l.level.Load())
	return child
}

// SetLevel changes the minimum level. Takes effect on the next call; entries
// already forwarded are unaffected.
func (l *Logger) SetLevel(level core.Level) {
	l.level.Store(int32(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() core.Level {
	return core.Level(l.level.Load())
}

// Enabled reports whether the logger forwards entries at all.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Sink returns the bound root sink.
func (l *Logger) Sink() sink.Sink {
	return l.sink
}

func (l *Logger) Trace(msg string, fields map[string]any) { l.log(core.LevelTrace, msg, fields) }
func (l *Logger) Debug(msg string, fields map[string]any) { l.log(core.LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.log(core.LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.log(core.LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any) { l.log(core.LevelError, msg, fields) }

// Fatal logs at fatal level and flushes the sink so the entry is not lost
// if the process exits right after. It does not terminate the process.
func (l *Logger) Fatal(msg string, fields map[string]any) {
	l.log(core.LevelFatal, msg, fields)
	l.sink.Flush()
}

// ErrorErr logs an already-constructed error at error level, extracting its
// type, message, and the current stack into a nested error field.
func (l *Logger) ErrorErr(err error, msg string, fields map[string]any) {
	if !l.enabled || core.LevelError < core.Level(l.level.Load()) {
		return
	}

	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["error"] = map[string]any{
		"type":    fmt.Sprintf("%T", err),
		"message": err.Error(),
		"stack":   string(debug.Stack()),
	}
	l.log(core.LevelError, msg, merged)
}

// Flush forces delivery of anything buffered in the sink tree.
func (l *Logger) Flush() error {
	return l.sink.Flush()
}

// Close flushes and closes the shared sink tree and, on the root logger,
// stops the coarse clock.
func (l *Logger) Close() error {
	err := l.sink.Close()
	if l.root {
		l.clock.Stop()
	}
	return err
}

func (l *Logger) log(level core.Level, msg string, fields map[string]any) {
	// Cheap gate: below-threshold calls never build an entry or touch
	// the sink.
	if !l.enabled || level < core.Level(l.level.Load()) {
		return
	}

	var merged map[string]any
	switch {
	case len(l.fields) == 0:
		merged = fields
	case len(fields) == 0:
		merged = l.fields
	default:
		merged = make(map[string]any, len(l.fields)+len(fields))
		for k, v := range l.fields {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
	}

	l.sink.Write(core.LogEntry{
		Time:    l.clock.Now(),
		Level:   level,
		Name:    l.name,
		Message: msg,
		Fields:  merged,
	})
}
