package sink

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"midway/src/internal/core"
	"midway/src/internal/format"
)

// ConsoleSink writes log entries synchronously to the process streams.
// Entries at error level and above go to the error stream, everything else
// to the standard stream.
type ConsoleSink struct {
	mu        sync.Mutex
	out       io.Writer
	errOut    io.Writer
	formatter format.Formatter
	startTime time.Time

	// Statistics
	totalProcessed atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

// NewConsole creates a console sink bound to stdout/stderr.
func NewConsole(formatter format.Formatter) *ConsoleSink {
	return NewConsoleWriter(os.Stdout, os.Stderr, formatter)
}

// NewConsoleWriter creates a console sink with explicit output streams.
func NewConsoleWriter(out, errOut io.Writer, formatter format.Formatter) *ConsoleSink {
	s := &ConsoleSink{
		out:       out,
		errOut:    errOut,
		formatter: formatter,
		startTime: time.Now(),
	}
	s.lastProcessed.Store(time.Time{})
	return s
}

func (s *ConsoleSink) Write(entry core.LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			reportError("console_sink", fmt.Errorf("write panic: %v", r))
		}
	}()

	formatted, err := s.formatter.Format(entry)
	if err != nil {
		reportError("console_sink", fmt.Errorf("failed to format entry: %w", err))
		return
	}

	target := s.out
	if entry.Level >= core.LevelError {
		target = s.errOut
	}

	s.mu.Lock()
	_, err = target.Write(formatted)
	s.mu.Unlock()
	if err != nil {
		reportError("console_sink", fmt.Errorf("write failed: %w", err))
		return
	}

	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())
}

// Flush is a no-op; the console sink is unbuffered.
func (s *ConsoleSink) Flush() error {
	return nil
}

func (s *ConsoleSink) Close() error {
	return nil
}

func (s *ConsoleSink) GetStats() SinkStats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)

	return SinkStats{
		Type:           "console",
		TotalProcessed: s.totalProcessed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"format": s.formatter.Name(),
		},
	}
}
