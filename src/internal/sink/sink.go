package sink

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"midway/src/internal/core"
)

// Sink is an output destination for log entries.
//
// Write is fire-and-forget: implementations must never panic out of it and
// never hand an error back to the caller; internal failures go to the side
// channel instead. Flush forces delivery of anything buffered. Close flushes
// and releases resources; the sink must not be written to afterwards.
type Sink interface {
	Write(entry core.LogEntry)
	Flush() error
	Close() error

	// GetStats returns sink statistics for external monitoring.
	GetStats() SinkStats
}

// SinkStats contains statistics about a sink.
type SinkStats struct {
	Type           string
	TotalProcessed uint64
	TotalDropped   uint64
	StartTime      time.Time
	LastProcessed  time.Time
	Details        map[string]any
}

// Side channel for sink-internal errors. Deliberately not the Logger: a
// failing sink reporting through the pipeline it is part of would recurse.
var (
	sideMu      sync.Mutex
	sideChannel io.Writer = os.Stderr
)

func reportError(component string, err error) {
	sideMu.Lock()
	defer sideMu.Unlock()
	fmt.Fprintf(sideChannel, "midway: %s: %v\n", component, err)
}

// SetSideChannel redirects internal sink error reporting. Used by tests and
// by hosts that capture process stderr elsewhere.
func SetSideChannel(w io.Writer) {
	sideMu.Lock()
	defer sideMu.Unlock()
	sideChannel = w
}
