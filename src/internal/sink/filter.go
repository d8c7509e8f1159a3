package sink

import (
	"fmt"
	"sync/atomic"
	"time"

	"midway/src/internal/core"
)

// Predicate decides whether a log entry is forwarded by a FilterSink.
type Predicate func(entry core.LogEntry) bool

// FilterSink wraps one child sink and forwards only the entries its
// predicate accepts. A panicking predicate fails closed: the entry is
// dropped rather than crashing the pipeline. Flush and Close pass through
// unconditionally.
type FilterSink struct {
	child     Sink
	pred      Predicate
	startTime time.Time

	// Statistics
	totalProcessed atomic.Uint64
	totalDropped   atomic.Uint64
}

// NewFilter creates a filtering sink around child.
func NewFilter(child Sink, pred Predicate) *FilterSink {
	return &FilterSink{
		child:     child,
		pred:      pred,
		startTime: time.Now(),
	}
}

func (f *FilterSink) Write(entry core.LogEntry) {
	f.totalProcessed.Add(1)

	if !f.accepts(entry) {
		f.totalDropped.Add(1)
		return
	}
	f.child.Write(entry)
}

func (f *FilterSink) accepts(entry core.LogEntry) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			reportError("filter_sink", fmt.Errorf("predicate panic: %v", r))
			ok = false
		}
	}()
	return f.pred(entry)
}

func (f *FilterSink) Flush() error {
	return f.child.Flush()
}

func (f *FilterSink) Close() error {
	return f.child.Close()
}

func (f *FilterSink) GetStats() SinkStats {
	return SinkStats{
		Type:           "filter",
		TotalProcessed: f.totalProcessed.Load(),
		TotalDropped:   f.totalDropped.Load(),
		StartTime:      f.startTime,
		Details: map[string]any{
			"child": f.child.GetStats().Type,
		},
	}
}
