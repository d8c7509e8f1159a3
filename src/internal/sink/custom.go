package sink

import (
	"fmt"
	"sync/atomic"
	"time"

	"midway/src/internal/core"
)

// WriteFunc is a user-supplied delivery function for a CustomSink.
type WriteFunc func(entry core.LogEntry) error

// CustomSink adapts a user-supplied function to the Sink interface. Errors
// and panics from the function are caught and reported, never propagated.
type CustomSink struct {
	fn        WriteFunc
	startTime time.Time

	// Statistics
	totalProcessed atomic.Uint64
	totalFailed    atomic.Uint64
}

// NewCustom creates a sink around fn.
func NewCustom(fn WriteFunc) *CustomSink {
	return &CustomSink{
		fn:        fn,
		startTime: time.Now(),
	}
}

func (c *CustomSink) Write(entry core.LogEntry) {
	c.totalProcessed.Add(1)
	if err := c.call(entry); err != nil {
		c.totalFailed.Add(1)
		reportError("custom_sink", err)
	}
}

func (c *CustomSink) call(entry core.LogEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("write func panic: %v", r)
		}
	}()
	return c.fn(entry)
}

func (c *CustomSink) Flush() error {
	return nil
}

func (c *CustomSink) Close() error {
	return nil
}

func (c *CustomSink) GetStats() SinkStats {
	return SinkStats{
		Type:           "custom",
		TotalProcessed: c.totalProcessed.Load(),
		TotalDropped:   c.totalFailed.Load(),
		StartTime:      c.startTime,
		Details:        map[string]any{},
	}
}
