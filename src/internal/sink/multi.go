package sink

import (
	"errors"
	"fmt"
	"time"

	"midway/src/internal/core"
)

// MultiSink fans out writes to a fixed set of child sinks. A failure in one
// child never prevents delivery to the others; each child's failure is
// caught and reported individually.
type MultiSink struct {
	children  []Sink
	startTime time.Time
}

// NewMulti creates a fan-out sink over the given children.
func NewMulti(children ...Sink) *MultiSink {
	return &MultiSink{
		children:  children,
		startTime: time.Now(),
	}
}

func (m *MultiSink) Write(entry core.LogEntry) {
	for i, child := range m.children {
		m.writeChild(i, child, entry)
	}
}

func (m *MultiSink) writeChild(i int, child Sink, entry core.LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			reportError("multi_sink", fmt.Errorf("child %d write panic: %v", i, r))
		}
	}()
	child.Write(entry)
}

// Flush flushes every child, continuing past failures. The combined error is
// returned after all children have been attempted.
func (m *MultiSink) Flush() error {
	var errs []error
	for i, child := range m.children {
		if err := m.flushChild(i, child); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) flushChild(i int, child Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("child %d flush panic: %v", i, r)
		}
	}()
	if err := child.Flush(); err != nil {
		return fmt.Errorf("child %d flush: %w", i, err)
	}
	return nil
}

// Close closes every child, continuing past failures.
func (m *MultiSink) Close() error {
	var errs []error
	for i, child := range m.children {
		if err := m.closeChild(i, child); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) closeChild(i int, child Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("child %d close panic: %v", i, r)
		}
	}()
	if err := child.Close(); err != nil {
		return fmt.Errorf("child %d close: %w", i, err)
	}
	return nil
}

func (m *MultiSink) GetStats() SinkStats {
	childStats := make([]map[string]any, 0, len(m.children))
	var total uint64
	for _, child := range m.children {
		st := child.GetStats()
		total += st.TotalProcessed
		childStats = append(childStats, map[string]any{
			"type":            st.Type,
			"total_processed": st.TotalProcessed,
		})
	}

	return SinkStats{
		Type:           "multi",
		TotalProcessed: total,
		StartTime:      m.startTime,
		Details: map[string]any{
			"children": childStats,
		},
	}
}
