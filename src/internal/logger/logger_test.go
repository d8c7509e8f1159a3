package logger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"midway/src/internal/core"
	"midway/src/internal/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink captures every entry it receives.
type recordSink struct {
	mu      sync.Mutex
	entries []core.LogEntry
	flushes int
	closes  int
}

func (s *recordSink) Write(entry core.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *recordSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *recordSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *recordSink) GetStats() sink.SinkStats {
	return sink.SinkStats{Type: "record"}
}

func (s *recordSink) recorded() []core.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func newTestLogger(t *testing.T, level core.Level) (*Logger, *recordSink) {
	t.Helper()
	rec := &recordSink{}
	log := New(Options{
		Enabled: true,
		Level:   level,
		Name:    "test",
		Sink:    rec,
	})
	t.Cleanup(func() { log.Close() })
	return log, rec
}

func TestLevelGating(t *testing.T) {
	log, rec := newTestLogger(t, core.LevelWarn)

	log.Trace("t", nil)
	log.Debug("d", nil)
	log.Info("i", nil)
	log.Warn("w", nil)
	log.Error("e", nil)

	entries := rec.recorded()
	require.Len(t, entries, 2)
	assert.Equal(t, core.LevelWarn, entries[0].Level)
	assert.Equal(t, core.LevelError, entries[1].Level)
}

func TestDisabledLoggerForwardsNothing(t *testing.T) {
	rec := &recordSink{}
	log := New(Options{Enabled: false, Sink: rec})
	defer log.Close()

	log.Info("dropped", nil)
	log.Error("also dropped", nil)
	log.Fatal("even fatal", nil)

	assert.Empty(t, rec.recorded())
}

func TestSetLevelTakesEffectOnNextCall(t *testing.T) {
	log, rec := newTestLogger(t, core.LevelInfo)

	log.Debug("before", nil)
	log.SetLevel(core.LevelDebug)
	log.Debug("after", nil)

	entries := rec.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, "after", entries[0].Message)
}

func TestChildMergesFields(t *testing.T) {
	log, rec := newTestLogger(t, core.LevelInfo)

	child := log.Child(map[string]any{"request_id": uint64(42), "component": "dispatch"})
	grandchild := child.Child(map[string]any{"component": "auth"})

	child.Info("from child", map[string]any{"extra": true})
	grandchild.Info("from grandchild", nil)

	entries := rec.recorded()
	require.Len(t, entries, 2)

	assert.Equal(t, uint64(42), entries[0].Fields["request_id"])
	assert.Equal(t, "dispatch", entries[0].Fields["component"])
	assert.Equal(t, true, entries[0].Fields["extra"])

	// Nearer ancestor wins on key collision
	assert.Equal(t, uint64(42), entries[1].Fields["request_id"])
	assert.Equal(t, "auth", entries[1].Fields["component"])
}

func TestChildSharesSink(t *testing.T) {
	log, _ := newTestLogger(t, core.LevelInfo)
	child := log.Child(map[string]any{"k": "v"})

	assert.Same(t, log.Sink(), child.Sink())
}

func TestCallSiteFieldsWinOverBound(t *testing.T) {
	log, rec := newTestLogger(t, core.LevelInfo)
	child := log.Child(map[string]any{"source": "bound"})

	child.Info("override", map[string]any{"source": "call"})

	entries := rec.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, "call", entries[0].Fields["source"])
}

func TestErrorErrAttachesErrorDetails(t *testing.T) {
	log, rec := newTestLogger(t, core.LevelInfo)

	log.ErrorErr(errors.New("connection reset"), "upstream failed", map[string]any{"host": "db1"})

	entries := rec.recorded()
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, core.LevelError, entry.Level)
	assert.Equal(t, "upstream failed", entry.Message)
	assert.Equal(t, "db1", entry.Fields["host"])

	errField, ok := entry.Fields["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "*errors.errorString", errField["type"])
	assert.Equal(t, "connection reset", errField["message"])
	assert.NotEmpty(t, errField["stack"])
}

func TestErrorErrGatedBelowThreshold(t *testing.T) {
	log, rec := newTestLogger(t, core.LevelFatal)

	log.ErrorErr(errors.New("suppressed"), "below threshold", nil)
	assert.Empty(t, rec.recorded())
}

func TestFatalFlushesSink(t *testing.T) {
	log, rec := newTestLogger(t, core.LevelInfo)

	log.Fatal("going down", nil)

	entries := rec.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, core.LevelFatal, entries[0].Level)
	assert.Equal(t, 1, rec.flushes)
}

func TestEntryCarriesNameAndTime(t *testing.T) {
	log, rec := newTestLogger(t, core.LevelInfo)

	before := time.Now()
	log.Info("stamped", nil)

	entries := rec.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, "test", entries[0].Name)
	assert.WithinDuration(t, before, entries[0].Time, time.Second)
}

func TestCloseClosesSinkAndStopsClock(t *testing.T) {
	rec := &recordSink{}
	log := New(Options{Enabled: true, Sink: rec, ClockInterval: time.Millisecond})

	require.NoError(t, log.Close())
	assert.Equal(t, 1, rec.closes)

	// Stop is idempotent; a second Close must not panic.
	require.NoError(t, log.Close())
}

func TestClockAdvances(t *testing.T) {
	c := newClock(time.Millisecond)
	defer c.Stop()

	first := c.Now()
	assert.Eventually(t, func() bool {
		return c.Now().After(first)
	}, time.Second, 5*time.Millisecond)
}
