package sink

import (
	"bytes"
	"os"
	"sync"
	"time"

	"midway/src/internal/core"
)

// memorySink is the shared in-memory child used across the sink tests.
type memorySink struct {
	mu      sync.Mutex
	entries []core.LogEntry
	flushes int
	closes  int

	flushErr     error
	panicOnWrite bool
}

func (s *memorySink) Write(entry core.LogEntry) {
	if s.panicOnWrite {
		panic("child write failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *memorySink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return s.flushErr
}

func (s *memorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *memorySink) GetStats() SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SinkStats{Type: "memory", TotalProcessed: uint64(len(s.entries))}
}

func (s *memorySink) recorded() []core.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func entry(level core.Level, msg string) core.LogEntry {
	return core.LogEntry{
		Time:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Level:   level,
		Name:    "test",
		Message: msg,
	}
}

// captureSideChannel redirects internal error reporting for the duration of
// a test and returns the buffer it lands in.
func captureSideChannel() (*lockedBuffer, func()) {
	buf := &lockedBuffer{}
	SetSideChannel(buf)
	return buf, func() { SetSideChannel(os.Stderr) }
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
