package sink

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"midway/src/internal/config"
	"midway/src/internal/core"
	"midway/src/internal/format"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileSink appends log entries to a rotating file. Writes accumulate in
// memory and are flushed as one batch write when the buffer reaches its
// configured size or the flush interval elapses, whichever comes first.
// Entries are flushed in write order.
type FileSink struct {
	mu        sync.Mutex
	buf       []core.LogEntry
	writer    io.WriteCloser
	formatter format.Formatter
	closed    bool

	bufferSize    int
	flushInterval time.Duration

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	startTime time.Time

	// Statistics
	totalProcessed atomic.Uint64
	totalFlushes   atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

// NewFile creates a file sink with lumberjack-managed rotation.
func NewFile(opts *config.FileSinkOptions, formatter format.Formatter) (*FileSink, error) {
	if opts == nil {
		return nil, fmt.Errorf("file sink options cannot be nil")
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("file sink requires a path")
	}

	writer := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    int(opts.MaxSizeMB),
		MaxBackups: int(opts.MaxBackups),
		MaxAge:     int(opts.MaxAgeDays),
		Compress:   opts.Compress,
	}

	return NewFileWriter(writer, int(opts.BufferSize), time.Duration(opts.FlushIntervalMS)*time.Millisecond, formatter), nil
}

// NewFileWriter creates a file sink over an arbitrary writer. The sink owns
// the writer and closes it on Close.
func NewFileWriter(writer io.WriteCloser, bufferSize int, flushInterval time.Duration, formatter format.Formatter) *FileSink {
	if bufferSize < 1 {
		bufferSize = 64
	}
	if flushInterval < time.Millisecond {
		flushInterval = time.Second
	}

	fs := &FileSink{
		buf:           make([]core.LogEntry, 0, bufferSize),
		writer:        writer,
		formatter:     formatter,
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
		startTime:     time.Now(),
	}
	fs.lastProcessed.Store(time.Time{})

	fs.wg.Add(1)
	go fs.flushLoop()

	return fs
}

func (fs *FileSink) Write(entry core.LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			reportError("file_sink", fmt.Errorf("write panic: %v", r))
		}
	}()

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.closed {
		return
	}

	fs.buf = append(fs.buf, entry)
	fs.totalProcessed.Add(1)
	fs.lastProcessed.Store(time.Now())

	// Threshold check happens synchronously on every write
	if len(fs.buf) >= fs.bufferSize {
		if err := fs.flushLocked(); err != nil {
			reportError("file_sink", err)
		}
	}
}

// Flush forces a batch write of everything buffered. A flush that finds an
// empty buffer is a no-op.
func (fs *FileSink) Flush() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.flushLocked()
}

func (fs *FileSink) flushLocked() error {
	if len(fs.buf) == 0 {
		return nil
	}

	var batch bytes.Buffer
	for _, entry := range fs.buf {
		formatted, err := fs.formatter.Format(entry)
		if err != nil {
			reportError("file_sink", fmt.Errorf("failed to format entry: %w", err))
			continue
		}
		batch.Write(formatted)
	}
	fs.buf = fs.buf[:0]

	if batch.Len() == 0 {
		return nil
	}

	if _, err := fs.writer.Write(batch.Bytes()); err != nil {
		return fmt.Errorf("batch write failed: %w", err)
	}
	fs.totalFlushes.Add(1)
	return nil
}

// Close flushes the remaining buffer, stops the timer goroutine, and closes
// the underlying writer.
func (fs *FileSink) Close() error {
	var err error
	fs.closeOnce.Do(func() {
		close(fs.done)
		fs.wg.Wait()

		fs.mu.Lock()
		defer fs.mu.Unlock()

		err = fs.flushLocked()
		if closeErr := fs.writer.Close(); err == nil {
			err = closeErr
		}
		fs.closed = true
	})
	return err
}

func (fs *FileSink) flushLoop() {
	defer fs.wg.Done()

	ticker := time.NewTicker(fs.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := fs.Flush(); err != nil {
				reportError("file_sink", err)
			}
		case <-fs.done:
			return
		}
	}
}

func (fs *FileSink) GetStats() SinkStats {
	lastProc, _ := fs.lastProcessed.Load().(time.Time)

	fs.mu.Lock()
	pending := len(fs.buf)
	fs.mu.Unlock()

	return SinkStats{
		Type:           "file",
		TotalProcessed: fs.totalProcessed.Load(),
		StartTime:      fs.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"buffer_size":     fs.bufferSize,
			"pending_entries": pending,
			"total_flushes":   fs.totalFlushes.Load(),
		},
	}
}
