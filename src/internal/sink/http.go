package sink

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"midway/src/internal/config"
	"midway/src/internal/core"
	"midway/src/internal/format"
	"midway/src/internal/version"

	"github.com/valyala/fasthttp"
)

// HTTPSink forwards log entries to a remote HTTP endpoint. Entries are
// batched and sent as a single JSON array POST per flush window. Delivery
// failures are reported on the side channel and never retried; a full batch
// is sent in the background so the write path does not block on the network.
type HTTPSink struct {
	url       string
	client    *fasthttp.Client
	timeout   time.Duration
	formatter *format.JSONFormatter

	mu        sync.Mutex
	batch     []core.LogEntry
	closed    bool
	batchSize int

	flushInterval time.Duration
	done          chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
	startTime     time.Time

	// Statistics
	totalProcessed atomic.Uint64
	totalBatches   atomic.Uint64
	failedBatches  atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

// NewHTTP creates an HTTP delivery sink.
func NewHTTP(opts *config.HTTPSinkOptions) (*HTTPSink, error) {
	if opts == nil {
		return nil, fmt.Errorf("HTTP sink options cannot be nil")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("HTTP sink requires a url")
	}

	batchSize := int(opts.BatchSize)
	if batchSize < 1 {
		batchSize = 100
	}
	flushInterval := time.Duration(opts.FlushIntervalMS) * time.Millisecond
	if flushInterval < time.Millisecond {
		flushInterval = time.Second
	}
	timeout := time.Duration(opts.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	h := &HTTPSink{
		url:     opts.URL,
		timeout: timeout,
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			MaxIdleConnDuration: 10 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
		formatter:     format.NewJSON(),
		batch:         make([]core.LogEntry, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
		startTime:     time.Now(),
	}
	h.lastProcessed.Store(time.Time{})

	h.wg.Add(1)
	go h.flushLoop()

	return h, nil
}

func (h *HTTPSink) Write(entry core.LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			reportError("http_sink", fmt.Errorf("write panic: %v", r))
		}
	}()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}

	h.batch = append(h.batch, entry)
	h.totalProcessed.Add(1)
	h.lastProcessed.Store(time.Now())

	if len(h.batch) >= h.batchSize {
		batch := h.batch
		h.batch = make([]core.LogEntry, 0, h.batchSize)
		h.mu.Unlock()

		// Full batch goes out in the background; request handling must
		// not wait on the remote endpoint.
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.sendBatch(batch)
		}()
		return
	}
	h.mu.Unlock()
}

// Flush synchronously delivers the pending batch. Delivery failures are
// swallowed after being reported; they never reach the caller.
func (h *HTTPSink) Flush() error {
	h.mu.Lock()
	if len(h.batch) == 0 {
		h.mu.Unlock()
		return nil
	}
	batch := h.batch
	h.batch = make([]core.LogEntry, 0, h.batchSize)
	h.mu.Unlock()

	h.sendBatch(batch)
	return nil
}

// Close stops the timer, waits for in-flight sends, and delivers the final
// batch.
func (h *HTTPSink) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.Flush()

		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
	})
	return nil
}

func (h *HTTPSink) flushLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Flush()
		case <-h.done:
			return
		}
	}
}

func (h *HTTPSink) sendBatch(batch []core.LogEntry) {
	h.totalBatches.Add(1)

	body, err := h.formatter.FormatBatch(batch)
	if err != nil {
		reportError("http_sink", fmt.Errorf("failed to format batch of %d: %w", len(batch), err))
		h.failedBatches.Add(1)
		return
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(h.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("midway/%s", version.Short()))
	req.SetBody(body)

	if err := h.client.DoTimeout(req, resp, h.timeout); err != nil {
		reportError("http_sink", fmt.Errorf("batch of %d not delivered: %w", len(batch), err))
		h.failedBatches.Add(1)
		return
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		reportError("http_sink", fmt.Errorf("batch of %d rejected with status %d", len(batch), code))
		h.failedBatches.Add(1)
	}
}

func (h *HTTPSink) GetStats() SinkStats {
	lastProc, _ := h.lastProcessed.Load().(time.Time)

	h.mu.Lock()
	pending := len(h.batch)
	h.mu.Unlock()

	return SinkStats{
		Type:           "http",
		TotalProcessed: h.totalProcessed.Load(),
		StartTime:      h.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"url":             h.url,
			"batch_size":      h.batchSize,
			"pending_entries": pending,
			"total_batches":   h.totalBatches.Load(),
			"failed_batches":  h.failedBatches.Load(),
		},
	}
}
