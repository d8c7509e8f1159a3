package pool

import (
	"sync"
	"sync/atomic"

	"midway/src/internal/core"
)

// DefaultMaxSize bounds the free list when no size is configured.
const DefaultMaxSize = 128

// Pool is a bounded free list of reusable request contexts. Reuse is LIFO:
// the most recently released context is handed out first, keeping its
// internal buffers warm. Acquire and release are safe for concurrent use
// from independently scheduled request handlers.
type Pool struct {
	mu      sync.Mutex
	free    []*Context
	maxSize int

	created atomic.Uint64
	nextID  atomic.Uint64
}

// Stats is a point-in-time snapshot of pool state, for external capacity
// monitoring.
type Stats struct {
	PoolSize int
	Created  uint64
	MaxSize  int
}

// New creates a pool with the given maximum free-list size.
func New(maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Pool{
		free:    make([]*Context, 0, maxSize),
		maxSize: maxSize,
	}
}

// Acquire returns a context bound to the given request/response pair. It
// never fails: a pooled context is reset in place, or a new one is
// constructed on pool miss. The returned context is exclusively owned by the
// caller until Release.
func (p *Pool) Acquire(app any, req core.RawRequest, res core.RawResponse) *Context {
	var ctx *Context

	p.mu.Lock()
	if n := len(p.free); n > 0 {
		ctx = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	}
	p.mu.Unlock()

	if ctx == nil {
		ctx = &Context{}
		p.created.Add(1)
	}

	ctx.reset(app, req, res, p.nextID.Add(1))
	return ctx
}

// Release returns a context to the free list. Double release is a no-op: the
// in-use flag guards against the same context being pushed twice. When the
// free list is at capacity the context is dropped for GC instead.
func (p *Pool) Release(ctx *Context) {
	if ctx == nil || !ctx.inUse {
		return
	}
	ctx.inUse = false
	ctx.clearRefs()

	p.mu.Lock()
	if len(p.free) < p.maxSize {
		p.free = append(p.free, ctx)
	}
	p.mu.Unlock()
}

// Stats returns the current free-list length, the lifetime created count,
// and the configured maximum.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	size := len(p.free)
	p.mu.Unlock()

	return Stats{
		PoolSize: size,
		Created:  p.created.Load(),
		MaxSize:  p.maxSize,
	}
}
