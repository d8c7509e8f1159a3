package app

import (
	"midway/src/internal/core"
	"midway/src/internal/dispatch"
	"midway/src/internal/logger"
	"midway/src/internal/pool"
)

// App is the request-processing runtime: it owns the context pool, the
// dispatch engine, and the root logger, and exposes the registration surface
// to the host.
type App struct {
	log    *logger.Logger
	pool   *pool.Pool
	engine *dispatch.Engine
}

// Options configures an App.
type Options struct {
	// Logger is the root logger. Required.
	Logger *logger.Logger

	// PoolMaxSize bounds the context free list. Zero selects the default.
	PoolMaxSize int
}

// New creates an App.
func New(opts Options) *App {
	return &App{
		log:    opts.Logger,
		pool:   pool.New(opts.PoolMaxSize),
		engine: dispatch.New(opts.Logger),
	}
}

// Use appends a middleware to the chain. Registration order is execution
// order.
func (a *App) Use(mw dispatch.Middleware) *App {
	a.engine.Use(mw)
	return a
}

// OnRequest registers a hook that runs before the middleware chain.
func (a *App) OnRequest(h dispatch.Hook) *App {
	a.engine.OnRequest(h)
	return a
}

// OnResponse registers a hook that runs after the middleware chain.
func (a *App) OnResponse(h dispatch.Hook) *App {
	a.engine.OnResponse(h)
	return a
}

// OnError registers a hook that runs during the error phase.
func (a *App) OnError(h dispatch.ErrorHook) *App {
	a.engine.OnError(h)
	return a
}

// HandleRequest processes one raw request/response pair through the full
// pipeline and returns once the response has been issued. The pooled context
// is released exactly once, after the response completes.
func (a *App) HandleRequest(req core.RawRequest, res core.RawResponse) {
	ctx := a.pool.Acquire(a, req, res)
	defer a.pool.Release(ctx)

	ctx.SetLogger(a.log.Child(map[string]any{
		"request_id": ctx.ID(),
	}))

	a.engine.Dispatch(ctx)
}

// Logger returns the root logger.
func (a *App) Logger() *logger.Logger {
	return a.log
}

// PoolStats exposes context pool capacity metrics.
func (a *App) PoolStats() pool.Stats {
	return a.pool.Stats()
}

// Shutdown drains the logging pipeline: buffered entries are flushed and the
// sink tree is closed.
func (a *App) Shutdown() error {
	return a.log.Close()
}
