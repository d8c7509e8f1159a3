package dispatch

import (
	"errors"
	"fmt"
	"net/http"

	"midway/src/internal/logger"
	"midway/src/internal/pool"
)

// Engine executes the per-request pipeline: request hooks, the middleware
// chain, response hooks, and response serialization, with a dedicated error
// phase replacing the tail of the pipeline when any earlier phase fails.
// Registration is append-only and expected to happen before serving starts;
// execution order is always registration order.
type Engine struct {
	middleware    []Middleware
	requestHooks  []Hook
	responseHooks []Hook
	errorHooks    []ErrorHook
	log           *logger.Logger
}

// New creates an engine that reports its own failures through log.
func New(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

// Use appends a middleware to the chain.
func (e *Engine) Use(mw Middleware) {
	e.middleware = append(e.middleware, mw)
}

// OnRequest appends a hook that runs before the middleware chain.
func (e *Engine) OnRequest(h Hook) {
	e.requestHooks = append(e.requestHooks, h)
}

// OnResponse appends a hook that runs after the middleware chain completes
// without error.
func (e *Engine) OnResponse(h Hook) {
	e.responseHooks = append(e.responseHooks, h)
}

// OnError appends a hook that runs during the error phase.
func (e *Engine) OnError(h ErrorHook) {
	e.errorHooks = append(e.errorHooks, h)
}

// Dispatch runs the full pipeline for one acquired context. It returns after
// the response has been serialized and the raw response reports completion.
// Exactly one response is always sent, regardless of what user code does.
func (e *Engine) Dispatch(ctx *pool.Context) {
	err := e.runHooks(ctx, e.requestHooks)
	if err == nil {
		err = e.runMiddleware(ctx)
	}
	if err == nil {
		err = e.runHooks(ctx, e.responseHooks)
	}
	if err != nil {
		e.errorPhase(ctx, err)
	}
	e.respond(ctx)
}

// runHooks executes hooks sequentially in registration order. The first
// error (or recovered panic) aborts the remaining hooks and moves the
// request to the error phase.
func (e *Engine) runHooks(ctx *pool.Context, hooks []Hook) error {
	for _, h := range hooks {
		if err := e.safeHook(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) safeHook(ctx *pool.Context, h Hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return h(ctx)
}

// runMiddleware drives the onion chain. A single highest-index counter is
// shared across the whole chain: dispatching a step at or below it means the
// same middleware invoked its continuation twice, which fails the request
// with ErrNextCalledTwice. An index past the end of the list is the implicit
// terminal handler.
func (e *Engine) runMiddleware(ctx *pool.Context) error {
	highest := -1

	var step func(i int) error
	step = func(i int) error {
		if i <= highest {
			return ErrNextCalledTwice
		}
		highest = i
		if i >= len(e.middleware) {
			return nil
		}
		return e.safeMiddleware(ctx, e.middleware[i], func() error {
			return step(i + 1)
		})
	}
	return step(0)
}

func (e *Engine) safeMiddleware(ctx *pool.Context, mw Middleware, next Next) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return mw(ctx, next)
}

// errorPhase classifies the failure, stages the error response, and runs the
// error hooks. Each hook is individually recovered: a broken error hook is
// logged and never blocks the response.
func (e *Engine) errorPhase(ctx *pool.Context, reqErr error) {
	status := http.StatusInternalServerError
	body := http.StatusText(status)

	var httpErr *HTTPError
	if errors.As(reqErr, &httpErr) {
		status = httpErr.Status
		if httpErr.Expose {
			body = httpErr.Message
		} else {
			body = http.StatusText(status)
		}
	}

	e.requestLog(ctx).ErrorErr(reqErr, "request failed", map[string]any{
		"status": status,
		"method": ctx.Method(),
		"path":   ctx.Path(),
	})

	ctx.SetStatus(status)
	ctx.SetBody([]byte(body))

	for _, h := range e.errorHooks {
		if hookErr := e.safeErrorHook(ctx, h, reqErr); hookErr != nil {
			e.requestLog(ctx).Error("error hook failed", map[string]any{
				"hook_error": hookErr.Error(),
			})
		}
	}
}

func (e *Engine) safeErrorHook(ctx *pool.Context, h ErrorHook, reqErr error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return h(ctx, reqErr)
}

// respond serializes the staged status/body to the raw response exactly
// once. A chain that staged nothing yields a 404; a body with no explicit
// status yields a 200. Failures past this point are reported and swallowed.
func (e *Engine) respond(ctx *pool.Context) {
	if ctx.Responded() {
		return
	}
	ctx.MarkResponded()

	status := ctx.Status()
	body := ctx.Body()
	if status == 0 {
		if body == nil {
			status = http.StatusNotFound
			body = []byte(http.StatusText(status))
		} else {
			status = http.StatusOK
		}
	}

	res := ctx.Response()
	res.SetStatus(status)
	res.SetBody(body)

	if err := res.Finish(); err != nil {
		e.requestLog(ctx).Error("response finish failed", map[string]any{
			"error": err.Error(),
		})
	}
}

// requestLog prefers the context-bound logger and falls back to the
// engine's own.
func (e *Engine) requestLog(ctx *pool.Context) *logger.Logger {
	if l := ctx.Logger(); l != nil {
		return l
	}
	return e.log
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
