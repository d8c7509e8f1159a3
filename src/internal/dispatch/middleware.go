package dispatch

import (
	"errors"

	"midway/src/internal/pool"
)

// Next continues the middleware chain. A middleware may call it at most
// once; not calling it skips everything downstream.
type Next func() error

// Middleware is one onion layer. Code before the Next call runs on the way
// downstream, code after it runs on the unwind, in reverse registration
// order.
type Middleware func(ctx *pool.Context, next Next) error

// Hook is a lifecycle callback bound to a fixed point around the middleware
// chain rather than to the chain itself.
type Hook func(ctx *pool.Context) error

// ErrorHook observes a failed request during the error phase. Its return
// value is logged, never propagated: a broken error hook must not prevent
// the response from being sent.
type ErrorHook func(ctx *pool.Context, reqErr error) error

// ErrNextCalledTwice reports middleware misuse: the continuation was invoked
// more than once from the same chain step. The request fails as a server
// error instead of silently re-running downstream middleware.
var ErrNextCalledTwice = errors.New("next() called multiple times")
