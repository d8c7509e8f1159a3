package middleware

import (
	"time"

	"midway/src/internal/dispatch"
	"midway/src/internal/pool"
)

// AccessLog emits one structured log line per completed request, timed
// across the whole downstream chain. Failed requests are logged by the
// dispatch engine's error phase instead.
func AccessLog() dispatch.Middleware {
	return func(ctx *pool.Context, next dispatch.Next) error {
		if err := next(); err != nil {
			return err
		}

		ctx.Logger().Info("request complete", map[string]any{
			"method":      ctx.Method(),
			"path":        ctx.Path(),
			"status":      ctx.Status(),
			"duration_ms": time.Since(ctx.StartTime()).Milliseconds(),
		})
		return nil
	}
}
