package middleware

import (
	"fmt"
	"net/http"

	"midway/src/internal/dispatch"
	"midway/src/internal/pool"
)

// Recover converts a downstream panic into a generic 500 before it reaches
// the engine, logging the panic value with the request logger. The engine
// has its own recovery barrier; this middleware exists to classify the
// failure close to where it happened.
func Recover() dispatch.Middleware {
	return func(ctx *pool.Context, next dispatch.Next) (err error) {
		defer func() {
			if r := recover(); r != nil {
				ctx.Logger().Error("panic recovered", map[string]any{
					"panic": fmt.Sprint(r),
					"path":  ctx.Path(),
				})
				err = dispatch.NewHTTPError(http.StatusInternalServerError, "")
			}
		}()
		return next()
	}
}
