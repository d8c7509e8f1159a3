package middleware

import (
	"strconv"

	"midway/src/internal/dispatch"
	"midway/src/internal/pool"
)

// DefaultRequestIDHeader is used when no header name is given.
const DefaultRequestIDHeader = "X-Request-ID"

// RequestID exposes the pooled context's request identifier as a response
// header.
func RequestID(header string) dispatch.Middleware {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return func(ctx *pool.Context, next dispatch.Next) error {
		ctx.SetHeader(header, strconv.FormatUint(ctx.ID(), 10))
		return next()
	}
}
