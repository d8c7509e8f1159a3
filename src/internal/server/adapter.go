package server

import (
	"github.com/valyala/fasthttp"
)

// rawRequest adapts a fasthttp request to the runtime's raw request
// abstraction. The parsed wire format stays fasthttp's concern.
type rawRequest struct {
	c *fasthttp.RequestCtx
}

func (r *rawRequest) Method() string {
	return string(r.c.Method())
}

func (r *rawRequest) URI() string {
	return string(r.c.RequestURI())
}

func (r *rawRequest) Header(key string) string {
	return string(r.c.Request.Header.Peek(key))
}

func (r *rawRequest) Body() []byte {
	return r.c.PostBody()
}

// rawResponse adapts the fasthttp response. fasthttp flushes the response
// when the handler returns, so Finish completing is the durable-write
// signal for this transport.
type rawResponse struct {
	c *fasthttp.RequestCtx
}

func (r *rawResponse) SetStatus(code int) {
	r.c.SetStatusCode(code)
}

func (r *rawResponse) SetHeader(key, value string) {
	r.c.Response.Header.Set(key, value)
}

func (r *rawResponse) SetBody(body []byte) {
	r.c.Response.SetBody(body)
}

func (r *rawResponse) Finish() error {
	return nil
}
