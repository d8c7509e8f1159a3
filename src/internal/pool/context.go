package pool

import (
	"net/url"
	"strings"
	"time"

	"midway/src/internal/core"
	"midway/src/internal/logger"
)

// Context carries one in-flight request through the dispatch pipeline. While
// acquired it is exclusively owned by that request; afterwards it is recycled
// through the Pool, so references to a Context must never outlive the
// request that owns it.
type Context struct {
	app   any
	req   core.RawRequest
	res   core.RawResponse
	state map[string]any
	log   *logger.Logger

	id    uint64
	start time.Time
	inUse bool

	// Staged response, serialized exactly once by the dispatch engine.
	status    int
	body      []byte
	responded bool

	// Cached request derivations, rebuilt per request.
	path        string
	pathParsed  bool
	query       url.Values
	queryParsed bool
}

// reset reinitializes the context for a new request. Called on every
// acquire, including the first use of a freshly constructed context.
func (c *Context) reset(app any, req core.RawRequest, res core.RawResponse, id uint64) {
	c.app = app
	c.req = req
	c.res = res
	c.id = id
	c.start = time.Now()
	c.inUse = true
	c.log = nil

	c.status = 0
	c.body = nil
	c.responded = false

	c.path = ""
	c.pathParsed = false
	c.query = nil
	c.queryParsed = false

	if c.state == nil {
		c.state = make(map[string]any)
	} else {
		clear(c.state)
	}
}

// clearRefs drops request-scoped references before the context goes back on
// the free list, so a pooled context cannot keep the previous request's data
// alive.
func (c *Context) clearRefs() {
	c.app = nil
	c.req = nil
	c.res = nil
	c.log = nil
	c.body = nil
	c.query = nil
	clear(c.state)
}

// App returns the owning application.
func (c *Context) App() any { return c.app }

// Request returns the raw request handle.
func (c *Context) Request() core.RawRequest { return c.req }

// Response returns the raw response handle.
func (c *Context) Response() core.RawResponse { return c.res }

// ID returns the request identifier, monotonically increasing per pool.
func (c *Context) ID() uint64 { return c.id }

// StartTime returns when the context was acquired for this request.
func (c *Context) StartTime() time.Time { return c.start }

// Logger returns the request-bound logger.
func (c *Context) Logger() *logger.Logger { return c.log }

// SetLogger binds a request-scoped logger, typically a child carrying the
// request ID.
func (c *Context) SetLogger(l *logger.Logger) { c.log = l }

// Set stores a request-scoped value. The state map is cleared on release.
func (c *Context) Set(key string, value any) { c.state[key] = value }

// Get reads a request-scoped value.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// Method returns the request method.
func (c *Context) Method() string { return c.req.Method() }

// Header returns a request header value.
func (c *Context) Header(key string) string { return c.req.Header(key) }

// Path returns the request path without the query string.
func (c *Context) Path() string {
	if !c.pathParsed {
		uri := c.req.URI()
		if i := strings.IndexByte(uri, '?'); i >= 0 {
			c.path = uri[:i]
		} else {
			c.path = uri
		}
		c.pathParsed = true
	}
	return c.path
}

// Query returns the first value of a query parameter, or "".
func (c *Context) Query(key string) string {
	if !c.queryParsed {
		uri := c.req.URI()
		if i := strings.IndexByte(uri, '?'); i >= 0 {
			// Malformed query strings degrade to empty values
			c.query, _ = url.ParseQuery(uri[i+1:])
		}
		c.queryParsed = true
	}
	if c.query == nil {
		return ""
	}
	return c.query.Get(key)
}

// Status returns the staged response status. Zero means unset.
func (c *Context) Status() int { return c.status }

// SetStatus stages the response status.
func (c *Context) SetStatus(code int) { c.status = code }

// Body returns the staged response body.
func (c *Context) Body() []byte { return c.body }

// SetBody stages the response body.
func (c *Context) SetBody(body []byte) { c.body = body }

// SetHeader sets a response header.
func (c *Context) SetHeader(key, value string) { c.res.SetHeader(key, value) }

// Responded reports whether the response has been serialized.
func (c *Context) Responded() bool { return c.responded }

// MarkResponded records that the response has been serialized. Invoked by
// the dispatch engine only.
func (c *Context) MarkResponded() { c.responded = true }

// InUse reports whether the context is currently owned by a request.
func (c *Context) InUse() bool { return c.inUse }
