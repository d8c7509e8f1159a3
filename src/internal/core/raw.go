package core

// RawRequest is the read side of an inbound HTTP exchange. The runtime never
// touches the socket or parses the wire format itself; an adapter (e.g. the
// fasthttp server) presents the already-parsed request through this interface.
type RawRequest interface {
	// Method returns the HTTP method, e.g. "GET".
	Method() string

	// URI returns the request URI including the query string.
	URI() string

	// Header returns the value of a request header, or "" if absent.
	Header(key string) string

	// Body returns the request body. May be nil.
	Body() []byte
}

// RawResponse is the write side of an inbound HTTP exchange. Status, headers
// and body are staged by the dispatch engine; Finish signals that the
// response is complete and must not return before the write is durably
// handed to the transport.
type RawResponse interface {
	SetStatus(code int)
	SetHeader(key, value string)
	SetBody(body []byte)

	// Finish completes the response. Called exactly once per request.
	Finish() error
}
