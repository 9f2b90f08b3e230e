package httpcore

import "net"

// ServerTrace is a set of hooks a Server runs at various stages of a
// connection's and request's lifecycle. Any hook may be nil. Hooks may be
// called concurrently from different connection goroutines.
// Grounded on the teacher's ServerTrace, with the RequestCtx-shaped hooks
// retargeted at this module's Request/Response types and the
// hijack-specific hook dropped (no hijacking feature in this module).
type ServerTrace struct {
	// GotConn is called whenever a new connection has been accepted.
	GotConn func(conn net.Conn)

	// ClosedConn is called when the server stops serving a connection,
	// just before the connection is closed.
	ClosedConn func(conn net.Conn)

	// ActivatedConn is called once per connection, when its first request
	// has been fully read.
	ActivatedConn func(conn net.Conn)

	// IdledConn is called once a response has been fully sent and the
	// connection is entering its keep-alive wait for the next request.
	IdledConn func(conn net.Conn)

	// GotRequest is called once a request has been fully read, before the
	// Handler is invoked.
	GotRequest func(req *Request)

	// WroteResponse is called after a response has been fully sent.
	WroteResponse func(resp *Response, err error)
}
