package httpcore

import "github.com/yourusername/httpcore/head"

// Request is a fully-buffered, user-facing view of one HTTP/1.x request,
// assembled by a Server from the Frame sequence a Conn produces. Grounded
// on the teacher's Request type, trimmed to what this module's framing
// core needs: no multipart parsing, no on-disk body staging.
type Request struct {
	Method  string
	Version head.Version
	Header  head.Header
	URI     *URI
	Body    []byte
}

// Host returns the request's Host header value.
func (r *Request) Host() string {
	return r.Header.Get("Host")
}

// PostArgs parses and returns the request body as
// application/x-www-form-urlencoded arguments.
func (r *Request) PostArgs() Args {
	return ParseArgs(string(r.Body))
}

// Cookies returns the request's Cookie header, parsed into pairs.
func (r *Request) Cookies() []Cookie {
	return ParseCookies(r.Header.Get("Cookie"))
}

// requestFromHead builds a Request from a parsed MessageHead, resolving
// its request-target into a URI against the Host header.
func requestFromHead(h *MessageHead) *Request {
	return &Request{
		Method:  h.Method,
		Version: h.Version,
		Header:  h.Headers,
		URI:     ParseURI(h.Headers.Get("Host"), h.Target),
	}
}
