package httpcore

import (
	"net/http"
	"strconv"

	"github.com/yourusername/httpcore/head"
)

// Response is a fully-buffered, user-facing HTTP/1.x response a Handler
// builds and a Server renders onto a Conn. Grounded on the teacher's
// Response type, trimmed the same way Request is.
type Response struct {
	StatusCode int
	Reason     string
	Header     head.Header
	Body       []byte
}

// NewResponse returns a 200 OK response with an empty body.
func NewResponse() *Response {
	return &Response{StatusCode: 200, Reason: "OK"}
}

// SetStatusCode sets the response's status line code, clearing any reason
// phrase the caller hasn't set explicitly.
func (r *Response) SetStatusCode(code int) {
	if r.Reason == http.StatusText(r.StatusCode) {
		r.Reason = ""
	}
	r.StatusCode = code
}

// SetBodyString replaces the response body. It does not touch the headers:
// messageHead later sets Content-Length to the body's length when neither
// Content-Length nor Transfer-Encoding is set, which is what
// selectOutgoingEncoder needs to pick the Length framing strategy.
func (r *Response) SetBodyString(s string) {
	r.Body = []byte(s)
}

// SetCookie appends a Set-Cookie header for c.
func (r *Response) SetCookie(c *Cookie) {
	r.Header.Add(headerSetCookie, c.String())
}

// messageHead renders r into the MessageHead a Conn.Write(MessageFrame(...))
// call expects, paired against the request's version.
func (r *Response) messageHead(version head.Version) *MessageHead {
	h := r.Header
	if !h.Has(headerContentLength) && !h.Has(headerTransferEncoding) {
		h.Set(headerContentLength, strconv.Itoa(len(r.Body)))
	}
	if !h.Has(headerDate) {
		h.Set(headerDate, currentServerDate())
	}
	if !h.Has(headerServer) {
		h.Set(headerServer, defaultServerName)
	}
	if len(r.Body) > 0 && !h.Has(headerContentType) {
		h.Set(headerContentType, defaultContentType)
	}
	return &MessageHead{
		Kind:       HeadResponse,
		Version:    version,
		Headers:    h,
		StatusCode: r.StatusCode,
		Reason:     r.Reason,
	}
}
