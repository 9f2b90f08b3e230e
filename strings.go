package httpcore

// Well-known header names and values reused across framing, rendering and
// Content-Type defaulting. Grounded on the teacher's strings.go constant
// table, converted from byte slices to strings since this module has no
// zero-allocation-string discipline to preserve.
const (
	headerConnection       = "Connection"
	headerContentLength    = "Content-Length"
	headerContentType      = "Content-Type"
	headerDate             = "Date"
	headerHost             = "Host"
	headerServer           = "Server"
	headerTransferEncoding = "Transfer-Encoding"
	headerCookie           = "Cookie"
	headerSetCookie        = "Set-Cookie"

	connectionClose = "close"
	transferChunked = "chunked"

	defaultServerName  = "httpcore server"
	defaultContentType = "text/plain; charset=utf-8"
)
