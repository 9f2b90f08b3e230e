/*
Package httpcore drives an HTTP/1.x connection as an explicit state
machine over a caller-supplied byte-stream Transport, rather than owning
blocking reads and writes itself:

  - Incremental request/status-line and header parsing that resumes
    across partial reads instead of requiring a full head in one buffer.
  - Body framing selection (Content-Length, chunked, close-delimited,
    bodyless) chosen the way RFC 7230 requires, not left to the caller.
  - A half-duplex Reading/Writing lifecycle per connection, including
    keep-alive persistence and request pipelining with FIFO response
    ordering.
  - Cooperative, non-blocking I/O: every Conn method reports readiness
    via ErrWouldBlock instead of blocking, so a caller can drive many
    connections from one goroutine if it wants to.

Server and Client build on Conn to provide a conventional
goroutine-per-connection HTTP/1.x server and a single-shot blocking
client; both are reference implementations, not the only way to drive
Conn.
*/
package httpcore
