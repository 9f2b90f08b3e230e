//go:build unix

package httpcore

import (
	"golang.org/x/sys/unix"
)

// NonblockTransport adapts a raw, non-blocking file descriptor (as produced
// by tcplisten.Config with a reactor that has already put it in
// non-blocking mode) to the Transport interface. Read/Write/Flush map
// EAGAIN/EWOULDBLOCK to ErrWouldBlock instead of blocking the calling
// goroutine, for use with an external epoll/kqueue-driven scheduler.
type NonblockTransport struct {
	fd int
}

// NewNonblockTransport wraps fd, which must already be set non-blocking,
// as a Transport.
func NewNonblockTransport(fd int) *NonblockTransport {
	return &NonblockTransport{fd: fd}
}

// PollRead always reports ready; actual readiness is the external
// reactor's responsibility to determine before invoking Read.
func (t *NonblockTransport) PollRead() bool { return true }

// PollWrite always reports ready; actual readiness is the external
// reactor's responsibility to determine before invoking Write.
func (t *NonblockTransport) PollWrite() bool { return true }

func (t *NonblockTransport) Read(p []byte) (int, error) {
	n, err := unix.Read(t.fd, p)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

func (t *NonblockTransport) Write(p []byte) (int, error) {
	n, err := unix.Write(t.fd, p)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, ErrWouldBlock
		}
		return 0, err
	}
	return n, nil
}

// Flush is a no-op: writes reach the socket buffer synchronously; any
// kernel-side buffering is outside this transport's control.
func (t *NonblockTransport) Flush() error {
	return nil
}

// Close closes the underlying file descriptor.
func (t *NonblockTransport) Close() error {
	return unix.Close(t.fd)
}
