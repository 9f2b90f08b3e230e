package httpcore

import (
	"errors"
	"io"
	"net"
)

// ErrWouldBlock is the sentinel a Transport returns from Read, Write, or
// Flush to signal the non-blocking NotReady result (spec.md §6's
// `Ok(n) | Err(WouldBlock) | Err(io)` contract). Conn also returns it from
// Read and Flush to signal its own NotReady result to the caller's
// scheduler, so a single sentinel spans both layers.
var ErrWouldBlock = errors.New("httpcore: would block")

// Transport is the byte-stream abstraction a Conn drives. Every method
// follows the same three-way contract: (n, nil) on progress (n may be 0 to
// report a clean EOF from Read), (0, ErrWouldBlock) when the operation would
// block and the caller must wait for the external reactor to report
// readiness again, or (n, err) for any other error.
//
// Conn never calls these methods concurrently with itself; a Transport need
// not be goroutine-safe beyond what the embedded connection already is.
type Transport interface {
	// PollRead reports whether a Read is currently expected to make
	// progress without blocking. Reactors that cannot cheaply answer this
	// (e.g. a plain blocking socket) may always return true.
	PollRead() bool
	// PollWrite reports whether a Write is currently expected to make
	// progress without blocking.
	PollWrite() bool

	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Flush() error
}

// NetTransport adapts a standard blocking net.Conn to the Transport
// interface for use with a goroutine-per-connection server: Poll* always
// report ready and Read/Write block until data moves or a real error
// occurs, so ErrWouldBlock is never returned.
type NetTransport struct {
	conn net.Conn
}

// NewNetTransport wraps conn as a Transport.
func NewNetTransport(conn net.Conn) *NetTransport {
	return &NetTransport{conn: conn}
}

func (t *NetTransport) PollRead() bool  { return true }
func (t *NetTransport) PollWrite() bool { return true }

func (t *NetTransport) Read(p []byte) (int, error) {
	n, err := t.conn.Read(p)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

func (t *NetTransport) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

// Flush is a no-op: net.Conn.Write already sends bytes synchronously.
func (t *NetTransport) Flush() error {
	return nil
}

// Close closes the underlying connection.
func (t *NetTransport) Close() error {
	return t.conn.Close()
}

