package httpcore

import (
	"errors"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// Handler processes one fully-buffered Request and returns the Response to
// send back. It must not retain req or the returned Response past return.
type Handler func(req *Request) *Response

// Logger is the minimal logging interface a Server reports errors through,
// grounded on the teacher's own Logger interface so log.Logger satisfies it
// with no adapter.
type Logger interface {
	Printf(format string, args ...any)
}

var defaultLogger Logger = log.New(os.Stderr, "", log.LstdFlags)

// DefaultConcurrency is the default ceiling on simultaneously served
// connections.
const DefaultConcurrency = 256 * 1024

// Server drives a reference, goroutine-per-connection HTTP/1.x server on
// top of Conn, grounded on the teacher's Server/serveConn.
type Server struct {
	// Handler is called once per request; it must be set before Serve.
	Handler Handler

	// Logger receives diagnostic messages; defaults to a stderr log.Logger.
	Logger Logger

	// Concurrency bounds how many connections may be served at once.
	// Zero selects DefaultConcurrency.
	Concurrency int

	// DisableKeepAlive turns off persistent connections (spec.md §4.4);
	// by default they are enabled.
	DisableKeepAlive bool

	// MaxHeadBytes bounds a single request-line+headers; zero selects
	// buffer.DefaultCeiling.
	MaxHeadBytes int

	// ReusePort enables SO_REUSEPORT via the tcplisten subpackage when
	// ListenAndServe constructs its own listener.
	ReusePort bool

	// ListenBacklog overrides the pending-connection backlog passed to
	// listen(2) when ReusePort is set. Zero defers to the system's
	// somaxconn.
	ListenBacklog int

	// MaxConnsPerIP bounds how many simultaneous connections a single
	// remote IPv4 address may hold open. Zero means unbounded.
	MaxConnsPerIP int

	// MinReadThroughputKbps and MinWriteThroughputKbps close a connection
	// whose sustained throughput drops below the floor, defending against
	// slow-loris style exhaustion. Zero disables the corresponding check.
	MinReadThroughputKbps  float32
	MinWriteThroughputKbps float32

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Trace, when set, receives connection and request lifecycle hooks.
	Trace *ServerTrace

	perIPConnCounter   perIPConnCounter
	slowlorisCheckPool sync.Pool
}

// ErrPerIPConnLimit is returned by Serve's accept loop's logging path when
// a connection is rejected for exceeding MaxConnsPerIP; Serve itself just
// closes the connection.
var ErrPerIPConnLimit = errors.New("httpcore: too many connections from the same IP")

func (s *Server) logger() Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return defaultLogger
}

func (s *Server) concurrency() int {
	if s.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return s.Concurrency
}

// ListenAndServe listens on addr and serves requests with s.Handler. With
// s.ReusePort set, the listener is constructed via tcplisten.Config so
// multiple processes may bind the same addr.
func (s *Server) ListenAndServe(addr string) error {
	var ln net.Listener
	var err error
	if s.ReusePort {
		ln, err = tcplistenConfig(s.ListenBacklog).NewListener("tcp4", addr)
		if err != nil {
			return newError(ErrKindIO, err)
		}
	} else {
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return newError(ErrKindIO, err)
		}
	}
	return s.Serve(ln)
}

// Serve accepts connections from ln, dispatching each to a pooled worker
// goroutine running s.serveConn. It blocks until ln.Accept returns a
// permanent error, returning nil for a clean shutdown (ln closed).
func (s *Server) Serve(ln net.Listener) error {
	wp := &workerPool{
		WorkerFunc:      s.serveConn,
		MaxWorkersCount: s.concurrency(),
		Logger:          s.logger(),
	}
	wp.Start()

	var lastOverflowLog time.Time
	for {
		c, err := ln.Accept()
		if err != nil {
			wp.Stop()
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}
		if s.MaxConnsPerIP > 0 {
			ip := getUint32IP(c)
			if s.perIPConnCounter.Register(ip) > s.MaxConnsPerIP {
				s.perIPConnCounter.Unregister(ip)
				c.Close()
				s.logger().Printf("%s: %s", ErrPerIPConnLimit, c.RemoteAddr())
				continue
			}
			c = acquirePerIPConn(c, ip, &s.perIPConnCounter)
		}
		if s.MinReadThroughputKbps > 0 || s.MinWriteThroughputKbps > 0 {
			c = wrapSlowlorisCheck(s, c, s.MinReadThroughputKbps, s.MinWriteThroughputKbps)
		}
		if s.Trace != nil && s.Trace.GotConn != nil {
			s.Trace.GotConn(c)
		}
		if !wp.Serve(c) {
			c.Close()
			if time.Since(lastOverflowLog) > time.Minute {
				s.logger().Printf("connection rejected: %d concurrent connections already served", s.concurrency())
				lastOverflowLog = time.Now()
			}
		}
	}
}

// serveConn drives one accepted connection to completion: repeatedly read
// a request, invoke Handler, write the response, until the Conn's
// Reading/Writing pair both reach Closed.
func (s *Server) serveConn(c net.Conn) error {
	opts := []Option{WithKeepAlive(!s.DisableKeepAlive)}
	if s.MaxHeadBytes > 0 {
		opts = append(opts, WithMaxHeadBytes(s.MaxHeadBytes))
	}
	if sc, ok := c.(*slowlorisCheck); ok {
		readStop := sc.Monitor(false)
		writeStop := sc.Monitor(true)
		defer close(readStop)
		defer close(writeStop)
	}

	conn := New(NewNetTransport(c), RoleServer, opts...)
	defer conn.Release()
	if s.Trace != nil && s.Trace.ClosedConn != nil {
		defer s.Trace.ClosedConn(c)
	}

	first := true
	for {
		if s.ReadTimeout > 0 {
			c.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		}
		req, err := s.readRequest(conn)
		if err != nil {
			return err
		}
		if req == nil {
			return nil
		}
		if s.Trace != nil {
			if first && s.Trace.ActivatedConn != nil {
				s.Trace.ActivatedConn(c)
			}
			if s.Trace.GotRequest != nil {
				s.Trace.GotRequest(req)
			}
		}
		first = false

		resp := s.Handler(req)
		if resp == nil {
			resp = NewResponse()
		}

		if s.WriteTimeout > 0 {
			c.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
		}
		werr := s.writeResponse(conn, resp)
		if s.Trace != nil && s.Trace.WroteResponse != nil {
			s.Trace.WroteResponse(resp, werr)
		}
		if werr != nil {
			return werr
		}
		if conn.IsClosed() {
			return nil
		}
		if s.Trace != nil && s.Trace.IdledConn != nil {
			s.Trace.IdledConn(c)
		}
	}
}

// readRequest drains one Read cycle into a Request. It returns (nil, nil)
// once the connection reaches Done with no further request pending.
func (s *Server) readRequest(conn *Conn) (*Request, error) {
	f, err := conn.Read()
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case FrameDone:
		return nil, nil
	case FrameError:
		return nil, f.Err
	}

	req := requestFromHead(f.Head)
	if !f.HasBody {
		return req, nil
	}
	for {
		bf, err := conn.Read()
		if err != nil {
			return nil, err
		}
		if bf.Kind == FrameError {
			return nil, bf.Err
		}
		if bf.Chunk == nil {
			return req, nil
		}
		req.Body = append(req.Body, bf.Chunk...)
	}
}

func (s *Server) writeResponse(conn *Conn, resp *Response) error {
	mh := resp.messageHead(conn.txVersion)
	hasBody := len(resp.Body) > 0
	if err := conn.Write(MessageFrame(mh, hasBody)); err != nil {
		return err
	}
	if hasBody {
		if err := conn.Write(BodyFrame(resp.Body)); err != nil {
			return err
		}
		if err := conn.Write(BodyFrame(nil)); err != nil {
			return err
		}
	}
	for {
		if ferr := conn.Flush(); ferr == nil {
			return nil
		} else if !errors.Is(ferr, ErrWouldBlock) {
			return ferr
		}
	}
}
