// Package httpcore drives a byte-stream Transport as a sequence of HTTP/1.x
// request/response transactions: incremental head parsing, body framing
// selection, and the half-duplex Reading/Writing connection lifecycle,
// reported to an external scheduler via the three-way Ready/NotReady/Err
// contract instead of blocking I/O.
package httpcore

import (
	"errors"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/yourusername/httpcore/body"
	"github.com/yourusername/httpcore/buffer"
	"github.com/yourusername/httpcore/head"
)

// Role selects which side of the transaction pair a Conn plays: a Server
// Conn reads requests and writes responses; a Client Conn writes requests
// and reads responses.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

type readingState int

const (
	readingInit readingState = iota
	readingBody
	readingKeepAlive
	readingClosed
)

type writingState int

const (
	writingInit writingState = iota
	writingBody
	writingKeepAlive
	writingClosed
)

// readChunkSize is how many bytes of headroom Conn reserves per transport
// Read attempt while filling its read buffer.
const readChunkSize = 4096

// Option configures a Conn at construction time.
type Option func(*Conn)

// WithKeepAlive enables or disables persistent connections; disabling it
// forces every transaction to close the connection once its body
// completes, matching spec.md §4.4's "keep-alive disabled" case.
func WithKeepAlive(enabled bool) Option {
	return func(c *Conn) { c.keepAliveEnabled = enabled }
}

// WithMaxHeadBytes bounds the size of a single request/status line plus
// headers; exceeding it surfaces as a Parse-class Frame::Error.
func WithMaxHeadBytes(n int) Option {
	return func(c *Conn) { c.maxHeadBytes = n }
}

// WithWriteBufferCeiling bounds how many bytes of unflushed response data
// Conn will buffer before Write starts failing.
func WithWriteBufferCeiling(n int) Option {
	return func(c *Conn) { c.writeBufferCeiling = n }
}

// Conn drives transport as a half-duplex sequence of HTTP/1.x
// transactions. It is not safe for concurrent use: the owning scheduler
// must serialize calls to Read, Write, Flush, PollRead, and PollWrite.
type Conn struct {
	transport Transport
	role      Role

	readBuf  *buffer.ByteBuffer
	writeBuf *buffer.ByteBuffer

	reading readingState
	writing writingState

	decoder *body.Decoder
	encoder *body.Encoder

	keepAliveEnabled   bool
	maxHeadBytes       int
	writeBufferCeiling int

	// Transaction state carried between the read and write halves so each
	// can make framing and persistence decisions that depend on the
	// other: the request's method/version/headers for a Server Conn, or
	// the just-sent request's for a Client Conn.
	txVersion       head.Version
	txMethod        string
	txRequestHeads  head.Header
	pendingMsgHeads head.Header

	// UserData lets a Handler stash values that outlive one request but
	// not the connection (e.g. auth state negotiated on an earlier
	// pipelined request).
	UserData userData
}

// New constructs a Conn bound to transport in the given role.
func New(transport Transport, role Role, opts ...Option) *Conn {
	c := &Conn{
		transport:          transport,
		role:               role,
		keepAliveEnabled:   true,
		maxHeadBytes:       buffer.DefaultCeiling,
		writeBufferCeiling: buffer.DefaultCeiling,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.readBuf = buffer.New(c.maxHeadBytes)
	c.writeBuf = buffer.New(c.writeBufferCeiling)
	return c
}

// Release returns the Conn's internal buffers to their pool. Call once the
// connection is fully closed and will never be used again.
func (c *Conn) Release() {
	c.readBuf.Release()
	c.writeBuf.Release()
	c.UserData.Reset()
}

// IsClosed reports whether both the reading and writing halves have
// reached their terminal state; the Transport may be safely closed.
func (c *Conn) IsClosed() bool {
	return c.reading == readingClosed && c.writing == writingClosed
}

// PollRead reports whether a Read call is expected to make progress
// without blocking.
func (c *Conn) PollRead() bool {
	if c.reading == readingClosed {
		return true
	}
	return c.transport.PollRead()
}

// PollWrite reports whether a Write/Flush call is expected to make
// progress without blocking. Per the spec's redesign of this connection's
// original behavior, it consults the transport's real write-readiness
// rather than unconditionally reporting ready.
func (c *Conn) PollWrite() bool {
	if c.writing == writingClosed {
		return true
	}
	return c.transport.PollWrite()
}

func (c *Conn) closeBoth() {
	c.reading = readingClosed
	c.writing = writingClosed
}

// Read attempts to produce the next Frame. It returns (frame, nil) on
// Ready, (Frame{}, ErrWouldBlock) on NotReady, or (Frame{}, err) for a
// synchronous I/O failure. Parse and framing failures are not returned as
// errors here; they are delivered as a FrameError frame followed, on the
// next call, by FrameDone.
func (c *Conn) Read() (Frame, error) {
	if c.IsClosed() {
		return DoneFrame(), nil
	}

	switch c.reading {
	case readingInit:
		return c.readHead()
	case readingBody:
		return c.readBody()
	case readingKeepAlive:
		c.reading = readingInit
		return c.readHead()
	default: // readingClosed
		return DoneFrame(), nil
	}
}

// fillReadBuffer attempts one non-blocking transport Read into readBuf.
func (c *Conn) fillReadBuffer() (wouldBlock, eof bool, err *Error) {
	if rerr := c.readBuf.Reserve(readChunkSize); rerr != nil {
		return false, false, newError(ErrKindParse, rerr)
	}
	n, terr := c.transport.Read(c.readBuf.Writable())
	if terr != nil {
		if errors.Is(terr, ErrWouldBlock) {
			return true, false, nil
		}
		return false, false, newError(ErrKindIO, terr)
	}
	if n == 0 {
		return false, true, nil
	}
	c.readBuf.Commit(n)
	return false, false, nil
}

func (c *Conn) readHead() (Frame, error) {
	for {
		mhead, consumed, perr := c.parseHead()
		if perr == nil {
			c.readBuf.Consume(consumed)
			return c.installReadingBody(mhead)
		}
		if !errors.Is(perr, head.ErrNeedMore) {
			kind := ErrKindParse
			if errors.Is(perr, head.ErrUnsupportedVersion) {
				kind = ErrKindVersion
			}
			c.closeBoth()
			return ErrorFrame(newError(kind, perr)), nil
		}

		wouldBlock, eof, ferr := c.fillReadBuffer()
		if ferr != nil {
			c.closeBoth()
			return ErrorFrame(ferr), nil
		}
		if wouldBlock {
			return Frame{}, ErrWouldBlock
		}
		if eof {
			c.readBuf.ConsumeLeadingEmptyLines()
			c.closeBoth()
			if !c.readBuf.IsEmpty() {
				return ErrorFrame(newError(ErrKindParse, errors.New("httpcore: connection closed mid-head"))), nil
			}
			return DoneFrame(), nil
		}
		// More bytes arrived; loop and retry the parse.
	}
}

func (c *Conn) parseHead() (*MessageHead, int, error) {
	switch c.role {
	case RoleServer:
		rh, n, err := head.ParseRequestHead(c.readBuf.Readable())
		if err != nil {
			return nil, 0, err
		}
		return requestMessageHead(rh), n, nil
	default: // RoleClient
		rh, n, err := head.ParseResponseHead(c.readBuf.Readable())
		if err != nil {
			return nil, 0, err
		}
		return responseMessageHead(rh), n, nil
	}
}

func (c *Conn) installReadingBody(mhead *MessageHead) (Frame, error) {
	var decoder *body.Decoder
	var ferr *Error

	switch c.role {
	case RoleServer:
		decoder, ferr = selectIncomingRequestDecoder(&mhead.Headers)
		if ferr == nil {
			c.txVersion = mhead.Version
			c.txMethod = mhead.Method
			c.txRequestHeads = mhead.Headers
			applyConnectionSignal(&c.keepAliveEnabled, mhead.Headers, mhead.Version)
		}
	default: // RoleClient
		decoder, ferr = selectIncomingResponseDecoder(c.txMethod, mhead.StatusCode, &mhead.Headers)
		if ferr == nil {
			persistent := determinePersistence(c.txVersion, &c.txRequestHeads, &mhead.Headers, c.keepAliveEnabled, false)
			c.keepAliveEnabled = persistent
		}
	}

	if ferr != nil {
		c.closeBoth()
		return ErrorFrame(ferr), nil
	}

	if decoder.Kind == body.DecodeEmpty {
		c.reading = readingKeepAlive
		return MessageFrame(mhead, false), nil
	}

	c.decoder = decoder
	c.reading = readingBody
	return MessageFrame(mhead, true), nil
}

func (c *Conn) readBody() (Frame, error) {
	dst := make([]byte, readChunkSize)
	for {
		n, status, derr := c.decoder.Decode(c.readBuf, dst)
		if derr != nil {
			c.closeBoth()
			return ErrorFrame(newError(ErrKindFraming, derr)), nil
		}
		if n > 0 {
			return BodyFrame(append([]byte(nil), dst[:n]...)), nil
		}
		switch status {
		case body.StatusDone:
			c.reading = readingKeepAlive
			return BodyFrame(nil), nil
		case body.StatusProgress:
			continue
		default: // StatusNeedMore
			wouldBlock, eof, ferr := c.fillReadBuffer()
			if ferr != nil {
				c.closeBoth()
				return ErrorFrame(ferr), nil
			}
			if wouldBlock {
				return Frame{}, ErrWouldBlock
			}
			if eof {
				if c.decoder.Kind == body.DecodeEOF {
					c.decoder.NotifyEOF()
					continue
				}
				c.closeBoth()
				return ErrorFrame(newError(ErrKindIO, errors.New("httpcore: connection closed mid-body"))), nil
			}
			// More bytes arrived; retry decode.
		}
	}
}

// Write stages f into the connection's write buffer. It returns ErrClosed
// if writing has already reached its terminal state, or an InvalidInput
// or Framing error for a frame illegal in the current writing state.
// Staged bytes are not sent until Flush is called.
func (c *Conn) Write(f Frame) *Error {
	if c.writing == writingClosed {
		return ErrClosed
	}
	switch f.Kind {
	case FrameMessage:
		return c.writeMessage(f)
	case FrameBody:
		return c.writeBody(f)
	default:
		return newError(ErrKindInvalidInput, errors.New("httpcore: invalid frame kind for Write"))
	}
}

func (c *Conn) writeMessage(f Frame) *Error {
	if c.writing != writingInit && c.writing != writingKeepAlive {
		return newError(ErrKindInvalidInput, errors.New("httpcore: unexpected message frame mid-body"))
	}
	if f.Head == nil {
		return newError(ErrKindInvalidInput, errors.New("httpcore: message frame missing head"))
	}
	h := f.Head

	hasBody := f.HasBody
	peerVersion := c.txVersion
	if c.role == RoleServer {
		if h.Kind != HeadResponse {
			return newError(ErrKindInvalidInput, errors.New("httpcore: server Conn must write a response head"))
		}
		if isBodylessResponse(c.txMethod, h.StatusCode) {
			hasBody = false
		}
	} else {
		if h.Kind != HeadRequest {
			return newError(ErrKindInvalidInput, errors.New("httpcore: client Conn must write a request head"))
		}
		peerVersion = h.Version
		c.txVersion = h.Version
		c.txMethod = h.Method
		c.txRequestHeads = h.Headers
	}

	enc, ferr := selectOutgoingEncoder(&h.Headers, peerVersion, hasBody)
	if ferr != nil {
		c.closeBoth()
		return ferr
	}
	if enc.ForcesClose() {
		c.keepAliveEnabled = false
	}
	if c.role == RoleServer {
		applyConnectionSignal(&c.keepAliveEnabled, h.Headers, c.txVersion)
	}

	if err := c.renderHead(h); err != nil {
		c.closeBoth()
		return newError(ErrKindIO, err)
	}

	c.encoder = enc
	c.pendingMsgHeads = h.Headers

	if !hasBody {
		if err := enc.EndBody(c.writeBuf); err != nil {
			return newError(ErrKindInvalidInput, err)
		}
		c.finishWrite()
		return nil
	}

	c.writing = writingBody
	return nil
}

func (c *Conn) writeBody(f Frame) *Error {
	if c.writing != writingBody {
		return newError(ErrKindInvalidInput, errors.New("httpcore: unexpected body frame outside a body"))
	}
	if f.Chunk == nil {
		if err := c.encoder.EndBody(c.writeBuf); err != nil {
			return newError(ErrKindInvalidInput, err)
		}
		c.finishWrite()
		return nil
	}
	if err := c.encoder.WriteChunk(c.writeBuf, f.Chunk); err != nil {
		return newError(ErrKindInvalidInput, err)
	}
	return nil
}

// finishWrite decides, now that one full message has been written, whether
// the connection persists or closes, and applies that decision to both
// halves per spec.md §4.4's FIFO pipelining guarantee: Writing only
// re-enters Init on the next Message frame, so nothing reorders responses.
func (c *Conn) finishWrite() {
	persistent := determinePersistence(c.txVersion, &c.txRequestHeads, &c.pendingMsgHeads, c.keepAliveEnabled, c.encoder.ForcesClose())
	if persistent {
		c.writing = writingKeepAlive
		return
	}
	c.writing = writingClosed
	if c.reading == readingKeepAlive {
		c.reading = readingClosed
	}
}

// renderHead serializes h onto writeBuf as a request-line or status-line
// followed by headers and the terminating blank line. Header names, stored
// in lowercase, are written in canonical MIME form (e.g. "Content-Length").
func (c *Conn) renderHead(h *MessageHead) error {
	var line string
	if h.Kind == HeadRequest {
		line = h.Method + " " + h.Target + " " + h.Version.String() + "\r\n"
	} else {
		line = h.Version.String() + " " + statusText(h.StatusCode, h.Reason) + "\r\n"
	}
	if err := appendString(c.writeBuf, line); err != nil {
		return err
	}
	var werr error
	h.Headers.Each(func(name, value string) {
		if werr != nil {
			return
		}
		werr = appendString(c.writeBuf, textproto.CanonicalMIMEHeaderKey(name)+": "+value+"\r\n")
	})
	if werr != nil {
		return werr
	}
	return appendString(c.writeBuf, "\r\n")
}

func appendString(w *buffer.ByteBuffer, s string) error {
	if err := w.Reserve(len(s)); err != nil {
		return err
	}
	n := copy(w.Writable(), s)
	w.Commit(n)
	return nil
}

func statusText(code int, reason string) string {
	if reason == "" {
		return strconv.Itoa(code)
	}
	return strconv.Itoa(code) + " " + reason
}

// Flush pushes buffered, rendered bytes to the transport. It returns
// ErrWouldBlock if the transport cannot accept more right now; the caller
// must retry once the scheduler reports write-readiness again.
func (c *Conn) Flush() error {
	for !c.writeBuf.IsEmpty() {
		n, err := c.transport.Write(c.writeBuf.Readable())
		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				return ErrWouldBlock
			}
			c.closeBoth()
			return newError(ErrKindIO, err)
		}
		c.writeBuf.Consume(n)
	}
	if err := c.transport.Flush(); err != nil {
		if errors.Is(err, ErrWouldBlock) {
			return ErrWouldBlock
		}
		c.closeBoth()
		return newError(ErrKindIO, err)
	}
	return nil
}

// isBodylessResponse reports whether a response to reqMethod with the given
// status code must never carry a body regardless of the caller's intent,
// per spec.md §4.3's incoming-response exceptions applied symmetrically to
// what this side writes.
func isBodylessResponse(reqMethod string, statusCode int) bool {
	if strings.EqualFold(reqMethod, "HEAD") {
		return true
	}
	if statusCode == 204 || statusCode == 304 {
		return true
	}
	return statusCode >= 100 && statusCode < 200
}

// applyConnectionSignal downgrades *keepAlive to false the moment either
// side's own headers rule out persistence, and never upgrades it; this
// implements spec.md §4.4's two-sided AND (HTTP/1.0) and either-side-wins
// (HTTP/1.1 "close") rules incrementally as each head is seen.
func applyConnectionSignal(keepAlive *bool, headers head.Header, version head.Version) {
	if hasConnectionToken(&headers, "close") {
		*keepAlive = false
		return
	}
	if version == head.HTTP10 && !hasConnectionToken(&headers, "keep-alive") {
		*keepAlive = false
	}
}
