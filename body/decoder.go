// Package body implements the HTTP/1.x body framing state machines: the
// Decoder variant set for inbound messages and the Encoder variant set for
// outbound ones. Both are modeled as tagged unions (spec.md §9) rather than
// interface-dispatched types, so they stay allocation-free and trivially
// inspectable.
package body

import (
	"errors"

	"github.com/yourusername/httpcore/buffer"
)

// ErrBadChunk signals a malformed chunked-encoding byte sequence.
var ErrBadChunk = errors.New("body: invalid chunk encoding")

// Status is the three-way result of a Decoder.Decode call, mirroring
// spec.md §4.3's `Ok(n_emitted) | NeedMore | Done | Err` contract (Err is
// returned out-of-band as the error return).
type Status int

const (
	// StatusProgress means n bytes (possibly zero only on the very first
	// call of a chunk) were copied into the caller's buffer; more body may
	// follow.
	StatusProgress Status = iota
	// StatusNeedMore means no further bytes can be produced without more
	// input from the transport.
	StatusNeedMore
	// StatusDone means the body is fully decoded; n is always 0.
	StatusDone
)

// DecoderKind tags which of the four body-framing strategies a Decoder
// implements.
type DecoderKind int

const (
	DecodeLength DecoderKind = iota
	DecodeChunked
	DecodeEOF
	DecodeEmpty
)

type chunkSubstate int

const (
	chunkSize chunkSubstate = iota
	chunkExt
	chunkSizeLF
	chunkBody
	chunkBodyCR
	chunkBodyLF
	chunkTrailer
	chunkDone
)

// maxChunkSizeDigits bounds a chunk-size line to at most 16 hex digits, so
// the parsed size always fits in a uint64.
const maxChunkSizeDigits = 16

// Decoder is a tagged-union body decoder selected from an incoming
// message's headers per spec.md §4.3's framing-selection rules.
type Decoder struct {
	Kind DecoderKind

	// Length
	remaining uint64

	// Eof
	eofReached bool

	// Chunked
	sub        chunkSubstate
	sizeAcc    uint64
	sizeDigits int
	trailerLen int
}

// NewLengthDecoder returns a decoder that delivers exactly n further bytes.
func NewLengthDecoder(n uint64) *Decoder {
	return &Decoder{Kind: DecodeLength, remaining: n}
}

// NewChunkedDecoder returns a decoder that parses RFC 7230 chunked framing.
func NewChunkedDecoder() *Decoder {
	return &Decoder{Kind: DecodeChunked, sub: chunkSize}
}

// NewEOFDecoder returns a decoder that consumes bytes until transport EOF.
// The caller must call NotifyEOF once the transport reports a clean EOF.
func NewEOFDecoder() *Decoder {
	return &Decoder{Kind: DecodeEOF}
}

// NewEmptyDecoder returns a decoder for a message with no body.
func NewEmptyDecoder() *Decoder {
	return &Decoder{Kind: DecodeEmpty}
}

// NotifyEOF tells an Eof decoder that the transport has reached a clean
// end-of-stream; subsequent Decode calls return StatusDone once the
// buffered bytes are drained.
func (d *Decoder) NotifyEOF() {
	d.eofReached = true
}

// Decode drains as many body bytes as fit in dst from buf, advancing buf's
// read cursor by exactly the bytes consumed. It never writes more bytes
// into dst than len(dst).
func (d *Decoder) Decode(buf *buffer.ByteBuffer, dst []byte) (n int, status Status, err error) {
	switch d.Kind {
	case DecodeEmpty:
		return 0, StatusDone, nil
	case DecodeLength:
		return d.decodeLength(buf, dst)
	case DecodeEOF:
		return d.decodeEOF(buf, dst)
	case DecodeChunked:
		return d.decodeChunked(buf, dst)
	default:
		panic("body: invalid decoder kind")
	}
}

func (d *Decoder) decodeLength(buf *buffer.ByteBuffer, dst []byte) (int, Status, error) {
	if d.remaining == 0 {
		return 0, StatusDone, nil
	}
	avail := buf.Readable()
	if len(avail) == 0 {
		return 0, StatusNeedMore, nil
	}
	n := len(dst)
	if uint64(n) > d.remaining {
		n = int(d.remaining)
	}
	if n > len(avail) {
		n = len(avail)
	}
	copy(dst[:n], avail[:n])
	buf.Consume(n)
	d.remaining -= uint64(n)
	return n, StatusProgress, nil
}

func (d *Decoder) decodeEOF(buf *buffer.ByteBuffer, dst []byte) (int, Status, error) {
	avail := buf.Readable()
	if len(avail) == 0 {
		if d.eofReached {
			return 0, StatusDone, nil
		}
		return 0, StatusNeedMore, nil
	}
	n := len(dst)
	if n > len(avail) {
		n = len(avail)
	}
	copy(dst[:n], avail[:n])
	buf.Consume(n)
	return n, StatusProgress, nil
}

func (d *Decoder) decodeChunked(buf *buffer.ByteBuffer, dst []byte) (int, Status, error) {
	emitted := 0

	for {
		if d.sub == chunkDone {
			if emitted > 0 {
				return emitted, StatusProgress, nil
			}
			return 0, StatusDone, nil
		}

		if d.sub == chunkBody {
			if d.sizeAcc == 0 {
				d.sub = chunkBodyCR
				continue
			}
			avail := buf.Readable()
			if len(avail) == 0 {
				if emitted > 0 {
					return emitted, StatusProgress, nil
				}
				return 0, StatusNeedMore, nil
			}
			room := len(dst) - emitted
			if room <= 0 {
				return emitted, StatusProgress, nil
			}
			n := room
			if uint64(n) > d.sizeAcc {
				n = int(d.sizeAcc)
			}
			if n > len(avail) {
				n = len(avail)
			}
			copy(dst[emitted:emitted+n], avail[:n])
			buf.Consume(n)
			d.sizeAcc -= uint64(n)
			emitted += n
			continue
		}

		avail := buf.Readable()
		if len(avail) == 0 {
			if emitted > 0 {
				return emitted, StatusProgress, nil
			}
			return 0, StatusNeedMore, nil
		}
		b := avail[0]
		buf.Consume(1)

		switch d.sub {
		case chunkSize:
			switch {
			case b >= '0' && b <= '9':
				d.sizeAcc = d.sizeAcc<<4 | uint64(b-'0')
				d.sizeDigits++
			case b >= 'a' && b <= 'f':
				d.sizeAcc = d.sizeAcc<<4 | uint64(b-'a'+10)
				d.sizeDigits++
			case b >= 'A' && b <= 'F':
				d.sizeAcc = d.sizeAcc<<4 | uint64(b-'A'+10)
				d.sizeDigits++
			case b == ';':
				d.sub = chunkExt
			case b == '\r':
				d.sub = chunkSizeLF
			case b == '\n':
				d.onSizeLineComplete()
			default:
				return emitted, StatusProgress, ErrBadChunk
			}
			if d.sizeDigits > maxChunkSizeDigits {
				return emitted, StatusProgress, ErrBadChunk
			}
		case chunkExt:
			switch b {
			case '\r':
				d.sub = chunkSizeLF
			case '\n':
				d.onSizeLineComplete()
			default:
				// chunk-extensions are silently skipped to end-of-line.
			}
		case chunkSizeLF:
			if b != '\n' {
				return emitted, StatusProgress, ErrBadChunk
			}
			d.onSizeLineComplete()
		case chunkBodyCR:
			if b != '\r' {
				return emitted, StatusProgress, ErrBadChunk
			}
			d.sub = chunkBodyLF
		case chunkBodyLF:
			if b != '\n' {
				return emitted, StatusProgress, ErrBadChunk
			}
			d.sub = chunkSize
			d.sizeAcc = 0
			d.sizeDigits = 0
		case chunkTrailer:
			if b == '\n' {
				if d.trailerLen == 0 {
					d.sub = chunkDone
				} else {
					d.trailerLen = 0
				}
			} else if b != '\r' {
				d.trailerLen++
			}
		}
	}
}

// onSizeLineComplete transitions out of the chunk-size line (which may have
// included chunk-extensions) once its terminating CRLF/LF has been seen.
func (d *Decoder) onSizeLineComplete() {
	if d.sizeAcc == 0 {
		d.sub = chunkTrailer
		d.trailerLen = 0
	} else {
		d.sub = chunkBody
	}
}
