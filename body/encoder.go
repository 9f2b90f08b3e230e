package body

import (
	"errors"

	"github.com/yourusername/httpcore/buffer"
)

// ErrInvalidInput signals a caller-side framing violation: writing more
// bytes than a Length encoder was given, or ending a Length body short.
var ErrInvalidInput = errors.New("body: invalid input for encoder state")

// EncoderKind tags which of the three outbound body-framing strategies an
// Encoder implements.
type EncoderKind int

const (
	EncodeLength EncoderKind = iota
	EncodeChunked
	EncodeCloseDelimited
)

// Encoder is a tagged-union body encoder selected from an outgoing
// message's (post-normalization) headers per spec.md §4.3.
type Encoder struct {
	Kind EncoderKind

	remaining uint64 // Length
}

// NewLengthEncoder returns an encoder that accepts exactly n more bytes.
func NewLengthEncoder(n uint64) *Encoder {
	return &Encoder{Kind: EncodeLength, remaining: n}
}

// NewChunkedEncoder returns an encoder that frames each write as a chunk.
func NewChunkedEncoder() *Encoder {
	return &Encoder{Kind: EncodeChunked}
}

// NewCloseDelimitedEncoder returns a passthrough encoder whose end-of-body
// forces the connection to close (the caller must honor this; see
// Encoder.ForcesClose).
func NewCloseDelimitedEncoder() *Encoder {
	return &Encoder{Kind: EncodeCloseDelimited}
}

// ForcesClose reports whether this encoder requires the connection to
// close after the body completes, because its length cannot be framed
// without doing so.
func (e *Encoder) ForcesClose() bool {
	return e.Kind == EncodeCloseDelimited
}

// WriteChunk appends one body chunk to w, framing it per the encoder's
// kind. A zero-length data slice is a no-op; use EndBody to terminate.
func (e *Encoder) WriteChunk(w *buffer.ByteBuffer, data []byte) error {
	switch e.Kind {
	case EncodeLength:
		if uint64(len(data)) > e.remaining {
			return ErrInvalidInput
		}
		if err := appendBytes(w, data); err != nil {
			return err
		}
		e.remaining -= uint64(len(data))
		return nil
	case EncodeChunked:
		if len(data) == 0 {
			return nil
		}
		if err := appendBytes(w, hexChunkSizeLine(len(data))); err != nil {
			return err
		}
		if err := appendBytes(w, data); err != nil {
			return err
		}
		return appendBytes(w, crlf)
	case EncodeCloseDelimited:
		return appendBytes(w, data)
	default:
		panic("body: invalid encoder kind")
	}
}

// EndBody finalizes the body: a no-op for Length (provided exactly n bytes
// were written) and CloseDelimited, or the terminal zero-chunk for Chunked.
func (e *Encoder) EndBody(w *buffer.ByteBuffer) error {
	switch e.Kind {
	case EncodeLength:
		if e.remaining != 0 {
			return ErrInvalidInput
		}
		return nil
	case EncodeChunked:
		return appendBytes(w, lastChunk)
	case EncodeCloseDelimited:
		return nil
	default:
		panic("body: invalid encoder kind")
	}
}

var (
	crlf      = []byte("\r\n")
	lastChunk = []byte("0\r\n\r\n")
	hexDigits = []byte("0123456789ABCDEF")
)

// hexChunkSizeLine renders "<hex-len>\r\n" without leading zeros, uppercase
// on emit per spec.md §6 (either case is accepted on parse).
func hexChunkSizeLine(n int) []byte {
	if n == 0 {
		return []byte("0\r\n")
	}
	var tmp [16]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = hexDigits[n&0xf]
		n >>= 4
	}
	out := make([]byte, 0, len(tmp)-i+2)
	out = append(out, tmp[i:]...)
	out = append(out, crlf...)
	return out
}

// appendBytes appends p to w's readable region, growing w as needed.
func appendBytes(w *buffer.ByteBuffer, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := w.Reserve(len(p)); err != nil {
		return err
	}
	n := copy(w.Writable(), p)
	w.Commit(n)
	return nil
}
