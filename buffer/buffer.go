// Package buffer implements the growable, read-once FIFO byte region that
// the head parser and body codecs operate over with zero-copy views.
package buffer

import (
	"errors"

	"github.com/valyala/bytebufferpool"
)

// ErrTooLarge is returned by Reserve when growing the buffer would exceed
// its configured ceiling.
var ErrTooLarge = errors.New("buffer: would exceed capacity ceiling")

// DefaultInitialCapacity is the starting capacity for a new ByteBuffer.
const DefaultInitialCapacity = 8 * 1024

// DefaultCeiling is the default growth ceiling before Reserve fails.
const DefaultCeiling = 1024 * 1024

var pool bytebufferpool.Pool

// ByteBuffer is a growable FIFO byte region with a read cursor and a write
// cursor. Bytes in [0, readCursor) have been consumed and may be reused by
// compaction; bytes in [readCursor, writeCursor) are readable; bytes in
// [writeCursor, cap) are free space available to Writable/Commit.
//
// readCursor <= writeCursor <= cap(backing) always holds.
type ByteBuffer struct {
	backing *bytebufferpool.ByteBuffer
	r       int // read cursor
	ceiling int // growth ceiling in bytes; 0 means DefaultCeiling
}

// New returns a ByteBuffer backed by a pooled allocation. ceiling of 0
// selects DefaultCeiling.
func New(ceiling int) *ByteBuffer {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &ByteBuffer{
		backing: pool.Get(),
		ceiling: ceiling,
	}
}

// Release returns the backing allocation to the pool. The ByteBuffer must
// not be used afterward.
func (b *ByteBuffer) Release() {
	b.backing.Reset()
	pool.Put(b.backing)
	b.backing = nil
	b.r = 0
}

// Readable returns the unconsumed portion of the buffer. The returned slice
// is a view into the buffer's backing array and is invalidated by the next
// Reserve/Commit/Consume call that triggers compaction or growth.
func (b *ByteBuffer) Readable() []byte {
	return b.backing.B[b.r:]
}

// Len returns the number of unconsumed, readable bytes.
func (b *ByteBuffer) Len() int {
	return len(b.backing.B) - b.r
}

// IsEmpty reports whether there are no readable bytes.
func (b *ByteBuffer) IsEmpty() bool {
	return b.Len() == 0
}

// Cap returns the total capacity of the backing array.
func (b *ByteBuffer) Cap() int {
	return cap(b.backing.B)
}

// Consume advances the read cursor by n bytes. It panics if n exceeds the
// number of readable bytes, matching the invariant that the parser never
// re-observes consumed bytes.
func (b *ByteBuffer) Consume(n int) {
	if n < 0 || n > b.Len() {
		panic("buffer: Consume out of range")
	}
	b.r += n
	if b.r == len(b.backing.B) {
		// Nothing left to read: reset both cursors to the front so the
		// next Reserve never needs to compact or grow needlessly.
		b.backing.B = b.backing.B[:0]
		b.r = 0
	}
}

// ConsumeLeadingEmptyLines skips a run of CR/LF bytes at the front of the
// readable region (RFC 7230 §3.5 tolerance for stray blank lines between
// pipelined messages) and returns how many bytes were skipped.
func (b *ByteBuffer) ConsumeLeadingEmptyLines() int {
	buf := b.Readable()
	i := 0
	for i < len(buf) && (buf[i] == '\r' || buf[i] == '\n') {
		i++
	}
	if i > 0 {
		b.Consume(i)
	}
	return i
}

// Reserve ensures at least n bytes of free space are available to Writable,
// compacting the buffer (sliding readable bytes to the front) and/or
// doubling its capacity as needed. It fails with ErrTooLarge if satisfying
// the request would make the buffer span more than the configured ceiling,
// even when a reused backing array already has that much spare capacity.
func (b *ByteBuffer) Reserve(n int) error {
	free := cap(b.backing.B) - len(b.backing.B)
	if free >= n && len(b.backing.B)+n <= b.ceiling {
		return nil
	}

	// Compaction: reclaim space occupied by already-consumed bytes before
	// considering growth, but only once the consumed region is worth it.
	if b.r > cap(b.backing.B)/2 {
		b.compact()
		free = cap(b.backing.B) - len(b.backing.B)
		if free >= n && len(b.backing.B)+n <= b.ceiling {
			return nil
		}
	}

	needed := len(b.backing.B) + n
	if needed > b.ceiling {
		return ErrTooLarge
	}
	newCap := cap(b.backing.B)
	if newCap == 0 {
		newCap = DefaultInitialCapacity
	}
	for newCap < needed {
		newCap *= 2
	}
	if newCap > b.ceiling {
		newCap = b.ceiling
	}

	grown := make([]byte, len(b.backing.B), newCap)
	copy(grown, b.backing.B)
	b.backing.B = grown
	return nil
}

// compact slides the readable region to the front of the backing array,
// discarding already-consumed bytes without allocating.
func (b *ByteBuffer) compact() {
	if b.r == 0 {
		return
	}
	n := copy(b.backing.B, b.backing.B[b.r:])
	b.backing.B = b.backing.B[:n]
	b.r = 0
}

// Writable returns the free tail of the backing array for the caller to
// fill (e.g. via a transport Read call). Call Commit afterward with the
// number of bytes actually written.
func (b *ByteBuffer) Writable() []byte {
	full := b.backing.B[:cap(b.backing.B)]
	return full[len(b.backing.B):]
}

// Commit advances the write cursor by n bytes after the caller has filled
// the slice returned by Writable.
func (b *ByteBuffer) Commit(n int) {
	if n < 0 || len(b.backing.B)+n > cap(b.backing.B) {
		panic("buffer: Commit out of range")
	}
	b.backing.B = b.backing.B[:len(b.backing.B)+n]
}

// Reset discards all buffered bytes without releasing the backing
// allocation back to the pool.
func (b *ByteBuffer) Reset() {
	b.backing.B = b.backing.B[:0]
	b.r = 0
}
