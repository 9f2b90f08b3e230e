package buffer

import (
	"bytes"
	"testing"
)

func TestReserveWritableCommit(t *testing.T) {
	b := New(0)
	defer b.Release()

	if err := b.Reserve(16); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	w := b.Writable()
	if len(w) < 16 {
		t.Fatalf("Writable returned %d bytes, want >= 16", len(w))
	}
	n := copy(w, []byte("hello world"))
	b.Commit(n)

	if got := string(b.Readable()); got != "hello world" {
		t.Fatalf("Readable() = %q, want %q", got, "hello world")
	}
	if b.Len() != len("hello world") {
		t.Fatalf("Len() = %d", b.Len())
	}
}

func TestConsume(t *testing.T) {
	b := New(0)
	defer b.Release()

	b.Reserve(8)
	n := copy(b.Writable(), "abcdefgh")
	b.Commit(n)

	b.Consume(3)
	if got := string(b.Readable()); got != "defgh" {
		t.Fatalf("Readable() = %q", got)
	}
	if b.IsEmpty() {
		t.Fatalf("IsEmpty() = true, want false")
	}

	b.Consume(5)
	if !b.IsEmpty() {
		t.Fatalf("IsEmpty() = false, want true")
	}
}

func TestConsumeOutOfRangePanics(t *testing.T) {
	b := New(0)
	defer b.Release()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic consuming beyond readable region")
		}
	}()
	b.Consume(1)
}

func TestCompactionReclaimsSpace(t *testing.T) {
	b := New(0)
	defer b.Release()

	b.Reserve(DefaultInitialCapacity)
	n := copy(b.Writable(), bytes.Repeat([]byte{'x'}, DefaultInitialCapacity))
	b.Commit(n)

	// Consume more than half the buffer so the next Reserve compacts
	// instead of growing.
	b.Consume(DefaultInitialCapacity - 4)
	capBefore := b.Cap()

	if err := b.Reserve(DefaultInitialCapacity - 16); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if b.Cap() != capBefore {
		t.Fatalf("Reserve grew the buffer (cap %d -> %d) when compaction should have sufficed", capBefore, b.Cap())
	}
}

func TestReserveBeyondCeilingFails(t *testing.T) {
	b := New(64)
	defer b.Release()

	if err := b.Reserve(32); err != nil {
		t.Fatalf("Reserve(32): %v", err)
	}
	n := copy(b.Writable(), bytes.Repeat([]byte{'y'}, 32))
	b.Commit(n)

	if err := b.Reserve(1024); err != ErrTooLarge {
		t.Fatalf("Reserve(1024) = %v, want ErrTooLarge", err)
	}
}

func TestConsumeLeadingEmptyLines(t *testing.T) {
	b := New(0)
	defer b.Release()

	b.Reserve(64)
	n := copy(b.Writable(), "\r\n\r\nGET / HTTP/1.1\r\n\r\n")
	b.Commit(n)

	skipped := b.ConsumeLeadingEmptyLines()
	if skipped != 4 {
		t.Fatalf("ConsumeLeadingEmptyLines() = %d, want 4", skipped)
	}
	if !bytes.HasPrefix(b.Readable(), []byte("GET ")) {
		t.Fatalf("Readable() = %q", b.Readable())
	}
}

func TestResetDiscardsBytes(t *testing.T) {
	b := New(0)
	defer b.Release()

	b.Reserve(8)
	n := copy(b.Writable(), "deadbeef")
	b.Commit(n)
	b.Consume(4)

	b.Reset()
	if !b.IsEmpty() {
		t.Fatalf("IsEmpty() = false after Reset")
	}
	if b.Len() != 0 {
		t.Fatalf("Len() = %d after Reset", b.Len())
	}
}
