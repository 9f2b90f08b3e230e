package body

import (
	"testing"

	"github.com/yourusername/httpcore/buffer"
)

func TestLengthEncoder(t *testing.T) {
	w := buffer.New(0)
	defer w.Release()

	e := NewLengthEncoder(11)
	if err := e.WriteChunk(w, []byte("foo bar baz")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if err := e.EndBody(w); err != nil {
		t.Fatalf("EndBody: %v", err)
	}
	if got := string(w.Readable()); got != "foo bar baz" {
		t.Fatalf("wire = %q", got)
	}
}

func TestLengthEncoderRejectsExcess(t *testing.T) {
	w := buffer.New(0)
	defer w.Release()

	e := NewLengthEncoder(3)
	if err := e.WriteChunk(w, []byte("toolong")); err != ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestLengthEncoderRejectsShortEnd(t *testing.T) {
	w := buffer.New(0)
	defer w.Release()

	e := NewLengthEncoder(5)
	e.WriteChunk(w, []byte("ab"))
	if err := e.EndBody(w); err != ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestChunkedEncoder(t *testing.T) {
	w := buffer.New(0)
	defer w.Release()

	e := NewChunkedEncoder()
	if err := e.WriteChunk(w, []byte("foo bar baz")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if err := e.EndBody(w); err != nil {
		t.Fatalf("EndBody: %v", err)
	}
	want := "B\r\nfoo bar baz\r\n0\r\n\r\n"
	if got := string(w.Readable()); got != want {
		t.Fatalf("wire = %q, want %q", got, want)
	}
}

func TestChunkedEncoderMultipleChunks(t *testing.T) {
	w := buffer.New(0)
	defer w.Release()

	e := NewChunkedEncoder()
	e.WriteChunk(w, []byte("q"))
	e.WriteChunk(w, []byte("we"))
	e.WriteChunk(w, []byte("rt"))
	e.EndBody(w)

	want := "1\r\nq\r\n2\r\nwe\r\n2\r\nrt\r\n0\r\n\r\n"
	if got := string(w.Readable()); got != want {
		t.Fatalf("wire = %q, want %q", got, want)
	}
}

func TestCloseDelimitedEncoder(t *testing.T) {
	w := buffer.New(0)
	defer w.Release()

	e := NewCloseDelimitedEncoder()
	e.WriteChunk(w, []byte("abc"))
	e.WriteChunk(w, []byte("def"))
	if err := e.EndBody(w); err != nil {
		t.Fatalf("EndBody: %v", err)
	}
	if !e.ForcesClose() {
		t.Fatalf("ForcesClose() = false, want true")
	}
	if got := string(w.Readable()); got != "abcdef" {
		t.Fatalf("wire = %q", got)
	}
}
