package httpcore

import (
	"testing"

	"github.com/yourusername/httpcore/head"
)

// fakeTransport is an in-memory Transport for exercising Conn without a
// real socket. Read yields a clean EOF (0, nil) once in is exhausted;
// blockOnce, if set, makes exactly the next Read report ErrWouldBlock
// first.
type fakeTransport struct {
	in        []byte
	out       []byte
	blockOnce bool
}

func (t *fakeTransport) PollRead() bool  { return true }
func (t *fakeTransport) PollWrite() bool { return true }

func (t *fakeTransport) Read(p []byte) (int, error) {
	if t.blockOnce {
		t.blockOnce = false
		return 0, ErrWouldBlock
	}
	if len(t.in) == 0 {
		return 0, nil
	}
	n := copy(p, t.in)
	t.in = t.in[n:]
	return n, nil
}

func (t *fakeTransport) Write(p []byte) (int, error) {
	t.out = append(t.out, p...)
	return len(p), nil
}

func (t *fakeTransport) Flush() error { return nil }

func newHeader(pairs ...string) head.Header {
	var h head.Header
	for i := 0; i < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}
	return h
}

func mustReadMessage(t *testing.T, c *Conn) Frame {
	t.Helper()
	f, err := c.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.Kind != FrameMessage {
		t.Fatalf("Read kind = %v, want FrameMessage", f.Kind)
	}
	return f
}

func drainBody(t *testing.T, c *Conn) []byte {
	t.Helper()
	var out []byte
	for {
		f, err := c.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if f.Kind != FrameBody {
			t.Fatalf("Read kind = %v, want FrameBody", f.Kind)
		}
		if f.Chunk == nil {
			return out
		}
		out = append(out, f.Chunk...)
	}
}

func TestSimpleGET(t *testing.T) {
	tr := &fakeTransport{in: []byte("GET /foo HTTP/1.1\r\nHost: example.com\r\n\r\n")}
	c := New(tr, RoleServer)

	f := mustReadMessage(t, c)
	if f.Head.Method != "GET" || f.Head.Target != "/foo" {
		t.Fatalf("head = %+v", f.Head)
	}
	if f.HasBody {
		t.Fatalf("HasBody = true for a headerless GET")
	}
	if c.reading != readingKeepAlive {
		t.Fatalf("reading state = %v, want readingKeepAlive (empty body skips Body state)", c.reading)
	}

	respHead := &MessageHead{
		Kind:       HeadResponse,
		Version:    head.HTTP11,
		StatusCode: 200,
		Reason:     "OK",
		Headers:    newHeader("Content-Length", "5"),
	}
	if err := c.Write(MessageFrame(respHead, true)); err != nil {
		t.Fatalf("Write message: %v", err)
	}
	if err := c.Write(BodyFrame([]byte("hello"))); err != nil {
		t.Fatalf("Write body: %v", err)
	}
	if err := c.Write(BodyFrame(nil)); err != nil {
		t.Fatalf("Write end: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	if string(tr.out) != want {
		t.Fatalf("wire = %q, want %q", tr.out, want)
	}
}

func TestPOSTWithContentLength(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nHost: h\r\nContent-Length: 11\r\n\r\nfoo bar baz"
	tr := &fakeTransport{in: []byte(raw)}
	c := New(tr, RoleServer)

	f := mustReadMessage(t, c)
	if !f.HasBody {
		t.Fatalf("HasBody = false, want true")
	}
	body := drainBody(t, c)
	if string(body) != "foo bar baz" {
		t.Fatalf("body = %q", body)
	}
}

func TestPOSTChunked(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nHost: h\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\n\r\n"
	tr := &fakeTransport{in: []byte(raw)}
	c := New(tr, RoleServer)

	f := mustReadMessage(t, c)
	if !f.HasBody {
		t.Fatalf("HasBody = false, want true")
	}
	body := drainBody(t, c)
	if string(body) != "hello" {
		t.Fatalf("body = %q", body)
	}
}

func TestChunkedResponse(t *testing.T) {
	tr := &fakeTransport{in: []byte("GET / HTTP/1.1\r\n\r\n")}
	c := New(tr, RoleServer)
	mustReadMessage(t, c)

	respHead := &MessageHead{
		Kind:       HeadResponse,
		Version:    head.HTTP11,
		StatusCode: 200,
		Reason:     "OK",
	}
	if err := c.Write(MessageFrame(respHead, true)); err != nil {
		t.Fatalf("Write message: %v", err)
	}
	c.Write(BodyFrame([]byte("abc")))
	c.Write(BodyFrame(nil))
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "HTTP/1.1 200 OK\r\n\r\n3\r\nabc\r\n0\r\n\r\n"
	if string(tr.out) != want {
		t.Fatalf("wire = %q, want %q", tr.out, want)
	}
}

func TestKeepAlivePipelining(t *testing.T) {
	raw := "GET /a HTTP/1.1\r\n\r\n" + "GET /b HTTP/1.1\r\n\r\n"
	tr := &fakeTransport{in: []byte(raw)}
	c := New(tr, RoleServer)

	f1 := mustReadMessage(t, c)
	if f1.Head.Target != "/a" {
		t.Fatalf("target = %q, want /a", f1.Head.Target)
	}

	rh := func(target string) *MessageHead {
		return &MessageHead{Kind: HeadResponse, Version: head.HTTP11, StatusCode: 200, Reason: "OK",
			Headers: newHeader("Content-Length", "0")}
	}
	c.Write(MessageFrame(rh("/a"), false))
	if c.writing != writingKeepAlive {
		t.Fatalf("writing state = %v, want writingKeepAlive", c.writing)
	}

	f2 := mustReadMessage(t, c)
	if f2.Head.Target != "/b" {
		t.Fatalf("target = %q, want /b", f2.Head.Target)
	}

	c.Write(MessageFrame(rh("/b"), false))
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n" + "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	if string(tr.out) != want {
		t.Fatalf("wire = %q, want %q", tr.out, want)
	}

	f3, err := c.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f3.Kind != FrameDone {
		t.Fatalf("Read kind = %v, want FrameDone (transport exhausted)", f3.Kind)
	}
}

func TestConnectionCloseClosesBothHalves(t *testing.T) {
	tr := &fakeTransport{in: []byte("GET / HTTP/1.1\r\n\r\n")}
	c := New(tr, RoleServer)
	mustReadMessage(t, c)

	respHead := &MessageHead{
		Kind:       HeadResponse,
		Version:    head.HTTP11,
		StatusCode: 200,
		Reason:     "OK",
		Headers:    newHeader("Content-Length", "0", "Connection", "close"),
	}
	if err := c.Write(MessageFrame(respHead, false)); err != nil {
		t.Fatalf("Write message: %v", err)
	}

	if c.writing != writingClosed {
		t.Fatalf("writing state = %v, want writingClosed", c.writing)
	}
	if c.reading != readingClosed {
		t.Fatalf("reading state = %v, want readingClosed (forced closed alongside writing)", c.reading)
	}
	if !c.IsClosed() {
		t.Fatalf("IsClosed() = false")
	}

	f, err := c.Read()
	if err != nil || f.Kind != FrameDone {
		t.Fatalf("Read after close = %+v, %v, want FrameDone", f, err)
	}
}

func TestReadReportsWouldBlock(t *testing.T) {
	tr := &fakeTransport{in: []byte("GET / HTTP/1.1\r\n\r\n"), blockOnce: true}
	c := New(tr, RoleServer)

	f, err := c.Read()
	if err != ErrWouldBlock {
		t.Fatalf("err = %v, want ErrWouldBlock", err)
	}
	if f.Kind != 0 || f.Head != nil {
		t.Fatalf("expected zero Frame on NotReady, got %+v", f)
	}

	f2 := mustReadMessage(t, c)
	if f2.Head.Target != "/" {
		t.Fatalf("target = %q", f2.Head.Target)
	}
}

func TestWriteRejectsBodyBeforeMessage(t *testing.T) {
	tr := &fakeTransport{}
	c := New(tr, RoleServer)
	if err := c.Write(BodyFrame([]byte("x"))); err == nil || err.Kind != ErrKindInvalidInput {
		t.Fatalf("err = %v, want InvalidInput", err)
	}
}

func TestUnsupportedVersionSurfacesAsFrameError(t *testing.T) {
	tr := &fakeTransport{in: []byte("GET / HTTP/2.0\r\n\r\n")}
	c := New(tr, RoleServer)

	f, err := c.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.Kind != FrameError || f.Err.Kind != ErrKindVersion {
		t.Fatalf("frame = %+v, want FrameError/ErrKindVersion", f)
	}

	f2, err := c.Read()
	if err != nil || f2.Kind != FrameDone {
		t.Fatalf("second Read = %+v, %v, want FrameDone", f2, err)
	}
}
