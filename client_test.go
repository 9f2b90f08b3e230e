package httpcore

import (
	"net"
	"testing"
	"time"
)

// startTestServer boots a Server on a loopback TCP listener and returns its
// address; the caller is responsible for stopping it via ln.Close().
func startTestServer(t *testing.T, s *Server) (addr string, ln net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	go s.Serve(ln)
	return ln.Addr().String(), ln
}

func TestClientDoRoundTrip(t *testing.T) {
	s := &Server{
		Handler: func(req *Request) *Response {
			if req.Method != "GET" || req.URI.Path() != "/greet" {
				resp := NewResponse()
				resp.SetStatusCode(400)
				return resp
			}
			resp := NewResponse()
			resp.SetBodyString("hi " + req.Host())
			return resp
		},
	}
	addr, ln := startTestServer(t, s)
	defer ln.Close()

	req := &Request{
		Method: "GET",
		URI:    ParseURI("", "/greet"),
		Header: newHeader("Host", "example.com"),
	}
	c := &Client{ReadTimeout: 2 * time.Second, WriteTimeout: 2 * time.Second}
	resp, err := c.Do(addr, req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != "hi example.com" {
		t.Fatalf("body = %q, want %q", resp.Body, "hi example.com")
	}
}

func TestClientDoWithRequestBody(t *testing.T) {
	s := &Server{
		Handler: func(req *Request) *Response {
			resp := NewResponse()
			resp.SetBodyString("echo:" + string(req.Body))
			return resp
		},
	}
	addr, ln := startTestServer(t, s)
	defer ln.Close()

	req := &Request{
		Method: "POST",
		URI:    ParseURI("", "/echo"),
		Header: newHeader("Host", "example.com"),
		Body:   []byte("payload"),
	}
	c := &Client{ReadTimeout: 2 * time.Second, WriteTimeout: 2 * time.Second}
	resp, err := c.Do(addr, req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "echo:payload" {
		t.Fatalf("body = %q, want %q", resp.Body, "echo:payload")
	}
}

func TestClientDoDefaultsMethodAndTarget(t *testing.T) {
	var gotMethod, gotPath string
	s := &Server{
		Handler: func(req *Request) *Response {
			gotMethod = req.Method
			gotPath = req.URI.Path()
			return NewResponse()
		},
	}
	addr, ln := startTestServer(t, s)
	defer ln.Close()

	c := &Client{ReadTimeout: 2 * time.Second, WriteTimeout: 2 * time.Second}
	if _, err := c.Do(addr, &Request{}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotMethod != "GET" {
		t.Fatalf("method = %q, want GET", gotMethod)
	}
	if gotPath != "/" {
		t.Fatalf("path = %q, want /", gotPath)
	}
}
