package httpcore

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/yourusername/httpcore/head"
)

// Client is a reference blocking HTTP/1.x client built directly on Conn's
// RoleClient path and TCPDialer, exercising the write-request/read-response
// half of the Conn state machine that Server's RoleServer path leaves
// untouched. Grounded on the teacher's HostClient, trimmed to a single
// blocking Do (no connection pooling across requests).
type Client struct {
	Dialer TCPDialer

	KeepAlive    bool
	MaxHeadBytes int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Do dials addr, sends req, and reads the full response, then closes the
// connection before returning, even when the server would have kept it
// alive; this single-shot Do never reuses a connection.
func (c *Client) Do(addr string, req *Request) (*Response, error) {
	nc, err := c.Dialer.Dial(addr)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	opts := []Option{WithKeepAlive(c.KeepAlive)}
	if c.MaxHeadBytes > 0 {
		opts = append(opts, WithMaxHeadBytes(c.MaxHeadBytes))
	}
	conn := New(NewNetTransport(nc), RoleClient, opts...)
	defer conn.Release()

	if c.WriteTimeout > 0 {
		nc.SetWriteDeadline(time.Now().Add(c.WriteTimeout))
	}
	if err := c.writeRequest(conn, req); err != nil {
		return nil, err
	}

	if c.ReadTimeout > 0 {
		nc.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	}
	return c.readResponse(conn)
}

func (c *Client) writeRequest(conn *Conn, req *Request) error {
	version := req.Version
	if version == (head.Version{}) {
		version = head.HTTP11
	}
	method := req.Method
	if method == "" {
		method = "GET"
	}
	target := "/"
	if req.URI != nil {
		target = req.URI.Path()
		if q := req.URI.QueryString(); q != "" {
			target += "?" + q
		}
	}
	mh := &MessageHead{
		Kind:    HeadRequest,
		Version: version,
		Headers: req.Header,
		Method:  method,
		Target:  target,
	}
	if !mh.Headers.Has(headerHost) {
		host := req.Host()
		if host == "" && req.URI != nil {
			host = req.URI.Host()
		}
		mh.Headers.Set(headerHost, host)
	}
	if len(req.Body) > 0 && !mh.Headers.Has(headerContentLength) {
		mh.Headers.Set(headerContentLength, strconv.Itoa(len(req.Body)))
	}

	hasBody := len(req.Body) > 0
	if err := conn.Write(MessageFrame(mh, hasBody)); err != nil {
		return err
	}
	if hasBody {
		if err := conn.Write(BodyFrame(req.Body)); err != nil {
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

func (c *Client) readResponse(conn *Conn) (*Response, error) {
	f, err := conn.Read()
	if err != nil {
		return nil, err
	}
	if f.Kind == FrameError {
		return nil, f.Err
	}
	if f.Kind == FrameDone {
		return nil, net.ErrClosed
	}

	resp := &Response{
		StatusCode: f.Head.StatusCode,
		Reason:     f.Head.Reason,
		Header:     f.Head.Headers,
	}
	if !f.HasBody {
		return resp, nil
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
			return resp, nil
		}
		resp.Body = append(resp.Body, bf.Chunk...)
	}
}
