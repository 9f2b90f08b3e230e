package httpcore

import "github.com/yourusername/httpcore/head"

// HeadKind distinguishes a request head from a response head inside a
// MessageHead value, since a Conn may run either role.
type HeadKind int

const (
	HeadRequest HeadKind = iota
	HeadResponse
)

// MessageHead is the role-agnostic union of head.RequestHead and
// head.ResponseHead, used wherever a Frame carries a parsed or
// about-to-be-written message head.
type MessageHead struct {
	Kind    HeadKind
	Version head.Version
	Headers head.Header

	// Request fields (Kind == HeadRequest).
	Method string
	Target string

	// Response fields (Kind == HeadResponse).
	StatusCode int
	Reason     string
}

func requestMessageHead(h *head.RequestHead) *MessageHead {
	return &MessageHead{
		Kind:    HeadRequest,
		Version: h.Version,
		Headers: h.Headers,
		Method:  h.Line.Method,
		Target:  h.Line.Target,
	}
}

func responseMessageHead(h *head.ResponseHead) *MessageHead {
	return &MessageHead{
		Kind:       HeadResponse,
		Version:    h.Version,
		Headers:    h.Headers,
		StatusCode: h.Line.Code,
		Reason:     h.Line.Reason,
	}
}

// FrameKind tags which variant of the Frame tagged union a value holds.
type FrameKind int

const (
	// FrameMessage carries a parsed (Read) or to-be-written (Write) head.
	FrameMessage FrameKind = iota
	// FrameBody carries zero or more body bytes, or signals end-of-body
	// when Chunk is nil.
	FrameBody
	// FrameError carries a connection-level error; always followed, on
	// the next Read, by FrameDone.
	FrameError
	// FrameDone signals the connection has reached a terminal state and
	// no further frames will ever be produced.
	FrameDone
)

// Frame is the unit exchanged across the Conn.Read/Conn.Write boundary,
// modeled as a tagged union per spec.md §3's Frame data model.
type Frame struct {
	Kind FrameKind

	// FrameMessage
	Head    *MessageHead
	HasBody bool

	// FrameBody: Chunk == nil marks end-of-body.
	Chunk []byte

	// FrameError
	Err *Error
}

// MessageFrame constructs a FrameMessage frame.
func MessageFrame(head *MessageHead, hasBody bool) Frame {
	return Frame{Kind: FrameMessage, Head: head, HasBody: hasBody}
}

// BodyFrame constructs a FrameBody frame carrying chunk, or the end-of-body
// marker when chunk is nil.
func BodyFrame(chunk []byte) Frame {
	return Frame{Kind: FrameBody, Chunk: chunk}
}

// ErrorFrame constructs a FrameError frame.
func ErrorFrame(err *Error) Frame {
	return Frame{Kind: FrameError, Err: err}
}

// DoneFrame constructs the terminal FrameDone frame.
func DoneFrame() Frame {
	return Frame{Kind: FrameDone}
}
