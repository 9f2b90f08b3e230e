package httpcore

import (
	"strconv"
	"strings"

	"github.com/yourusername/httpcore/body"
	"github.com/yourusername/httpcore/head"
)

// selectIncomingRequestDecoder implements spec.md §4.3's "incoming request
// body" framing-selection rules:
//  1. Transfer-Encoding present, final coding chunked -> Chunked.
//  2. Else Content-Length present (and all values agree) -> Length.
//  3. Else -> Empty (a request body is never close-delimited).
func selectIncomingRequestDecoder(h *head.Header) (*body.Decoder, *Error) {
	chunked, teErr := transferEncodingChunked(h)
	if teErr != nil {
		return nil, newError(ErrKindFraming, teErr)
	}
	if chunked {
		return body.NewChunkedDecoder(), nil
	}

	n, present, clErr := contentLength(h)
	if clErr != nil {
		return nil, newError(ErrKindFraming, clErr)
	}
	if present {
		return body.NewLengthDecoder(n), nil
	}

	return body.NewEmptyDecoder(), nil
}

// selectIncomingResponseDecoder implements spec.md §4.3's "incoming
// response body" rules, which additionally depend on the request method
// that elicited the response and its status code:
//  1. reqMethod == HEAD, or status in {204, 304}, or 100 <= status < 200 ->
//     Empty (no body is ever present regardless of headers).
//  2. Transfer-Encoding present, final coding chunked -> Chunked.
//  3. Content-Length present -> Length.
//  4. Else -> Eof (bounded only by the transport closing).
func selectIncomingResponseDecoder(reqMethod string, status int, h *head.Header) (*body.Decoder, *Error) {
	if strings.EqualFold(reqMethod, "HEAD") || status == 204 || status == 304 || (status >= 100 && status < 200) {
		return body.NewEmptyDecoder(), nil
	}

	chunked, teErr := transferEncodingChunked(h)
	if teErr != nil {
		return nil, newError(ErrKindFraming, teErr)
	}
	if chunked {
		return body.NewChunkedDecoder(), nil
	}

	n, present, clErr := contentLength(h)
	if clErr != nil {
		return nil, newError(ErrKindFraming, clErr)
	}
	if present {
		return body.NewLengthDecoder(n), nil
	}

	return body.NewEOFDecoder(), nil
}

// selectOutgoingEncoder implements spec.md §4.3's "outgoing response body"
// rules, generalized to any outgoing message:
//  1. Content-Length set by the caller -> Length.
//  2. Else Transfer-Encoding: chunked set by the caller, or the peer is
//     HTTP/1.1 and a body is expected -> Chunked.
//  3. Else -> CloseDelimited.
//
// bodyExpected is false for responses to HEAD requests and for 204/304/1xx
// statuses, where hasBody on the outgoing Frame must also be false.
func selectOutgoingEncoder(h *head.Header, peerVersion head.Version, bodyExpected bool) (*body.Encoder, *Error) {
	n, present, clErr := contentLength(h)
	if clErr != nil {
		return nil, newError(ErrKindFraming, clErr)
	}
	if present {
		return body.NewLengthEncoder(n), nil
	}

	chunked, teErr := transferEncodingChunked(h)
	if teErr != nil {
		return nil, newError(ErrKindFraming, teErr)
	}
	if chunked || (bodyExpected && peerVersion == head.HTTP11) {
		return body.NewChunkedEncoder(), nil
	}

	return body.NewCloseDelimitedEncoder(), nil
}

// contentLength returns the Content-Length value if every occurrence of the
// header agrees; it is a framing error for the header to appear with
// disagreeing values (RFC 7230 §3.3.2).
func contentLength(h *head.Header) (n uint64, present bool, err error) {
	values := h.Values("Content-Length")
	if len(values) == 0 {
		return 0, false, nil
	}
	first, perr := strconv.ParseUint(strings.TrimSpace(values[0]), 10, 64)
	if perr != nil {
		return 0, false, errFramingBadContentLength
	}
	for _, v := range values[1:] {
		n, perr := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if perr != nil || n != first {
			return 0, false, errFramingBadContentLength
		}
	}
	return first, true, nil
}

// transferEncodingChunked reports whether Transfer-Encoding is present with
// a final coding of "chunked". Any other final coding is a framing error
// this implementation does not support applying further decoders to.
func transferEncodingChunked(h *head.Header) (chunked bool, err error) {
	values := h.Values("Transfer-Encoding")
	if len(values) == 0 {
		return false, nil
	}
	var codings []string
	for _, v := range values {
		for _, c := range strings.Split(v, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				codings = append(codings, c)
			}
		}
	}
	if len(codings) == 0 {
		return false, nil
	}
	last := codings[len(codings)-1]
	if !strings.EqualFold(last, "chunked") {
		return false, errFramingUnsupportedTransferCoding
	}
	return true, nil
}

// hasConnectionToken reports whether the Connection header contains token
// (case-insensitively) among its comma-separated values.
func hasConnectionToken(h *head.Header, token string) bool {
	for _, v := range h.Values("Connection") {
		for _, tok := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), token) {
				return true
			}
		}
	}
	return false
}

// determinePersistence implements spec.md §4.4's keep-alive rules: HTTP/1.1
// connections persist unless either side sent "Connection: close"; HTTP/1.0
// connections persist only if both sides explicitly opted in with
// "Connection: keep-alive". A response body that cannot be framed with a
// definite end (CloseDelimited) always forces the connection closed
// regardless of what the headers say.
func determinePersistence(version head.Version, reqHeaders, respHeaders *head.Header, keepAliveEnabled bool, encoderForcesClose bool) bool {
	if !keepAliveEnabled || encoderForcesClose {
		return false
	}

	closed := hasConnectionToken(reqHeaders, "close") || hasConnectionToken(respHeaders, "close")

	switch version {
	case head.HTTP11:
		return !closed
	case head.HTTP10:
		if closed {
			return false
		}
		return hasConnectionToken(reqHeaders, "keep-alive") && hasConnectionToken(respHeaders, "keep-alive")
	default:
		return false
	}
}
