package head

import (
	"bytes"
	"errors"
	"strconv"

	"golang.org/x/net/http/httpguts"
)

// ErrNeedMore signals that buf is a valid proper-prefix of a head; the
// caller must await more bytes and retry with the same buffer contents
// plus whatever was appended.
var ErrNeedMore = errors.New("head: need more data")

// ErrMalformed signals a byte sequence past which recovery is impossible:
// a bad token, a missing delimiter, an obs-fold continuation (rejected per
// RFC 7230 §3.2.4), or any other grammar violation.
var ErrMalformed = errors.New("head: malformed message head")

// ErrUnsupportedVersion signals an HTTP major version this parser does not
// implement (only major version 1 is accepted, with any minor digit).
var ErrUnsupportedVersion = errors.New("head: unsupported HTTP version")

var (
	crlf = []byte("\r\n")
)

// nextLine splits buf at the first line terminator. A bare LF is accepted
// as a terminator (RFC 7230 §3.5 robustness); any CR immediately preceding
// it is stripped. It returns ErrNeedMore if no terminator is present yet.
func nextLine(buf []byte) (line, rest []byte, err error) {
	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		return nil, nil, ErrNeedMore
	}
	line = buf[:i]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	rest = buf[i+1:]
	return line, rest, nil
}

// ParseRequestHead attempts to parse a complete request-line + headers from
// buf. It returns (head, consumed, nil) on success, (nil, 0, ErrNeedMore) if
// buf is an incomplete prefix, or (nil, 0, err) on a malformed head.
func ParseRequestHead(buf []byte) (*RequestHead, int, error) {
	line, rest, err := nextLine(buf)
	if err != nil {
		return nil, 0, err
	}
	consumed := len(buf) - len(rest)

	method, target, version, err := parseRequestLine(line)
	if err != nil {
		return nil, 0, err
	}

	headers, n, err := parseHeaders(rest)
	if err != nil {
		return nil, 0, err
	}
	consumed += n

	return &RequestHead{
		Version: version,
		Line:    RequestLine{Method: method, Target: target},
		Headers: headers,
	}, consumed, nil
}

// ParseResponseHead attempts to parse a complete status-line + headers from
// buf, with the same three-way contract as ParseRequestHead.
func ParseResponseHead(buf []byte) (*ResponseHead, int, error) {
	line, rest, err := nextLine(buf)
	if err != nil {
		return nil, 0, err
	}
	consumed := len(buf) - len(rest)

	version, code, reason, err := parseStatusLine(line)
	if err != nil {
		return nil, 0, err
	}

	headers, n, err := parseHeaders(rest)
	if err != nil {
		return nil, 0, err
	}
	consumed += n

	return &ResponseHead{
		Version: version,
		Line:    StatusLine{Code: code, Reason: reason},
		Headers: headers,
	}, consumed, nil
}

func parseRequestLine(line []byte) (method, target string, version Version, err error) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 <= 0 {
		return "", "", Version{}, ErrMalformed
	}
	methodBytes := line[:sp1]
	if !httpguts.ValidHeaderFieldName(string(methodBytes)) {
		return "", "", Version{}, ErrMalformed
	}

	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 <= 0 {
		return "", "", Version{}, ErrMalformed
	}
	targetBytes := rest[:sp2]
	if len(targetBytes) == 0 {
		return "", "", Version{}, ErrMalformed
	}

	version, err = parseVersion(rest[sp2+1:])
	if err != nil {
		return "", "", Version{}, err
	}

	return string(methodBytes), string(targetBytes), version, nil
}

func parseStatusLine(line []byte) (version Version, code int, reason string, err error) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 <= 0 {
		return Version{}, 0, "", ErrMalformed
	}
	version, err = parseVersion(line[:sp1])
	if err != nil {
		return Version{}, 0, "", err
	}

	rest := line[sp1+1:]
	codeEnd := bytes.IndexByte(rest, ' ')
	var codeBytes []byte
	if codeEnd < 0 {
		codeBytes = rest
		rest = nil
	} else {
		codeBytes = rest[:codeEnd]
		rest = rest[codeEnd+1:]
	}
	if len(codeBytes) != 3 {
		return Version{}, 0, "", ErrMalformed
	}
	code, convErr := strconv.Atoi(string(codeBytes))
	if convErr != nil || code < 100 || code > 999 {
		return Version{}, 0, "", ErrMalformed
	}

	return version, code, string(rest), nil
}

// parseVersion parses the literal "HTTP/<digit>.<digit>" token.
func parseVersion(b []byte) (Version, error) {
	if len(b) != 8 ||
		b[0] != 'H' || b[1] != 'T' || b[2] != 'T' || b[3] != 'P' || b[4] != '/' ||
		b[5] < '0' || b[5] > '9' || b[6] != '.' || b[7] < '0' || b[7] > '9' {
		return Version{}, ErrMalformed
	}
	major := int(b[5] - '0')
	minor := int(b[7] - '0')
	if major != 1 {
		return Version{}, ErrUnsupportedVersion
	}
	return Version{Major: major, Minor: minor}, nil
}

// parseHeaders reads header fields from buf until the terminal blank line,
// returning the accumulated Header and the number of bytes consumed
// (including the terminal CRLF).
func parseHeaders(buf []byte) (Header, int, error) {
	var h Header
	pos := 0
	for {
		remaining := buf[pos:]
		line, rest, err := nextLine(remaining)
		if err != nil {
			return Header{}, 0, ErrNeedMore
		}
		lineConsumed := len(remaining) - len(rest)

		if len(line) == 0 {
			pos += lineConsumed
			return h, pos, nil
		}
		if line[0] == ' ' || line[0] == '\t' {
			// obs-fold continuation: rejected per RFC 7230 §3.2.4.
			return Header{}, 0, ErrMalformed
		}

		idx := bytes.IndexByte(line, ':')
		if idx <= 0 {
			return Header{}, 0, ErrMalformed
		}
		name := string(line[:idx])
		value := string(bytes.Trim(line[idx+1:], " \t"))

		if !httpguts.ValidHeaderFieldName(name) {
			return Header{}, 0, ErrMalformed
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return Header{}, 0, ErrMalformed
		}

		h.Add(name, value)
		pos += lineConsumed
	}
}
