package httpcore

import (
	"net/url"
	"strings"
)

// URI is a parsed request-target: scheme, host, path, query string, and
// fragment, in the style of the teacher's URI type but built on
// net/url.Values rather than hand-rolled percent-decoding, since the
// zero-allocation discipline that motivates the teacher's byte-slice
// version isn't part of this module's scope.
type URI struct {
	scheme string
	host   string
	path   string
	query  string
	hash   string

	args       Args
	parsedArgs bool

	hostErr error
}

// ParseURI parses target (the request-line's request-target, or an
// absolute-form URI) into a URI, resolving a relative path against host
// when target is origin-form (the common case for server requests).
func ParseURI(host, target string) *URI {
	u := &URI{host: host}
	u.hostErr = validateIPv6Literal(host)

	rest := target
	if hash := strings.IndexByte(rest, '#'); hash >= 0 {
		u.hash, rest = rest[hash+1:], rest[:hash]
	}
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		u.query, rest = rest[q+1:], rest[:q]
	}

	if parsed, err := url.Parse(rest); err == nil && parsed.IsAbs() {
		u.scheme = parsed.Scheme
		u.host = parsed.Host
		rest = parsed.Path
	}

	if rest == "" {
		rest = "/"
	}
	u.path = normalizePath(rest)
	return u
}

// Scheme returns the URI scheme, lowercased, or "" for origin-form targets.
func (u *URI) Scheme() string { return u.scheme }

// Host returns the URI's authority component.
func (u *URI) Host() string { return u.host }

// HostError reports a malformed bracketed IPv6 host literal, or nil.
func (u *URI) HostError() error { return u.hostErr }

// Path returns the normalized path. The path of an absolute-form target is
// percent-decoded; the path of an origin-form target keeps its escapes as
// sent.
func (u *URI) Path() string { return u.path }

// QueryString returns the raw (still percent-encoded) query component.
func (u *URI) QueryString() string { return u.query }

// Hash returns the fragment component, without the leading '#'.
func (u *URI) Hash() string { return u.hash }

// QueryArgs returns the parsed query-string arguments, parsing lazily on
// first use and caching the result.
func (u *URI) QueryArgs() *Args {
	if !u.parsedArgs {
		u.args = ParseArgs(u.query)
		u.parsedArgs = true
	}
	return &u.args
}

// normalizePath collapses "." and ".." segments and duplicate slashes,
// mirroring the teacher's normalizePath but operating on strings.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	joined := "/" + strings.Join(out, "/")
	if strings.HasSuffix(path, "/") && joined != "/" {
		joined += "/"
	}
	return joined
}
