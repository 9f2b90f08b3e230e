package httpcore

import (
	"strconv"
	"strings"
	"time"
)

// CookieSameSite is an enum for the SameSite attribute of an outgoing
// Cookie, grounded on the teacher's CookieSameSite.
type CookieSameSite int

const (
	CookieSameSiteDisabled CookieSameSite = iota
	CookieSameSiteDefaultMode
	CookieSameSiteLaxMode
	CookieSameSiteStrictMode
	CookieSameSiteNoneMode
)

func (s CookieSameSite) String() string {
	switch s {
	case CookieSameSiteLaxMode:
		return "Lax"
	case CookieSameSiteStrictMode:
		return "Strict"
	case CookieSameSiteNoneMode:
		return "None"
	default:
		return ""
	}
}

// Cookie is a single name/value pair plus its Set-Cookie attributes,
// grounded on the teacher's Cookie type.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expire   time.Time
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite CookieSameSite
}

// ParseCookies splits a request's Cookie header value ("a=1; b=2") into
// name/value pairs.
func ParseCookies(header string) []Cookie {
	var out []Cookie
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		out = append(out, Cookie{Name: part[:eq], Value: part[eq+1:]})
	}
	return out
}

// String renders c as a Set-Cookie header value.
func (c *Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if !c.Expire.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expire.UTC().Format(time.RFC1123))
	}
	if c.MaxAge > 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if s := c.SameSite.String(); s != "" {
		b.WriteString("; SameSite=")
		b.WriteString(s)
	}
	return b.String()
}
