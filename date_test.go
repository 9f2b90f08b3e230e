package httpcore

import (
	"net/http"
	"testing"

	"github.com/yourusername/httpcore/head"
)

func TestCurrentServerDateIsRFC1123(t *testing.T) {
	s := currentServerDate()
	if s == "" {
		t.Fatal("currentServerDate() = \"\", want a formatted timestamp")
	}
	if _, err := http.ParseTime(s); err != nil {
		t.Fatalf("currentServerDate() = %q, not parseable as an HTTP-date: %v", s, err)
	}
}

func TestResponseDefaultsDateHeader(t *testing.T) {
	resp := NewResponse()
	mh := resp.messageHead(head.HTTP11)
	if !mh.Headers.Has(headerDate) {
		t.Fatal("messageHead did not default a Date header")
	}
	if _, err := http.ParseTime(mh.Headers.Get(headerDate)); err != nil {
		t.Fatalf("Date header = %q, not parseable: %v", mh.Headers.Get(headerDate), err)
	}
}
