package httpcore

import "testing"

func TestValidateIPv6Literal(t *testing.T) {
	cases := []struct {
		host  string
		valid bool
	}{
		{"", true},            // non-bracketed: no-op
		{"example.com", true}, // non-bracketed: no-op
		{"[", false},          // unterminated
		{"[]", false},         // empty
		{"[::]", true},
		{"[::1]", true},
		{"[2001:db8::1]", true},
		{"[2001:db8::]", true},
		{"[::ffff:192.168.0.1]", true},
		{"[fe80::1%eth0]", true},
		{"[fe80::1%]", false},         // empty zone
		{"[1234]", false},             // no colon, not IPv6
		{"[2001:db8:zzzz::1]", false}, // invalid hex
		{"[::ffff:256.0.0.1]", false}, // invalid v4 tail
		{"[2001:db8:0:0:0:0:2:1]", true},
		{"[2001:db8:0:0:0:0:2:1%en0]", true},
	}
	for _, c := range cases {
		err := validateIPv6Literal(c.host)
		if got := err == nil; got != c.valid {
			t.Errorf("validateIPv6Literal(%q) valid=%v (err=%v), want valid=%v", c.host, got, err, c.valid)
		}
	}
}
