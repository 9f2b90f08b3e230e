package httpcore

import (
	"net"
	"testing"
)

func TestIP2Uint32(t *testing.T) {
	cases := []struct {
		ip   string
		want uint32
	}{
		{"0.0.0.0", 0},
		{"1.2.3.4", 0x01020304},
		{"255.255.255.255", 0xffffffff},
	}
	for _, c := range cases {
		ip := net.ParseIP(c.ip).To4()
		if got := ip2uint32(ip); got != c.want {
			t.Fatalf("ip2uint32(%s) = %#x, want %#x", c.ip, got, c.want)
		}
	}
}

func TestPerIPConnCounter(t *testing.T) {
	var cc perIPConnCounter

	for i := 1; i < 100; i++ {
		if n := cc.Register(123); n != i {
			t.Fatalf("Register(123) = %d, want %d", n, i)
		}
	}

	if n := cc.Register(456); n != 1 {
		t.Fatalf("Register(456) = %d, want 1", n)
	}

	for i := 0; i < 99; i++ {
		cc.Unregister(123)
	}
	cc.Unregister(456)

	if n := cc.Register(123); n != 1 {
		t.Fatalf("Register(123) after draining = %d, want 1", n)
	}

	// Unregistering past zero must not underflow.
	cc.Unregister(123)
	cc.Unregister(123)
	if n := cc.Register(123); n != 1 {
		t.Fatalf("Register(123) after over-unregistering = %d, want 1", n)
	}
}
