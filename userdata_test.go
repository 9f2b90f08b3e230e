package httpcore

import "testing"

type closeTrackerUD struct{ closed *bool }

func (c *closeTrackerUD) Close() error {
	*c.closed = true
	return nil
}

func TestUserDataSetGet(t *testing.T) {
	var d userData
	if v := d.Get("missing"); v != nil {
		t.Fatalf("Get on empty userData = %v, want nil", v)
	}
	d.Set("a", 1)
	d.Set("b", "two")
	if v := d.Get("a"); v != 1 {
		t.Fatalf("Get(a) = %v, want 1", v)
	}
	if v := d.Get("b"); v != "two" {
		t.Fatalf("Get(b) = %v, want two", v)
	}
}

func TestUserDataRemoveClosesCloser(t *testing.T) {
	var d userData
	closed := false
	d.Set("res", &closeTrackerUD{closed: &closed})
	d.Remove("res")
	if !closed {
		t.Fatalf("Remove did not close a value implementing io.Closer")
	}
	if v := d.Get("res"); v != nil {
		t.Fatalf("Get after Remove = %v, want nil", v)
	}
}

func TestUserDataResetClosesAll(t *testing.T) {
	var d userData
	var closedA, closedB bool
	d.Set("a", &closeTrackerUD{closed: &closedA})
	d.Set("b", &closeTrackerUD{closed: &closedB})
	d.Reset()
	if !closedA || !closedB {
		t.Fatalf("Reset did not close all values: a=%v b=%v", closedA, closedB)
	}
	if d.Get("a") != nil || d.Get("b") != nil {
		t.Fatalf("Reset did not clear the map")
	}
}
