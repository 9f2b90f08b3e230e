package httpcore

import "io"

// userData is per-Conn storage a Handler can use to stash values that
// outlive a single request but not the connection (auth context, counters,
// negotiated state for a later pipelined request on the same Conn).
// Grounded on the teacher's userDataKV slice, simplified to a plain map:
// the teacher's slot-reuse/tombstone scheme exists to avoid allocating
// under its RequestCtx object pool, which this module has no equivalent
// of.
type userData map[string]interface{}

func (d *userData) Set(key string, value interface{}) {
	if *d == nil {
		*d = make(userData)
	}
	(*d)[key] = value
}

func (d userData) Get(key string) interface{} {
	return d[key]
}

func (d userData) Remove(key string) {
	if v, ok := d[key]; ok {
		if vc, ok := v.(io.Closer); ok {
			vc.Close()
		}
		delete(d, key)
	}
}

func (d userData) Reset() {
	for k, v := range d {
		if vc, ok := v.(io.Closer); ok {
			vc.Close()
		}
		delete(d, k)
	}
}
