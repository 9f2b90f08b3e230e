package httpcore

import (
	"net/http"
	"sync/atomic"
	"time"
)

// serverDate caches the rendered Date header value, refreshed once a
// second by a background goroutine, so rendering a response never pays
// for a time.Now()+format on every request. Grounded on the teacher's
// coarseTime.go/server_date.go pair, collapsed into one cache since this
// module has a single Date consumer (Response.messageHead) rather than the
// teacher's separate coarse-time and header-buffer use sites.
var serverDate atomic.Value

func init() {
	refreshServerDate()
	go func() {
		for {
			time.Sleep(time.Second)
			refreshServerDate()
		}
	}()
}

func refreshServerDate() {
	serverDate.Store(time.Now().UTC().Format(http.TimeFormat))
}

func currentServerDate() string {
	return serverDate.Load().(string)
}
