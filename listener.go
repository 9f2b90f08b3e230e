package httpcore

import "github.com/yourusername/httpcore/tcplisten"

// tcplistenConfig returns the SO_REUSEPORT listener configuration
// ListenAndServe uses when ReusePort is enabled, so that several processes
// (or several goroutines across GOMAXPROCS) can each hold their own socket
// bound to the same addr instead of fanning out from a single accept loop.
// DeferAccept and FastOpen are always requested alongside it: a connection
// this package accepts is always read from before anything is written back,
// which is exactly the shape TCP_DEFER_ACCEPT and TCP_FASTOPEN are for.
// backlog of zero defers to tcplisten's own somaxconn lookup.
func tcplistenConfig(backlog int) *tcplisten.Config {
	return &tcplisten.Config{
		ReusePort:   true,
		DeferAccept: true,
		FastOpen:    true,
		Backlog:     backlog,
	}
}
