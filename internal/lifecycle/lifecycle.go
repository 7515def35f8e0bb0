package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown sets the drain flag. Call when SIGTERM/SIGINT is
// received; the health handler reports shutting-down while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown returns true while the process is draining and should
// not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
