// Package reactor implements the connection event loop: one Reactor owns
// one OS thread's worth of cooperative scheduling (via the Go runtime's
// goroutine, pinned in spirit rather than with runtime.LockOSThread, since
// nothing here performs thread-local syscalls), an epoll instance, and a
// map of live connections. A ReactorPool runs several reactors bound to
// the same port with SO_REUSEPORT for multi-core fan-out, mirroring the
// "single-threaded cooperative per reactor, independent reactors share
// nothing" scheduling model this core follows.
//
// This package has no analogue in the teacher, which is a client dialer
// with no server accept loop at all; it is grounded on the teacher's
// sibling repository docker-compose's epoll-backed process monitor
// (monitor/monitor_linux.go), whose Monitor type this package's poller
// generalizes from "watch process fds for EPOLLHUP" into "watch listener
// and connection fds for read/write readiness", replacing its
// github.com/docker/containerd/epoll shim with direct
// golang.org/x/sys/unix calls.
package reactor

// Event is one readiness notification returned by poller.wait: Fd is the
// file descriptor that changed state, Events is a platform-specific
// bitmask (EventRead/EventWrite/EventError below) of which directions
// fired.
type Event struct {
	Fd     int32
	Events uint32
}

// Portable, platform-independent event bits; poller_linux.go's EpollEvent
// bits are translated into these so reactor.go never imports
// golang.org/x/sys/unix directly.
const (
	EventRead uint32 = 1 << iota
	EventWrite
	EventError
)
