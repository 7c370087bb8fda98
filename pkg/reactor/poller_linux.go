//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// poller wraps one epoll instance plus an eventfd used to interrupt a
// blocked wait from another goroutine (the hot-update/drain/stop command
// queue). Registrations are edge-triggered (EPOLLET), matching spec's
// "edge-triggered readiness on the listener, wakeup eventfd, and each
// connected fd".
type poller struct {
	epfd   int
	wakeFD int
}

func newPoller() (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	p := &poller{epfd: epfd, wakeFD: wakeFD}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFD)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFD, &ev); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(wakeFD)
		return nil, err
	}
	return p, nil
}

func toEpollBits(interest uint32) uint32 {
	var bits uint32 = unix.EPOLLET
	if interest&EventRead != 0 {
		bits |= unix.EPOLLIN
	}
	if interest&EventWrite != 0 {
		bits |= unix.EPOLLOUT
	}
	return bits
}

func fromEpollBits(bits uint32) uint32 {
	var interest uint32
	if bits&unix.EPOLLIN != 0 {
		interest |= EventRead
	}
	if bits&unix.EPOLLOUT != 0 {
		interest |= EventWrite
	}
	if bits&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		interest |= EventError
	}
	return interest
}

func (p *poller) add(fd int, interest uint32) error {
	ev := unix.EpollEvent{Events: toEpollBits(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *poller) modify(fd int, interest uint32) error {
	ev := unix.EpollEvent{Events: toEpollBits(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *poller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// wait blocks for up to timeoutMS (negative: forever) and returns the
// ready descriptors. The wakeup eventfd's own fd is filtered out and its
// counter drained here so callers never see it as a connection event.
func (p *poller) wait(maxEvents int, timeoutMS int) ([]Event, error) {
	raw := make([]unix.EpollEvent, maxEvents)
	for {
		n, err := unix.EpollWait(p.epfd, raw, timeoutMS)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, err
		}
		out := make([]Event, 0, n)
		for i := 0; i < n; i++ {
			if int(raw[i].Fd) == p.wakeFD {
				var buf [8]byte
				_, _ = unix.Read(p.wakeFD, buf[:])
				continue
			}
			out = append(out, Event{Fd: raw[i].Fd, Events: fromEpollBits(raw[i].Events)})
		}
		return out, nil
	}
}

// wake interrupts a blocked wait from another goroutine.
func (p *poller) wake() error {
	buf := [8]byte{1}
	_, err := unix.Write(p.wakeFD, buf[:])
	return err
}

func (p *poller) close() error {
	_ = unix.Close(p.wakeFD)
	return unix.Close(p.epfd)
}

// setReusePort applies SO_REUSEPORT to fd, the real golang.org/x/sys/unix
// wiring behind ReactorPool's multi-reactor fan-out (§4.I "Multi-reactor
// fan-out").
func setReusePort(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
