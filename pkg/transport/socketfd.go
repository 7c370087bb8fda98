package transport

import (
	"net"
	"syscall"
)

// socketFD extracts the raw file descriptor backing conn, used by the
// linux SendFile implementation to pass a real fd to sendfile(2).
func socketFD(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, errNotSyscallConn
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	if err := rc.Control(func(descriptor uintptr) { fd = int(descriptor) }); err != nil {
		return -1, err
	}
	return fd, nil
}

type notSyscallConnError string

func (e notSyscallConnError) Error() string { return string(e) }

var errNotSyscallConn notSyscallConnError = "connection does not expose a raw file descriptor"
