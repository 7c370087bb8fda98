//go:build linux

package transport

import (
	"os"

	"golang.org/x/sys/unix"

	aeroerrors "github.com/aeronet-go/aeronet/pkg/errors"
)

// SendFile transmits up to count bytes of f starting at offset directly
// from the page cache via the sendfile(2) syscall, the "transport's
// writable-region primitive" a file-backed response body uses instead of
// being read into a user-space buffer first. It participates in the same
// Hint protocol as Write: a partial transfer with HintWantWrite means the
// caller should retry once the socket is writable again, advancing offset
// by the returned count first.
func (t *PlainTransport) SendFile(f *os.File, offset int64, count int) (int, Hint, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return 0, HintError, aeroerrors.NewIOError("sendfile", 0, err)
	}
	outFD, err := socketFD(t.conn)
	if err != nil {
		return 0, HintError, aeroerrors.NewIOError("sendfile", 0, err)
	}

	var written int
	var rcErr error
	off := offset
	ctrlErr := rc.Control(func(inFD uintptr) {
		if derr := t.conn.SetWriteDeadline(pollDeadline); derr != nil {
			rcErr = derr
			return
		}
		n, serr := unix.Sendfile(outFD, int(inFD), &off, count)
		written = n
		rcErr = serr
	})
	if ctrlErr != nil {
		return 0, HintError, aeroerrors.NewIOError("sendfile", 0, ctrlErr)
	}
	if rcErr != nil {
		hint, classified := classify(rcErr)
		if classified == nil {
			if hint == HintWantRead {
				hint = HintWantWrite
			}
			return written, hint, nil
		}
		return written, HintError, aeroerrors.NewIOError("sendfile", 0, classified)
	}
	return written, HintNone, nil
}
