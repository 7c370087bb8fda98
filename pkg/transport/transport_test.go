package transport

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// fakeConn is a minimal net.Conn double that lets tests control exactly
// what Read/Write return without opening a real socket.
type fakeConn struct {
	readN    int
	readErr  error
	writeN   int
	writeErr error
	closed   bool
}

func (f *fakeConn) Read(p []byte) (int, error)  { return f.readN, f.readErr }
func (f *fakeConn) Write(p []byte) (int, error) { return f.writeN, f.writeErr }
func (f *fakeConn) Close() error                { f.closed = true; return nil }
func (f *fakeConn) LocalAddr() net.Addr         { return fakeAddr("local") }
func (f *fakeConn) RemoteAddr() net.Addr        { return fakeAddr("remote") }
func (f *fakeConn) SetDeadline(time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

// fakeTimeoutError simulates the net.Error a deadline exceeding produces.
type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestPlainTransportReadReportsWantReadOnTimeout(t *testing.T) {
	fc := &fakeConn{readN: 0, readErr: fakeTimeoutError{}}
	tr := NewPlain(fc)

	n, hint, err := tr.Read(make([]byte, 16))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if hint != HintWantRead {
		t.Fatalf("hint = %v, want HintWantRead", hint)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
}

func TestPlainTransportWriteReportsWantWriteOnTimeout(t *testing.T) {
	fc := &fakeConn{writeN: 3, writeErr: fakeTimeoutError{}}
	tr := NewPlain(fc)

	n, hint, err := tr.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if hint != HintWantWrite {
		t.Fatalf("hint = %v, want HintWantWrite", hint)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
}

func TestPlainTransportReadSurfacesRealError(t *testing.T) {
	fc := &fakeConn{readErr: errors.New("connection reset by peer")}
	tr := NewPlain(fc)

	_, hint, err := tr.Read(make([]byte, 16))
	if hint != HintError {
		t.Fatalf("hint = %v, want HintError", hint)
	}
	if err == nil {
		t.Fatalf("expected a non-nil error")
	}
}

func TestPlainTransportReadSucceeds(t *testing.T) {
	fc := &fakeConn{readN: 5}
	tr := NewPlain(fc)

	n, hint, err := tr.Read(make([]byte, 16))
	if err != nil || hint != HintNone || n != 5 {
		t.Fatalf("Read = (%d, %v, %v), want (5, HintNone, nil)", n, hint, err)
	}
}

func TestClassifyEOF(t *testing.T) {
	hint, err := classify(io.EOF)
	if hint != HintError || err == nil {
		t.Fatalf("classify(EOF) = (%v, %v), want (HintError, non-nil)", hint, err)
	}
}
