// Package transport implements the server core's read/write abstraction
// over an accepted connection: a plain TCP implementation and a TLS
// implementation, both reporting a suspension hint instead of blocking
// forever, so the connection event loop (component I) can cooperatively
// schedule many connections without dedicating an OS thread to each one
// that is merely waiting on the network.
//
// This is a from-scratch server-accept-side package. The teacher's
// pkg/transport is a client-dial-side pooling/proxy dialer (SOCKS4/5,
// HTTP CONNECT, MITM certificate generation) with no read/write hint
// concept at all, so none of its dialing machinery applies here. What is
// adapted from it is the shape of its TLS handshake bookkeeping —
// upgradeTLS's tls.Config construction and tlsVersionString's
// version-name lookup (now done by pkg/tlsconfig.GetVersionName) — and
// its error conventions (errors.NewTLSError, errors.NewIOError).
// ConfigureSNI has no server-side analogue: a server does not choose its
// own outbound ServerName, it selects a certificate in response to one via
// tls.Config.GetCertificate/GetConfigForClient; pkg/tlsconfig.NewServerTLSConfig
// sets neither and serves its fixed Certificates list.
package transport

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"

	aeroerrors "github.com/aeronet-go/aeronet/pkg/errors"
)

// Hint reports why a Read or Write did not fully complete.
type Hint int

const (
	// HintNone means the call completed; n bytes are valid and the
	// operation needs no further suspension.
	HintNone Hint = iota
	// HintWantRead means the connection cannot make progress until more
	// bytes are available to read (the event loop should keep read
	// interest registered).
	HintWantRead
	// HintWantWrite means the connection cannot make progress until the
	// socket is writable again (the event loop should register write
	// interest).
	HintWantWrite
	// HintError means the operation failed; the connection should close.
	HintError
)

func (h Hint) String() string {
	switch h {
	case HintNone:
		return "none"
	case HintWantRead:
		return "want_read"
	case HintWantWrite:
		return "want_write"
	case HintError:
		return "error"
	default:
		return "unknown"
	}
}

// pollDeadline is the fixed-in-the-past deadline transports set before a
// Read or Write to turn what would otherwise be a blocking net.Conn call
// into a poll: the call returns immediately with a timeout error if no
// bytes are ready, rather than parking the calling goroutine. Go's
// net.Conn and crypto/tls.Conn both treat a deadline-exceeded error as
// non-sticky — unlike a genuine I/O error, a later call with a fresh
// deadline resumes normally — so this is a safe way to drive either kind
// of connection from a single cooperative read/write cycle instead of
// dedicating a goroutine purely to waiting.
var pollDeadline = time.Unix(1, 0)

// Transport is implemented by PlainTransport and TLSTransport.
type Transport interface {
	// Read behaves like io.Reader's Read, except that "no bytes available
	// right now" is reported as (0, HintWantRead, nil) instead of
	// blocking.
	Read(p []byte) (n int, hint Hint, err error)
	// Write behaves like io.Writer's Write, except that "the socket
	// cannot accept more bytes right now" is reported as
	// (n, HintWantWrite, nil) instead of blocking, where n is however
	// many bytes were accepted before the socket applied backpressure.
	Write(p []byte) (n int, hint Hint, err error)
	// LocalAddr and RemoteAddr expose the underlying socket addresses for
	// access logging.
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	// Close releases the underlying connection.
	Close() error
}

// classify turns a net.Conn I/O error into a Hint, distinguishing "this
// call hit our poll deadline" (not a real failure) from a genuine error.
// It reports HintWantRead for any deadline-exceeded error; write-side
// callers remap that to HintWantWrite themselves, since net.Error does
// not distinguish which direction timed out.
func classify(err error) (Hint, error) {
	if err == nil {
		return HintNone, nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return HintWantRead, nil
	}
	if errors.Is(err, io.EOF) {
		return HintError, io.EOF
	}
	return HintError, err
}

// PlainTransport reads and writes a non-TLS connection.
type PlainTransport struct {
	conn net.Conn
}

// NewPlain wraps an already-accepted connection.
func NewPlain(conn net.Conn) *PlainTransport {
	return &PlainTransport{conn: conn}
}

// Read implements Transport.
func (t *PlainTransport) Read(p []byte) (int, Hint, error) {
	if err := t.conn.SetReadDeadline(pollDeadline); err != nil {
		return 0, HintError, aeroerrors.NewIOError("set read deadline", 0, err)
	}
	n, err := t.conn.Read(p)
	if err != nil {
		hint, classified := classify(err)
		if classified == nil {
			return n, hint, nil
		}
		return n, HintError, aeroerrors.NewIOError("read", 0, classified)
	}
	return n, HintNone, nil
}

// Write implements Transport.
func (t *PlainTransport) Write(p []byte) (int, Hint, error) {
	if err := t.conn.SetWriteDeadline(pollDeadline); err != nil {
		return 0, HintError, aeroerrors.NewIOError("set write deadline", 0, err)
	}
	n, err := t.conn.Write(p)
	if err != nil {
		hint, classified := classify(err)
		if classified == nil {
			if hint == HintWantRead {
				hint = HintWantWrite
			}
			return n, hint, nil
		}
		return n, HintError, aeroerrors.NewIOError("write", 0, classified)
	}
	return n, HintNone, nil
}

// LocalAddr implements Transport.
func (t *PlainTransport) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// RemoteAddr implements Transport.
func (t *PlainTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

// Close implements Transport.
func (t *PlainTransport) Close() error {
	return t.conn.Close()
}

// TLSTransport drives a server-side TLS handshake and subsequent
// application data over an already-accepted connection, using the same
// pollDeadline technique as PlainTransport so a pending handshake never
// blocks the event loop.
type TLSTransport struct {
	conn          *tls.Conn
	handshakeDone bool
}

// NewServerTLS wraps raw in a server-side tls.Conn using cfg. The
// handshake is not started until the first call to Handshake, Read, or
// Write.
func NewServerTLS(raw net.Conn, cfg *tls.Config) *TLSTransport {
	return &TLSTransport{conn: tls.Server(raw, cfg)}
}

// Handshake drives (or resumes) the TLS handshake. Call it again whenever
// the connection becomes readable or writable until it returns
// (true, HintNone, nil) or a non-nil error. Read and Write call it
// automatically, so most callers never need to call it directly; it is
// exposed for an event loop that wants to track handshake progress
// separately from the first application read.
func (t *TLSTransport) Handshake() (done bool, hint Hint, err error) {
	if t.handshakeDone {
		return true, HintNone, nil
	}
	if err := t.conn.SetDeadline(pollDeadline); err != nil {
		return false, HintError, aeroerrors.NewTLSError("set handshake deadline", 0, err)
	}
	hsErr := t.conn.Handshake()
	if hsErr == nil {
		t.handshakeDone = true
		_ = t.conn.SetDeadline(time.Time{})
		return true, HintNone, nil
	}
	h, classified := classify(hsErr)
	if classified == nil {
		return false, h, nil
	}
	return false, HintError, aeroerrors.NewTLSError("handshake", 0, classified)
}

// Read implements Transport.
func (t *TLSTransport) Read(p []byte) (int, Hint, error) {
	if done, hint, err := t.Handshake(); !done {
		return 0, hint, err
	}
	if err := t.conn.SetReadDeadline(pollDeadline); err != nil {
		return 0, HintError, aeroerrors.NewIOError("set read deadline", 0, err)
	}
	n, err := t.conn.Read(p)
	if err != nil {
		hint, classified := classify(err)
		if classified == nil {
			return n, hint, nil
		}
		return n, HintError, aeroerrors.NewTLSError("read", 0, classified)
	}
	return n, HintNone, nil
}

// Write implements Transport.
func (t *TLSTransport) Write(p []byte) (int, Hint, error) {
	if done, hint, err := t.Handshake(); !done {
		return 0, hint, err
	}
	if err := t.conn.SetWriteDeadline(pollDeadline); err != nil {
		return 0, HintError, aeroerrors.NewIOError("set write deadline", 0, err)
	}
	n, err := t.conn.Write(p)
	if err != nil {
		hint, classified := classify(err)
		if classified == nil {
			if hint == HintWantRead {
				hint = HintWantWrite
			}
			return n, hint, nil
		}
		return n, HintError, aeroerrors.NewTLSError("write", 0, classified)
	}
	return n, HintNone, nil
}

// ConnectionState exposes the negotiated TLS parameters once the
// handshake has completed, for access logging and ALPN-based protocol
// selection.
func (t *TLSTransport) ConnectionState() tls.ConnectionState {
	return t.conn.ConnectionState()
}

// LocalAddr implements Transport.
func (t *TLSTransport) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// RemoteAddr implements Transport.
func (t *TLSTransport) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

// Close implements Transport.
func (t *TLSTransport) Close() error {
	return t.conn.Close()
}
