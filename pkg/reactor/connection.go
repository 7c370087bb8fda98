package reactor

import (
	"net"
	"syscall"
	"time"

	"github.com/aeronet-go/aeronet/pkg/buffer"
	"github.com/aeronet-go/aeronet/pkg/httpparse"
	"github.com/aeronet-go/aeronet/pkg/transport"
)

// ShouldClose records whether, and how urgently, a connection should be
// torn down once its current obligations (in-flight response bytes) are
// satisfied.
type ShouldClose int

const (
	// CloseNone means the connection stays open for further requests.
	CloseNone ShouldClose = iota
	// CloseDrain means the connection closes once out_buffer is drained
	// (the next response it sends, if any, already carries
	// Connection: close).
	CloseDrain
	// CloseImmediate means the connection is torn down without waiting
	// for out_buffer to drain (a fatal transport error, or a forced
	// stop/drain-deadline).
	CloseImmediate
)

// Connection is the per-accepted-socket state the event loop owns
// exclusively: its input buffer, its output buffer, its resumable
// request parser, and the bookkeeping the spec's connection-state record
// names (fd, requests_served, header_start, waiting_writable,
// should_close, ...). Nothing outside the owning Reactor's goroutine
// ever touches a Connection's fields.
type Connection struct {
	id  uint64
	fd  int
	raw net.Conn
	t   transport.Transport

	inBuf  *buffer.Growable
	outBuf *buffer.Growable
	parser *httpparse.Parser

	requestsServed int
	headerStart    time.Time
	lastActivity   time.Time

	waitingWritable bool
	shouldClose     ShouldClose

	remoteAddr string
}

func rawFD(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, errNoSyscallConn
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	if err := rc.Control(func(descriptor uintptr) {
		fd = int(descriptor)
	}); err != nil {
		return -1, err
	}
	return fd, nil
}

var errNoSyscallConn = fdExtractionError("connection does not expose a raw file descriptor")

type fdExtractionError string

func (e fdExtractionError) Error() string { return string(e) }

func newConnection(id uint64, fd int, raw net.Conn, tr transport.Transport, limits httpparse.Limits) *Connection {
	now := time.Now()
	return &Connection{
		id:           id,
		fd:           fd,
		raw:          raw,
		t:            tr,
		inBuf:        buffer.NewGrowable(4096),
		outBuf:       buffer.NewGrowable(0),
		parser:       httpparse.NewParser(limits),
		headerStart:  now,
		lastActivity: now,
		remoteAddr:   raw.RemoteAddr().String(),
	}
}

// QueueData implements the spec's queue_data primitive: if out_buffer is
// currently empty, it attempts an immediate write and only buffers
// whatever the transport didn't accept; otherwise it appends behind
// whatever is already queued, since emission must stay strictly ordered.
// The returned hint tells the caller whether OUT interest must be (kept)
// enabled.
func (c *Connection) QueueData(data []byte) (transport.Hint, error) {
	if len(data) == 0 {
		return transport.HintNone, nil
	}
	if c.outBuf.Len() == 0 {
		n, hint, err := c.t.Write(data)
		if err != nil {
			return transport.HintError, err
		}
		if n < len(data) {
			c.outBuf.Append(data[n:])
		}
		if c.outBuf.Len() > 0 || hint == transport.HintWantWrite {
			c.waitingWritable = true
			return transport.HintWantWrite, nil
		}
		return transport.HintNone, nil
	}
	c.outBuf.Append(data)
	c.waitingWritable = true
	return transport.HintWantWrite, nil
}

// Flush drains out_buffer via the transport, called on OUT readiness. It
// returns true once out_buffer is fully drained and the transport has no
// further write need (the event loop should then drop OUT interest).
func (c *Connection) Flush() (drained bool, err error) {
	for c.outBuf.Len() > 0 {
		n, hint, werr := c.t.Write(c.outBuf.Bytes())
		if werr != nil {
			return false, werr
		}
		if n > 0 {
			c.outBuf.EraseFront(n)
		}
		if hint != transport.HintNone {
			return false, nil
		}
	}
	c.waitingWritable = false
	return true, nil
}

// OutboundBacklog reports how many bytes of queued, not-yet-written
// response data the connection is holding, for the idle sweep's
// max_outbound_buffer_bytes eviction check.
func (c *Connection) OutboundBacklog() int { return c.outBuf.Len() }
