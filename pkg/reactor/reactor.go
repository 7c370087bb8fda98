package reactor

import (
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/httpparse"
	"github.com/aeronet-go/aeronet/pkg/logging"
	"github.com/aeronet-go/aeronet/pkg/message"
	"github.com/aeronet-go/aeronet/pkg/payload"
	"github.com/aeronet-go/aeronet/pkg/response"
	"github.com/aeronet-go/aeronet/pkg/router"
	"github.com/aeronet-go/aeronet/pkg/stats"
	"github.com/aeronet-go/aeronet/pkg/transport"
)

// State is the reactor-wide lifecycle state machine named in spec §4.I:
// Idle -> Running on start, Running -> Draining on a drain request,
// Draining -> Stopping once the deadline elapses or the last connection
// closes, and any state -> Stopping on an immediate stop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopping
)

// Config bounds one Reactor's behavior; ServerConfig at the module root
// translates into one of these per reactor in the pool.
type Config struct {
	IdleTimeout            time.Duration
	HeaderReadTimeout      time.Duration
	DrainGracePeriod       time.Duration
	MaxRequestsPerConn     int
	MaxOutboundBufferBytes int
	Limits                 httpparse.Limits
	MaxEventsPerWait       int
	IdleSweepInterval      time.Duration
}

// DefaultConfig mirrors constants.go's package-level defaults.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:            90 * time.Second,
		HeaderReadTimeout:      10 * time.Second,
		DrainGracePeriod:       5 * time.Second,
		MaxRequestsPerConn:     0, // 0 = unbounded
		MaxOutboundBufferBytes: 16 * 1024 * 1024,
		Limits:                 httpparse.DefaultLimits(),
		MaxEventsPerWait:       128,
		IdleSweepInterval:      time.Second,
	}
}

// fileSender is implemented by transports that can offer a zero-copy
// writable-region primitive (pkg/transport's linux PlainTransport via
// sendfile(2)); transports without it fall back to a read-and-QueueData
// loop.
type fileSender interface {
	SendFile(f *os.File, offset int64, count int) (int, transport.Hint, error)
}

// newConnFunc builds a transport for a freshly accepted net.Conn; the
// plain and TLS variants the reactor pool installs differ only here.
type newConnFunc func(net.Conn) transport.Transport

// Reactor owns one epoll instance, one connection map, and the single
// goroutine that drives both — the "one thread owns one event loop" unit
// the spec's scheduling model describes. A tiny accept goroutine feeds it
// newly accepted connections over a channel, since Go's net.Listener has
// no raw non-blocking accept primitive worth reimplementing by hand; all
// actual request processing happens on the reactor goroutine alone.
type Reactor struct {
	id     int
	cfg    Config
	router *router.Router
	log    *logging.Logger
	stats  *stats.Counters

	listener net.Listener
	newConn  newConnFunc

	poll  *poller
	conns map[int]*Connection
	next  uint64

	accepted chan net.Conn
	commands chan func(*Reactor)

	state      atomic.Int32
	drainUntil time.Time
	stopped    chan struct{}
}

// New constructs a Reactor bound to listener, dispatching accepted
// connections through newConn (plain or TLS) and routing requests
// through rt.
func New(id int, listener net.Listener, newConn newConnFunc, rt *router.Router, cfg Config, log *logging.Logger, st *stats.Counters) (*Reactor, error) {
	p, err := newPoller()
	if err != nil {
		return nil, errors.NewIOError("create poller", 0, err)
	}
	if log == nil {
		log = logging.Nop()
	}
	if st == nil {
		st = stats.New()
	}
	return &Reactor{
		id:       id,
		cfg:      cfg,
		router:   rt,
		log:      log,
		stats:    st,
		listener: listener,
		newConn:  newConn,
		poll:     p,
		conns:    make(map[int]*Connection),
		accepted: make(chan net.Conn, 256),
		commands: make(chan func(*Reactor), 64),
		stopped:  make(chan struct{}),
	}, nil
}

// State reports the reactor's current lifecycle state.
func (rx *Reactor) State() State { return State(rx.state.Load()) }

// Enqueue posts fn to run on the reactor goroutine at the top of its next
// loop tick, the mechanism §4.I's hot-update queue describes for cross
// thread router/config updates. It never blocks the caller.
func (rx *Reactor) Enqueue(fn func(*Reactor)) {
	select {
	case rx.commands <- fn:
		_ = rx.poll.wake()
	default:
		rx.log.Warn("reactor command queue full, dropping update")
	}
}

// BeginDrain stops accepting new connections, marks every future response
// Connection: close, and schedules a forced stop at deadline if
// connections haven't drained on their own by then.
func (rx *Reactor) BeginDrain(deadline time.Duration) {
	rx.Enqueue(func(r *Reactor) {
		if State(r.state.Load()) != StateRunning {
			return
		}
		r.state.Store(int32(StateDraining))
		r.drainUntil = time.Now().Add(deadline)
		_ = r.listener.Close()
		for _, c := range r.conns {
			if c.shouldClose == CloseNone {
				c.shouldClose = CloseDrain
			}
		}
	})
}

// StopImmediate tears down every connection without waiting for
// out_buffer to drain.
func (rx *Reactor) StopImmediate() {
	rx.Enqueue(func(r *Reactor) {
		r.state.Store(int32(StateStopping))
		_ = r.listener.Close()
		for fd, c := range r.conns {
			_ = c.t.Close()
			_ = r.poll.remove(fd)
			delete(r.conns, fd)
		}
	})
}

// Run drives the event loop until the reactor reaches StateStopping and
// every connection has closed, or the poller's wait returns an error.
func (rx *Reactor) Run() error {
	rx.state.Store(int32(StateRunning))
	go rx.acceptLoop()

	events := make([]Event, 0, rx.cfg.MaxEventsPerWait)
	idleTick := time.NewTicker(rx.cfg.IdleSweepInterval)
	defer idleTick.Stop()
	lastSweep := time.Now()

	for {
		rx.drainCommands()

		if State(rx.state.Load()) == StateStopping && len(rx.conns) == 0 {
			close(rx.stopped)
			_ = rx.poll.close()
			return nil
		}
		if State(rx.state.Load()) == StateDraining {
			if len(rx.conns) == 0 || time.Now().After(rx.drainUntil) {
				rx.StopImmediate()
				rx.drainCommands()
				continue
			}
		}

		rx.drainAcceptChannel()

		timeoutMS := 1000
		ready, err := rx.poll.wait(cap(events), timeoutMS)
		if err != nil {
			return errors.NewIOError("epoll wait", 0, err)
		}

		for _, ev := range ready {
			c, ok := rx.conns[int(ev.Fd)]
			if !ok {
				continue
			}
			c.lastActivity = time.Now()
			if ev.Events&EventWrite != 0 {
				rx.onWritable(c)
			}
			if _, stillOpen := rx.conns[int(ev.Fd)]; stillOpen && ev.Events&(EventRead|EventError) != 0 {
				rx.onReadable(c)
			}
		}

		if time.Since(lastSweep) >= rx.cfg.IdleSweepInterval {
			rx.sweepIdle()
			lastSweep = time.Now()
		}
	}
}

func (rx *Reactor) drainCommands() {
	for {
		select {
		case fn := <-rx.commands:
			fn(rx)
		default:
			return
		}
	}
}

func (rx *Reactor) drainAcceptChannel() {
	for {
		select {
		case conn, ok := <-rx.accepted:
			if !ok {
				return
			}
			rx.registerConn(conn)
		default:
			return
		}
	}
}

// acceptLoop feeds newly accepted connections to the reactor goroutine.
// It stops (without closing rx.accepted, since the reactor goroutine owns
// its lifetime) once the listener is closed by BeginDrain/StopImmediate.
func (rx *Reactor) acceptLoop() {
	for {
		conn, err := rx.listener.Accept()
		if err != nil {
			return
		}
		select {
		case rx.accepted <- conn:
		case <-rx.stopped:
			_ = conn.Close()
			return
		}
	}
}

func (rx *Reactor) registerConn(raw net.Conn) {
	if State(rx.state.Load()) != StateRunning {
		_ = raw.Close()
		return
	}
	fd, err := rawFD(raw)
	if err != nil {
		rx.log.WithField("error", err).Warn("accepted connection exposes no raw fd, closing")
		_ = raw.Close()
		return
	}
	tr := rx.newConn(raw)
	rx.next++
	conn := newConnection(rx.next, fd, raw, tr, rx.cfg.Limits)
	rx.conns[fd] = conn
	if err := rx.poll.add(fd, EventRead); err != nil {
		rx.log.WithField("error", err).Warn("epoll_ctl add failed")
		rx.stats.IncEpollModFailure()
		_ = tr.Close()
		delete(rx.conns, fd)
	}
}

func (rx *Reactor) closeConn(c *Connection) {
	delete(rx.conns, c.fd)
	_ = rx.poll.remove(c.fd)
	_ = c.t.Close()
}

func (rx *Reactor) setWritable(c *Connection, want bool) {
	if want == c.waitingWritable {
		return
	}
	c.waitingWritable = want
	interest := EventRead
	if want {
		interest |= EventWrite
	}
	if err := rx.poll.modify(c.fd, interest); err != nil {
		rx.stats.IncEpollModFailure()
	}
}

func (rx *Reactor) onWritable(c *Connection) {
	drained, err := c.Flush()
	if err != nil {
		rx.closeConn(c)
		return
	}
	if drained {
		rx.setWritable(c, false)
		if c.shouldClose != CloseNone {
			rx.closeConn(c)
		}
	}
}

func (rx *Reactor) onReadable(c *Connection) {
	buf := make([]byte, 64*1024)
	for {
		n, hint, err := c.t.Read(buf)
		if err != nil {
			rx.closeConn(c)
			return
		}
		if n > 0 {
			c.inBuf.Append(buf[:n])
			rx.processInbound(c)
			if c.shouldClose == CloseImmediate {
				rx.closeConn(c)
				return
			}
		}
		if hint == transport.HintWantRead {
			break
		}
		if n == 0 && hint == transport.HintNone {
			// orderly shutdown from the peer with no error surfaced
			rx.closeConn(c)
			return
		}
	}
	if c.outBuf.Len() > 0 {
		rx.setWritable(c, true)
	}
	if c.shouldClose == CloseDrain && c.outBuf.Len() == 0 {
		rx.closeConn(c)
	}
}

// processInbound feeds every fully-buffered pipelined request through the
// parser and pipeline in arrival order, queueing each response before the
// next request is parsed, matching §5's no-pipelining-speculation
// ordering rule.
func (rx *Reactor) processInbound(c *Connection) {
	for {
		req, err := c.parser.Feed(c.inBuf)
		if err != nil {
			rx.emitSimpleError(c, 400, true, classifyParseError(err))
			c.shouldClose = CloseDrain
			return
		}
		if req == nil {
			return // not enough bytes yet for the in-flight request
		}
		c.inBuf.EraseFront(c.parser.Consumed())
		c.parser.Reset()
		c.requestsServed++
		c.headerStart = time.Now()
		rx.stats.IncRequestsServed()

		rx.handleRequest(c, req)

		if rx.cfg.MaxRequestsPerConn > 0 && c.requestsServed >= rx.cfg.MaxRequestsPerConn {
			c.shouldClose = CloseDrain
			return
		}
		if c.shouldClose != CloseNone {
			return
		}
	}
}

func classifyParseError(err error) string {
	if aerr, ok := err.(*errors.Error); ok {
		return aerr.Message
	}
	return "malformed request"
}

// emitSimpleError is the sole path for protocol-error responses per
// §4.F.1: it builds a minimal plain-text response and queues it,
// optionally marking the connection to close once it's drained.
func (rx *Reactor) emitSimpleError(c *Connection, statusCode int, closeConnection bool, reason string) {
	resp := message.NewResponse()
	resp.StatusCode = statusCode
	resp.Body = payload.FromOwned([]byte(reason))
	keepAlive := !closeConnection
	head := response.BuildHead(resp, "HTTP/1.1", time.Now(), keepAlive, false, false)
	_, _ = c.QueueData(head)
	_, _ = c.QueueData(resp.Body.View())
	if closeConnection {
		c.shouldClose = CloseDrain
	}
}

func (rx *Reactor) notFoundBody() payload.Payload {
	return payload.FromView("Not Found")
}

// handleRequest drives one already-parsed request through routing and
// response transmission.
func (rx *Reactor) handleRequest(c *Connection, req *message.Request) {
	defer func() {
		if p := recover(); p != nil {
			rx.log.WithField("panic", p).Error("handler panicked")
			rx.emitSimpleError(c, 500, true, "Internal Server Error")
		}
	}()
	outcome := rx.resolve(req)
	keepAlive := c.shouldClose == CloseNone && rx.cfg.MaxRequestsPerConn != 1

	if outcome.shortCircuit != nil {
		rx.writeResponse(c, req, rx.finalize(req, outcome.shortCircuit, outcome), keepAlive)
		return
	}

	switch outcome.result.Kind {
	case router.HandlerStreaming:
		rx.writeStreaming(c, req, outcome, keepAlive)
	case router.HandlerAsync:
		resp := <-outcome.result.AsyncHandler(req)
		rx.writeResponse(c, req, rx.finalize(req, resp, outcome), keepAlive)
	case router.HandlerRequest:
		resp := outcome.result.RequestHandler(req)
		rx.writeResponse(c, req, rx.finalize(req, resp, outcome), keepAlive)
	default:
		rx.writeResponse(c, req, rx.finalize(req, rx.notFoundResponse(), outcome), keepAlive)
	}
}

func (rx *Reactor) writeResponse(c *Connection, req *message.Request, resp *message.Response, keepAlive bool) {
	headMethod := req.Method == "HEAD"
	head := response.BuildHead(resp, "HTTP/1.1", time.Now(), keepAlive, headMethod, false)
	if _, err := c.QueueData(head); err != nil {
		rx.closeConn(c)
		return
	}
	if headMethod || resp.Body.Empty() {
		rx.finishResponse(c, keepAlive)
		return
	}
	if resp.Body.IsFile() {
		rx.sendFileBody(c, resp)
		rx.finishResponse(c, keepAlive)
		return
	}
	if _, err := c.QueueData(resp.Body.View()); err != nil {
		rx.closeConn(c)
		return
	}
	rx.finishResponse(c, keepAlive)
}

func (rx *Reactor) sendFileBody(c *Connection, resp *message.Response) {
	info, _ := resp.Body.FileInfo()
	f, err := resp.Body.OpenFile()
	if err != nil {
		return
	}
	defer f.Close()

	if fs, ok := c.t.(fileSender); ok {
		remaining := info.Length
		offset := info.Offset
		for remaining > 0 {
			n, hint, err := fs.SendFile(f, offset, int(remaining))
			if err != nil {
				rx.closeConn(c)
				return
			}
			offset += int64(n)
			remaining -= int64(n)
			if hint == transport.HintWantWrite {
				rx.setWritable(c, true)
				return
			}
			if n == 0 {
				break
			}
		}
		return
	}

	buf := make([]byte, 64*1024)
	remaining := info.Length
	for remaining > 0 {
		n, rerr := f.Read(buf[:minInt(len(buf), int(remaining))])
		if n > 0 {
			if _, err := c.QueueData(buf[:n]); err != nil {
				rx.closeConn(c)
				return
			}
			remaining -= int64(n)
		}
		if rerr != nil {
			if rerr != io.EOF {
				rx.closeConn(c)
			}
			return
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (rx *Reactor) writeStreaming(c *Connection, req *message.Request, outcome routingOutcome, keepAlive bool) {
	resp := message.NewResponse()
	headMethod := req.Method == "HEAD"
	head := response.BuildHead(resp, "HTTP/1.1", time.Now(), keepAlive, headMethod, true)
	if _, err := c.QueueData(head); err != nil {
		rx.closeConn(c)
		return
	}
	cw := response.NewChunkedWriter(&connSink{c: c, rx: rx})
	outcome.result.StreamingHandler(req, cw)
	_ = cw.End()
	rx.finishResponse(c, keepAlive)
}

func (rx *Reactor) finishResponse(c *Connection, keepAlive bool) {
	if c.outBuf.Len() > 0 {
		rx.setWritable(c, true)
	}
	if !keepAlive {
		c.shouldClose = CloseDrain
	}
}

// connSink adapts Connection.QueueData to io.Writer for ChunkedWriter,
// coalescing each chunk into the connection's outbound queue — the
// counter split between small coalesced chunks and large ones mirrors
// §4.G's two emission strategies.
type connSink struct {
	c  *Connection
	rx *Reactor
}

const coalesceThreshold = 8 * 1024

func (s *connSink) Write(p []byte) (int, error) {
	if len(p) <= coalesceThreshold {
		s.rx.stats.IncStreamingChunkCoalesced()
	} else {
		s.rx.stats.IncStreamingChunkLarge()
	}
	if _, err := s.c.QueueData(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// sweepIdle evicts connections that have been idle past IdleTimeout, have
// exceeded HeaderReadTimeout waiting on a request's headers, or have
// accumulated more outbound backlog than MaxOutboundBufferBytes.
func (rx *Reactor) sweepIdle() {
	now := time.Now()
	for fd, c := range rx.conns {
		switch {
		case now.Sub(c.lastActivity) > rx.cfg.IdleTimeout:
			rx.stats.IncIdleEviction()
			rx.closeConnByFD(fd, c)
		case now.Sub(c.headerStart) > rx.cfg.HeaderReadTimeout && c.parser.Consumed() == 0:
			rx.stats.IncIdleEviction()
			rx.closeConnByFD(fd, c)
		case rx.cfg.MaxOutboundBufferBytes > 0 && c.OutboundBacklog() > rx.cfg.MaxOutboundBufferBytes:
			rx.stats.IncIdleEviction()
			rx.closeConnByFD(fd, c)
		}
	}
}

func (rx *Reactor) closeConnByFD(fd int, c *Connection) {
	delete(rx.conns, fd)
	_ = rx.poll.remove(fd)
	_ = c.t.Close()
}
