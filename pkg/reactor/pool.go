package reactor

import (
	"context"
	"crypto/tls"
	"net"
	"syscall"
	"time"

	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/logging"
	"github.com/aeronet-go/aeronet/pkg/router"
	"github.com/aeronet-go/aeronet/pkg/stats"
	"github.com/aeronet-go/aeronet/pkg/transport"
)

// ReactorPool runs N independent Reactors, each with its own epoll
// instance, connection map, and listener bound to the same address via
// SO_REUSEPORT, per §4.I's multi-reactor fan-out: "reactors share
// nothing but the server-wide immutable TLSConfig/RouterConfig read at
// start and, post-start, the same hot-update closure-queue pattern
// broadcast to every reactor's own wakeup eventfd."
type ReactorPool struct {
	reactors []*Reactor
	errCh    chan error
}

// NewPool binds n listeners (n == 0 defaults to 1) to addr with
// SO_REUSEPORT and constructs one Reactor per listener. tlsCfg may be nil
// for a plain-HTTP pool.
func NewPool(n int, addr string, tlsCfg *tls.Config, rt *router.Router, cfg Config, log *logging.Logger, st *stats.Counters) (*ReactorPool, error) {
	if n <= 0 {
		n = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	if st == nil {
		st = stats.New()
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctrlErr error
			if err := c.Control(func(fd uintptr) {
				ctrlErr = setReusePort(fd)
			}); err != nil {
				return err
			}
			return ctrlErr
		},
	}

	newConn := newConnBuilder(tlsCfg)

	pool := &ReactorPool{errCh: make(chan error, n)}
	for i := 0; i < n; i++ {
		ln, err := lc.Listen(context.Background(), "tcp", addr)
		if err != nil {
			pool.closeAll()
			return nil, errors.NewIOError("listen", 0, err)
		}
		rx, err := New(i, ln, newConn, rt, cfg, log, st)
		if err != nil {
			_ = ln.Close()
			pool.closeAll()
			return nil, err
		}
		pool.reactors = append(pool.reactors, rx)
	}
	return pool, nil
}

func newConnBuilder(tlsCfg *tls.Config) newConnFunc {
	if tlsCfg == nil {
		return func(c net.Conn) transport.Transport { return transport.NewPlain(c) }
	}
	return func(c net.Conn) transport.Transport { return transport.NewServerTLS(c, tlsCfg) }
}

func (p *ReactorPool) closeAll() {
	for _, rx := range p.reactors {
		_ = rx.listener.Close()
	}
}

// Run starts every reactor's event loop on its own goroutine and blocks
// until the first one returns (success or error), then stops the rest.
func (p *ReactorPool) Run() error {
	for _, rx := range p.reactors {
		go func(r *Reactor) {
			p.errCh <- r.Run()
		}(rx)
	}
	err := <-p.errCh
	p.StopImmediate()
	for i := 1; i < len(p.reactors); i++ {
		<-p.errCh
	}
	return err
}

// BeginDrain asks every reactor to stop accepting and drain in-flight
// connections, forcing closure after deadline.
func (p *ReactorPool) BeginDrain(deadline time.Duration) {
	for _, rx := range p.reactors {
		rx.BeginDrain(deadline)
	}
}

// StopImmediate tears down every reactor without waiting for drains.
func (p *ReactorPool) StopImmediate() {
	for _, rx := range p.reactors {
		rx.StopImmediate()
	}
}

// UpdateRouter broadcasts a hot router swap to every reactor, each
// applying it from its own loop tick via the command queue so no
// reactor ever reads rt concurrently with a Match call on the old one.
func (p *ReactorPool) UpdateRouter(rt *router.Router) {
	for _, rx := range p.reactors {
		rx.Enqueue(func(r *Reactor) {
			r.router = rt
		})
	}
}

// Stats returns the first reactor's shared Counters (every reactor in a
// pool is constructed with the same *stats.Counters instance).
func (p *ReactorPool) Stats() *stats.Counters {
	if len(p.reactors) == 0 {
		return nil
	}
	return p.reactors[0].stats
}
