// Package aeronet provides a high-performance, single-threaded
// event-driven HTTP/1.1 server core with a radix-trie router, a CORS
// policy engine, a negotiated compression pipeline, and permessage-deflate
// support for WebSocket upgrades.
package aeronet

import (
	"crypto/tls"
	"runtime"
	"time"

	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/logging"
	"github.com/aeronet-go/aeronet/pkg/message"
	"github.com/aeronet-go/aeronet/pkg/reactor"
	"github.com/aeronet-go/aeronet/pkg/router"
	"github.com/aeronet-go/aeronet/pkg/stats"
	"github.com/aeronet-go/aeronet/pkg/tlsconfig"
)

// Version is the current version of this library.
const Version = "0.1.0"

// GetVersion returns the current version of the library.
func GetVersion() string {
	return Version
}

// Re-export key types so callers need only import this package for the
// common path.
type (
	// Request is an already-parsed HTTP/1.1 request handed to a handler.
	Request = message.Request

	// Response is what a handler returns to have the reactor write back.
	Response = message.Response

	// Handler is the request-handling function a route is registered with.
	Handler = message.RequestHandler

	// StreamingHandler is a handler given a live ChunkedWriter instead of
	// building a Response value, for responses whose length isn't known
	// up front.
	StreamingHandler = message.StreamingHandler

	// Error is a structured error carrying a classification used to pick
	// an HTTP status and log level.
	Error = errors.Error

	// Stats is a point-in-time snapshot of the server's atomic counters.
	Stats = stats.Snapshot
)

// Re-export error-type constants for convenience.
const (
	ErrorTypeProtocol = errors.ErrorTypeProtocol
	ErrorTypeIO       = errors.ErrorTypeIO
	ErrorTypeResource = errors.ErrorTypeResource
	ErrorTypeConfig   = errors.ErrorTypeConfig
)

// Server owns one ReactorPool: N single-threaded event loops sharing a
// listener port via SO_REUSEPORT, a common Router, and a common TLSConfig.
type Server struct {
	cfg      ServerConfig
	reactors int
	router   *router.Router
	log      *logging.Logger
	stats    *stats.Counters
	pool     *reactor.ReactorPool
}

// New validates cfg and routerCfg, builds the router and (if configured)
// the server-side TLS config, and constructs the ReactorPool. The server
// is not yet accepting connections; call Run to start it.
func New(cfg ServerConfig, routerCfg RouterConfig, log *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.New()
	}

	rt := router.New(routerCfg)
	st := stats.New()

	var tlsCfg *tls.Config
	if cfg.TLS != nil {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, errors.NewConfigError("tls", err.Error())
		}
		tlsCfg = tlsconfig.NewServerTLSConfig(tlsconfig.ServerOptions{
			Certificates: []tls.Certificate{cert},
			Profile:      cfg.TLS.Profile,
		})
	}

	n := cfg.Reactors
	if n <= 0 {
		n = runtime.NumCPU()
	}

	pool, err := reactor.NewPool(n, cfg.Addr, tlsCfg, rt, cfg.reactorConfig(), log, st)
	if err != nil {
		return nil, err
	}

	return &Server{cfg: cfg, reactors: n, router: rt, log: log, stats: st, pool: pool}, nil
}

// Router exposes the server's Router so callers can register routes
// before (or, for routes guarded by their own synchronization, after)
// calling Run.
func (s *Server) Router() *router.Router {
	return s.router
}

// Run starts every reactor and blocks until the pool stops, returning the
// first reactor error (if any) that caused the stop.
func (s *Server) Run() error {
	s.log.Infof("aeronet: listening on %s (%d reactors)", s.cfg.Addr, s.reactors)
	return s.pool.Run()
}

// Shutdown stops accepting new connections and gives in-flight
// connections up to grace to finish before forcing closure.
func (s *Server) Shutdown(grace time.Duration) {
	if grace <= 0 {
		grace = s.cfg.DrainGracePeriod
	}
	s.pool.BeginDrain(grace)
}

// Close tears down every reactor immediately, without waiting for
// in-flight connections to finish.
func (s *Server) Close() {
	s.pool.StopImmediate()
}

// Stats returns a snapshot of the server's request/connection counters.
func (s *Server) Stats() Stats {
	return s.stats.Snapshot()
}
