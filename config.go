package aeronet

import (
	"time"

	"github.com/aeronet-go/aeronet/pkg/cors"
	"github.com/aeronet-go/aeronet/pkg/encoding"
	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/httpparse"
	"github.com/aeronet-go/aeronet/pkg/reactor"
	"github.com/aeronet-go/aeronet/pkg/router"
	"github.com/aeronet-go/aeronet/pkg/tlsconfig"
)

// ServerConfig groups the reactor pool's timeouts, limits, and topology,
// matching the teacher's own Config/PoolConfig convention of grouping
// fields by concern (timeouts together, limits together, TLS together)
// rather than one flat struct.
type ServerConfig struct {
	Addr string

	Reactors int // number of ReactorPool workers; 0 means runtime.NumCPU()
	ReusePort bool

	IdleTimeout        time.Duration
	HeaderReadTimeout  time.Duration
	DrainGracePeriod   time.Duration
	MaxRequestsPerConn int

	MaxOutboundBufferBytes int
	MaxRequestLineLength   int
	MaxHeaderLineLength    int
	MaxHeaderCount         int
	MaxContentLength       int64
	DefaultBodyMemLimit    int64

	TLS *TLSConfig
}

// DefaultServerConfig mirrors constants.go's package-level defaults,
// the same way the teacher's DefaultOptions(scheme, host, port) seeds a
// client Options from its own package constants.
func DefaultServerConfig(addr string) ServerConfig {
	limits := httpparse.DefaultLimits()
	return ServerConfig{
		Addr:                   addr,
		ReusePort:              true,
		IdleTimeout:            90 * time.Second,
		HeaderReadTimeout:      10 * time.Second,
		DrainGracePeriod:       5 * time.Second,
		MaxOutboundBufferBytes: 16 * 1024 * 1024,
		MaxRequestLineLength:   limits.MaxRequestLineLength,
		MaxHeaderLineLength:    limits.MaxHeaderLineLength,
		MaxHeaderCount:         limits.MaxHeaderCount,
		MaxContentLength:       limits.MaxContentLength,
		DefaultBodyMemLimit:    limits.BodyMemLimit,
	}
}

// Validate checks field combinations that would otherwise fail silently
// or pathologically deep into the reactor loop, per §7's "validated once
// at server construction" error-handling rule.
func (c ServerConfig) Validate() *errors.Error {
	if c.Addr == "" {
		return errors.NewConfigError("addr", "must not be empty")
	}
	if c.Reactors < 0 {
		return errors.NewConfigError("reactors", "must not be negative")
	}
	if c.IdleTimeout <= 0 {
		return errors.NewConfigError("idle_timeout", "must be positive")
	}
	if c.HeaderReadTimeout <= 0 {
		return errors.NewConfigError("header_read_timeout", "must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c ServerConfig) limits() httpparse.Limits {
	return httpparse.Limits{
		MaxRequestLineLength: c.MaxRequestLineLength,
		MaxHeaderLineLength:  c.MaxHeaderLineLength,
		MaxHeaderCount:       c.MaxHeaderCount,
		MaxContentLength:     c.MaxContentLength,
		BodyMemLimit:         c.DefaultBodyMemLimit,
	}
}

func (c ServerConfig) reactorConfig() reactor.Config {
	return reactor.Config{
		IdleTimeout:            c.IdleTimeout,
		HeaderReadTimeout:      c.HeaderReadTimeout,
		DrainGracePeriod:       c.DrainGracePeriod,
		MaxRequestsPerConn:     c.MaxRequestsPerConn,
		MaxOutboundBufferBytes: c.MaxOutboundBufferBytes,
		Limits:                 c.limits(),
		MaxEventsPerWait:       128,
		IdleSweepInterval:      time.Second,
	}
}

// RouterConfig is a thin alias over pkg/router's own Config: the router
// already owns its one piece of wide matching behavior
// (TrailingSlashPolicy), so there is nothing to add at the server-config
// layer beyond naming it consistently with its CorsConfig/TLSConfig
// siblings.
type RouterConfig = router.Config

// DefaultRouterConfig re-exports router.DefaultConfig under this
// package's naming convention.
func DefaultRouterConfig() RouterConfig { return router.DefaultConfig() }

// CorsConfig is a declarative description of one route's CORS policy,
// translated into a *cors.Policy via Build() — a plain-struct front end
// over cors.Policy's fluent builder, since a config struct (unlike a
// builder chain) can be round-tripped through a RouterConfig hot-update
// without the caller re-deriving a builder call sequence.
type CorsConfig struct {
	AllowAnyOrigin      bool
	AllowedOrigins      []string
	AllowCredentials    bool
	AllowedMethods      []string
	AllowAnyHeaders     bool
	AllowedHeaders      []string
	ExposedHeaders      []string
	MaxAgeSeconds       int
	AllowPrivateNetwork bool
}

// DefaultCorsConfig denies all cross-origin requests until configured,
// matching cors.NewPolicy's own zero-configuration default.
func DefaultCorsConfig() CorsConfig {
	return CorsConfig{MaxAgeSeconds: -1}
}

// Build realizes this config as a *cors.Policy.
func (c CorsConfig) Build() *cors.Policy {
	p := cors.NewPolicy()
	if c.AllowAnyOrigin {
		p.AllowAnyOrigin()
	}
	for _, o := range c.AllowedOrigins {
		p.AllowOrigin(o)
	}
	p.AllowCredentials(c.AllowCredentials)
	if len(c.AllowedMethods) > 0 {
		p.AllowMethods(c.AllowedMethods...)
	}
	if c.AllowAnyHeaders {
		p.AllowAnyRequestHeaders()
	}
	for _, h := range c.AllowedHeaders {
		p.AllowRequestHeader(h)
	}
	for _, h := range c.ExposedHeaders {
		p.ExposeHeader(h)
	}
	p.MaxAge(c.MaxAgeSeconds)
	p.AllowPrivateNetwork(c.AllowPrivateNetwork)
	return p
}

// TLSConfig describes the accept-side TLS listener; building the actual
// *tls.Config is delegated to pkg/tlsconfig so the version/cipher-suite
// tables live in exactly one place.
type TLSConfig struct {
	CertFile string
	KeyFile  string
	Profile  tlsconfig.VersionProfile
}

// Validate checks that a cert/key pair was supplied together.
func (c *TLSConfig) Validate() *errors.Error {
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.NewConfigError("tls", "cert_file and key_file must be set together")
	}
	if c.CertFile == "" {
		return errors.NewConfigError("tls", "cert_file must not be empty when TLS is configured")
	}
	return nil
}

// DecompressionConfig controls component J's inbound decompression
// guards; wired per-ServerConfig rather than per-route since decompression
// bombs are a transport-level concern, not a routing one.
type DecompressionConfig struct {
	Enabled bool
	Guards  encoding.Guards

	// EnabledOutboundCodings lists which content-codings Negotiate may
	// choose among for responses; identity is always implicitly allowed.
	EnabledOutboundCodings []string
}

// DefaultDecompressionConfig enables inbound decompression with guards
// sized off bodyMemLimit and every outbound codec component J wires in.
func DefaultDecompressionConfig(bodyMemLimit int64) DecompressionConfig {
	return DecompressionConfig{
		Enabled:                true,
		Guards:                 encoding.DefaultGuards(bodyMemLimit),
		EnabledOutboundCodings: []string{encoding.Zstd, encoding.Brotli, encoding.Gzip, encoding.Deflate},
	}
}
