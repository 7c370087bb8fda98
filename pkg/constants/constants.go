// Package constants defines the core's magic numbers and default values,
// mirrored across ServerConfig/RouterConfig/CorsConfig default constructors
// rather than hard-coded at each call site.
package constants

import "time"

// Connection timeouts and limits (reactor/connection lifecycle).
const (
	DefaultIdleTimeout       = 90 * time.Second
	DefaultHeaderReadTimeout = 10 * time.Second
	DefaultKeepAliveTimeout  = 30 * time.Second
	DefaultDrainGracePeriod  = 5 * time.Second
	HealthCheckInterval      = 30 * time.Second
	CleanupInterval          = 30 * time.Second
)

// HPACK/HTTP2-adjacent limits shared by the HPACK codec (component C).
const (
	DefaultHpackTableSize = 4096
	MaxHpackTableSize     = 64 * 1024
)

// HTTP/1.1 framing limits.
const (
	MaxRequestLineLength = 8 * 1024
	MaxHeaderLineLength  = 8 * 1024
	MaxHeaderCount       = 100
	MaxContentLength     = 1024 * 1024 * 1024 * 1024 // 1TB, a sanity ceiling rather than a practical default
)

// Buffer limits (component A).
const (
	DefaultBodyMemLimit  = 4 * 1024 * 1024   // spill to a temp file past this size
	MaxRawBufferSize     = 100 * 1024 * 1024 // cap for a single connection's read buffer
	DefaultReadChunkSize = 64 * 1024
)
