// Package stats holds the server-wide counters described in the
// "ambient" stats section: plain atomic counters a Reactor bumps on its
// own goroutine and that any goroutine may read concurrently (an HTTP
// status handler, a metrics scrape, a test assertion).
package stats

import "sync/atomic"

// Counters is safe for concurrent reads from any goroutine; writers are
// expected to be the single reactor goroutine that owns the connection
// the counter describes, so increments use plain atomic adds rather than
// a mutex.
type Counters struct {
	totalRequestsServed     atomic.Uint64
	epollModFailures        atomic.Uint64
	deferredWriteEvents     atomic.Uint64
	streamingChunkCoalesced atomic.Uint64
	streamingChunkLarge     atomic.Uint64
	tlsHandshakeFailures    atomic.Uint64
	idleEvictions           atomic.Uint64
}

// New returns a zeroed counter set.
func New() *Counters { return &Counters{} }

func (c *Counters) IncRequestsServed()          { c.totalRequestsServed.Add(1) }
func (c *Counters) IncEpollModFailure()         { c.epollModFailures.Add(1) }
func (c *Counters) IncDeferredWriteEvent()      { c.deferredWriteEvents.Add(1) }
func (c *Counters) IncStreamingChunkCoalesced() { c.streamingChunkCoalesced.Add(1) }
func (c *Counters) IncStreamingChunkLarge()     { c.streamingChunkLarge.Add(1) }
func (c *Counters) IncTLSHandshakeFailure()     { c.tlsHandshakeFailures.Add(1) }
func (c *Counters) IncIdleEviction()            { c.idleEvictions.Add(1) }

// Snapshot is a point-in-time copy suitable for JSON encoding or logging.
type Snapshot struct {
	TotalRequestsServed     uint64 `json:"total_requests_served"`
	EpollModFailures        uint64 `json:"epoll_mod_failures"`
	DeferredWriteEvents     uint64 `json:"deferred_write_events"`
	StreamingChunkCoalesced uint64 `json:"streaming_chunk_coalesced"`
	StreamingChunkLarge     uint64 `json:"streaming_chunk_large"`
	TLSHandshakeFailures    uint64 `json:"tls_handshake_failures"`
	IdleEvictions           uint64 `json:"idle_evictions"`
}

// Snapshot reads every counter into a single struct for reporting.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		TotalRequestsServed:     c.totalRequestsServed.Load(),
		EpollModFailures:        c.epollModFailures.Load(),
		DeferredWriteEvents:     c.deferredWriteEvents.Load(),
		StreamingChunkCoalesced: c.streamingChunkCoalesced.Load(),
		StreamingChunkLarge:     c.streamingChunkLarge.Load(),
		TLSHandshakeFailures:    c.tlsHandshakeFailures.Load(),
		IdleEvictions:           c.idleEvictions.Load(),
	}
}
