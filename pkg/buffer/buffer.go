// Package buffer implements the growable byte buffer and disk-spilling
// scratch buffer used throughout the connection, parser and response-builder
// components. Buffers in this package are not safe for concurrent use: every
// connection is owned by exactly one reactor goroutine (see pkg/reactor), so
// no internal locking is needed on the hot path.
package buffer

import (
	"bytes"
	"io"
	"os"

	"github.com/aeronet-go/aeronet/pkg/errors"
)

// DefaultMemoryLimit is the default threshold before a SpillBuffer spools its
// contents to a temporary file.
const DefaultMemoryLimit = 4 * 1024 * 1024 // 4MB

// Growable is a contiguous, exponentially-growing byte buffer with explicit
// control over the committed size versus the allocated capacity. It backs
// per-connection inbound/outbound buffers (component I) and the response
// builder's single backing buffer (component G).
//
// Invariant: Len() <= cap(data) at all times; EraseFront preserves the
// trailing [k, Len()) region by copying it to the front, never reallocating.
type Growable struct {
	data []byte
}

// NewGrowable returns an empty buffer with the given initial capacity hint.
func NewGrowable(capacityHint int) *Growable {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Growable{data: make([]byte, 0, capacityHint)}
}

// Len returns the number of committed bytes.
func (g *Growable) Len() int { return len(g.data) }

// Cap returns the allocated capacity.
func (g *Growable) Cap() int { return cap(g.data) }

// Bytes returns a view of the committed region. The slice is invalidated by
// any subsequent call that reallocates (EnsureExtraExp beyond remaining
// capacity) or shifts (EraseFront) the buffer.
func (g *Growable) Bytes() []byte { return g.data }

// EnsureExtraExp guarantees at least n additional bytes of capacity beyond
// Len(), growing the backing array to at least 2x its previous capacity when
// a reallocation is required (amortized O(1) append).
func (g *Growable) EnsureExtraExp(n int) {
	need := len(g.data) + n
	if need <= cap(g.data) {
		return
	}
	newCap := cap(g.data) * 2
	if newCap < need {
		newCap = need
	}
	if newCap < 64 {
		newCap = 64
	}
	grown := make([]byte, len(g.data), newCap)
	copy(grown, g.data)
	g.data = grown
}

// ReserveExtra is a non-exponential variant that grows to exactly fit n
// additional bytes when capacity is insufficient; used by callers that know
// the exact remaining demand and do not want amortized over-allocation.
func (g *Growable) ReserveExtra(n int) {
	need := len(g.data) + n
	if need <= cap(g.data) {
		return
	}
	grown := make([]byte, len(g.data), need)
	copy(grown, g.data)
	g.data = grown
}

// AddSize commits n additional bytes from the reserved-but-uncommitted
// region onto the end of the buffer (the caller must have already written
// into that region via a previously obtained capacity reservation, typically
// right after EnsureExtraExp). It panics if n would exceed capacity.
func (g *Growable) AddSize(n int) {
	newLen := len(g.data) + n
	if newLen > cap(g.data) {
		panic("buffer: AddSize exceeds reserved capacity")
	}
	g.data = g.data[:newLen]
}

// Append writes p to the end of the buffer, growing exponentially as needed.
func (g *Growable) Append(p []byte) {
	g.EnsureExtraExp(len(p))
	g.data = append(g.data, p...)
}

// AppendByte appends a single byte.
func (g *Growable) AppendByte(b byte) {
	g.EnsureExtraExp(1)
	g.data = append(g.data, b)
}

// AppendString appends a string without an intermediate []byte allocation.
func (g *Growable) AppendString(s string) {
	g.EnsureExtraExp(len(s))
	g.data = append(g.data, s...)
}

// EraseFront shifts [k, Len()) down to [0, Len()-k), discarding the first k
// bytes. k must be <= Len().
func (g *Growable) EraseFront(k int) {
	if k <= 0 {
		return
	}
	if k >= len(g.data) {
		g.data = g.data[:0]
		return
	}
	n := copy(g.data, g.data[k:])
	g.data = g.data[:n]
}

// Insert splices bytes into the buffer at pos, reallocating if necessary.
func (g *Growable) Insert(pos int, p []byte) {
	if pos < 0 || pos > len(g.data) {
		panic("buffer: Insert position out of range")
	}
	g.EnsureExtraExp(len(p))
	g.data = g.data[:len(g.data)+len(p)]
	copy(g.data[pos+len(p):], g.data[pos:len(g.data)-len(p)])
	copy(g.data[pos:pos+len(p)], p)
}

// Clear resets the committed length to zero without releasing capacity.
func (g *Growable) Clear() { g.data = g.data[:0] }

// ShrinkToFit releases excess capacity by reallocating to the exact current
// length. pkg/reactor does not call it, so connection buffers keep the
// capacity they grew to.
func (g *Growable) ShrinkToFit() {
	if cap(g.data) == len(g.data) {
		return
	}
	shrunk := make([]byte, len(g.data))
	copy(shrunk, g.data)
	g.data = shrunk
}

// SpillBuffer stores data either in memory or spooled to a temporary file
// once above a configured threshold; it backs large captured request/response
// bodies (the Payload "owned" variant, see pkg/payload) where holding the
// entire body resident would be wasteful.
type SpillBuffer struct {
	buf    bytes.Buffer
	file   *os.File
	path   string
	size   int64
	limit  int64
	closed bool
}

// NewSpillBuffer creates a new SpillBuffer with the provided memory limit.
func NewSpillBuffer(limit int64) *SpillBuffer {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &SpillBuffer{limit: limit}
}

// NewSpillBufferWithData creates a new spill buffer pre-populated with data.
func NewSpillBufferWithData(data []byte) *SpillBuffer {
	b := &SpillBuffer{limit: DefaultMemoryLimit, size: int64(len(data))}
	b.buf.Write(data)
	return b
}

// Write stores the provided bytes, spilling to disk once above the
// configured memory threshold.
func (b *SpillBuffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.NewIOError("write", 0, os.ErrClosed)
	}

	b.size += int64(len(p))

	if b.file == nil && int64(b.buf.Len()+len(p)) <= b.limit {
		return b.buf.Write(p)
	}

	if b.file == nil {
		tmp, err := os.CreateTemp("", "aeronet-body-*.tmp")
		if err != nil {
			return 0, errors.NewIOError("creating temp file", 0, err)
		}
		b.file = tmp
		b.path = tmp.Name()

		if b.buf.Len() > 0 {
			if _, err := tmp.Write(b.buf.Bytes()); err != nil {
				b.Close()
				return 0, errors.NewIOError("writing to temp file", 0, err)
			}
		}
		b.buf.Reset()
	}

	n, err := b.file.Write(p)
	if err != nil {
		return n, errors.NewIOError("writing to temp file", 0, err)
	}
	return n, nil
}

// Bytes returns the in-memory data; nil once spilled to disk.
func (b *SpillBuffer) Bytes() []byte {
	if b.file != nil {
		return nil
	}
	return b.buf.Bytes()
}

// Path returns the filesystem path backing the spilled payload, empty if
// never spilled.
func (b *SpillBuffer) Path() string { return b.path }

// Size returns the total number of bytes written.
func (b *SpillBuffer) Size() int64 { return b.size }

// IsSpilled reports whether the buffer has spilled to disk.
func (b *SpillBuffer) IsSpilled() bool { return b.file != nil }

// Reader provides a fresh reader over the stored data.
func (b *SpillBuffer) Reader() (io.ReadCloser, error) {
	if b.closed {
		return nil, errors.NewIOError("read", 0, os.ErrClosed)
	}
	if b.file != nil {
		if err := b.file.Sync(); err != nil {
			return nil, errors.NewIOError("syncing temp file", 0, err)
		}
		f, err := os.Open(b.path)
		if err != nil {
			return nil, errors.NewIOError("opening temp file for reading", 0, err)
		}
		return f, nil
	}
	return io.NopCloser(bytes.NewReader(b.buf.Bytes())), nil
}

// Close flushes and closes the underlying file, if any, and removes the temp
// file. Idempotent.
func (b *SpillBuffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	if b.file != nil {
		err := b.file.Close()
		if removeErr := os.Remove(b.path); removeErr != nil && err == nil {
			err = errors.NewIOError("removing temp file", 0, removeErr)
		}
		b.file = nil
		b.path = ""
		if err != nil {
			return errors.NewIOError("closing temp file", 0, err)
		}
	}
	return nil
}

// Reset clears the buffer and prepares it for reuse.
func (b *SpillBuffer) Reset() error {
	if err := b.Close(); err != nil {
		return err
	}
	b.buf.Reset()
	b.size = 0
	b.closed = false
	return nil
}
