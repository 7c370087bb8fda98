package response

import (
	"io"
	"strconv"

	"github.com/aeronet-go/aeronet/pkg/header"
)

// ChunkedWriter implements message.StreamingWriter over a chunked-transfer
// response body: Write emits one chunk per call, AddTrailer buffers a
// trailer field to be emitted after the final zero-length chunk (rather
// than writing it immediately, since RFC 9112 §7.1.2 places trailers after
// the terminating chunk), and End writes that terminating chunk and the
// buffered trailers.
//
// A ChunkedWriter is only ever handed to a handler after BuildHead has
// already written a head with streaming=true to the same sink, so it
// carries no knowledge of the status line or headers itself — it only
// knows how to frame body chunks, the same division of responsibility the
// response head/body split has everywhere else in this package.
type ChunkedWriter struct {
	w        io.Writer
	trailers []header.View
	ended    bool
}

// NewChunkedWriter wraps w, the connection's write sink, with chunked
// framing.
func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{w: w}
}

// Write frames p as one chunk and writes it to the underlying sink. A
// zero-length Write is a no-op rather than emitting a premature terminating
// chunk; callers end the stream via End.
func (c *ChunkedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := io.WriteString(c.w, strconv.FormatInt(int64(len(p)), 16)+"\r\n"); err != nil {
		return 0, err
	}
	if _, err := c.w.Write(p); err != nil {
		return 0, err
	}
	if _, err := io.WriteString(c.w, "\r\n"); err != nil {
		return 0, err
	}
	return len(p), nil
}

// AddTrailer queues a trailer field to be emitted by End. Calling it after
// End has no effect.
func (c *ChunkedWriter) AddTrailer(name, value string) {
	if c.ended {
		return
	}
	c.trailers = append(c.trailers, header.View{Name: name, Value: value})
}

// End writes the terminating zero-length chunk followed by any queued
// trailer fields and the final blank line. It is idempotent: a second call
// is a no-op.
func (c *ChunkedWriter) End() error {
	if c.ended {
		return nil
	}
	c.ended = true
	if _, err := io.WriteString(c.w, "0\r\n"); err != nil {
		return err
	}
	for _, t := range c.trailers {
		if _, err := io.WriteString(c.w, t.Name+": "+t.Value+"\r\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(c.w, "\r\n")
	return err
}
