// Package message defines the request/response value types shared by the
// router (component E), the HTTP/1.1 parser (component F), and the response
// builder (component G), so each can be developed and tested independently
// against the same small surface.
package message

import (
	"github.com/aeronet-go/aeronet/pkg/header"
	"github.com/aeronet-go/aeronet/pkg/payload"
)

// PathParam is one named or positionally-indexed capture from a matched
// router pattern.
type PathParam struct {
	Name  string
	Value string
}

// Request is the in-memory view of one parsed HTTP/1.1 request, backed by
// views into the connection's input buffer wherever possible.
type Request struct {
	Method     string
	Path       string
	Query      string
	Version    string
	Headers    *header.Index
	PathParams []PathParam
	Body       payload.Payload
}

// Param returns the value of the first path parameter named name.
func (r *Request) Param(name string) (string, bool) {
	for _, p := range r.PathParams {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Response is the in-memory, not-yet-serialized view of an HTTP/1.1
// response under construction by a handler.
type Response struct {
	StatusCode int
	Reason     string
	Headers    *header.Index
	Body       payload.Payload
	Trailers   []header.View
}

// NewResponse returns an empty 200 OK response with a fresh header index.
func NewResponse() *Response {
	return &Response{StatusCode: 200, Headers: header.NewIndex()}
}

// StreamingWriter is implemented by the response builder's chunked-transfer
// writer (component G) and consumed by streaming handlers.
type StreamingWriter interface {
	Write(p []byte) (int, error)
	AddTrailer(name, value string)
	End() error
}

// RequestHandler synchronously produces a complete response.
type RequestHandler func(*Request) *Response

// StreamingHandler emits a response incrementally via w.
type StreamingHandler func(*Request, StreamingWriter)

// AsyncRequestHandler produces its response on a channel, allowing the
// caller (the event loop) to continue servicing other connections while it
// is pending.
type AsyncRequestHandler func(*Request) <-chan *Response
