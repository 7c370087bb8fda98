package response

import (
	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/header"
	"github.com/aeronet-go/aeronet/pkg/message"
	"github.com/aeronet-go/aeronet/pkg/payload"
)

// Builder wraps a message.Response under construction by a handler,
// enforcing the one ordering invariant the wire format needs: a trailer
// cannot be appended before the body it follows has been set, since
// trailers only make sense once the body's extent (and therefore where the
// trailer section begins) is known.
type Builder struct {
	resp     *message.Response
	bodySet  bool
	fileBody bool
}

// New returns a builder around a fresh 200 OK response.
func New() *Builder {
	return &Builder{resp: message.NewResponse()}
}

// Wrap adapts an already-built message.Response (e.g. one assembled by a
// router default-handler) into a Builder, inferring bodySet from whether it
// already carries a body.
func Wrap(resp *message.Response) *Builder {
	return &Builder{resp: resp, bodySet: !resp.Body.Empty(), fileBody: resp.Body.IsFile()}
}

// Response returns the response under construction.
func (b *Builder) Response() *message.Response { return b.resp }

// Status sets the status code and, if reason is non-empty, an explicit
// reason phrase overriding the standard table lookup BuildHead would
// otherwise use.
func (b *Builder) Status(code int, reason string) *Builder {
	b.resp.StatusCode = code
	b.resp.Reason = reason
	return b
}

// AddHeader appends a header occurrence without scanning for an existing
// one, the fast path for headers a handler knows are not already present
// (e.g. a freshly constructed response).
func (b *Builder) AddHeader(name, value string) *Builder {
	b.resp.Headers.Add(name, value)
	return b
}

// Header upserts a header value, replacing any prior occurrence under the
// same (case-insensitive) name — the slower, scanning counterpart to
// AddHeader for handlers that don't know whether the name is already set.
func (b *Builder) Header(name, value string) *Builder {
	b.resp.Headers.Delete(name)
	b.resp.Headers.Add(name, value)
	return b
}

// AppendHeaderValue merges value onto an existing header's value with a
// ", " separator regardless of whether name is in the mergeable set,
// matching the explicit append operation a handler reaches for when it
// wants accumulation it controls itself (e.g. building up a Link header).
func (b *Builder) AppendHeaderValue(name, value string) *Builder {
	if existing, ok := b.resp.Headers.Get(name); ok {
		b.resp.Headers.Delete(name)
		b.resp.Headers.Add(name, existing+", "+value)
		return b
	}
	b.resp.Headers.Add(name, value)
	return b
}

// Location sets the Location header, the common case for redirects.
func (b *Builder) Location(url string) *Builder {
	return b.Header("Location", url)
}

// ContentEncoding sets the Content-Encoding header on a response whose body
// the caller has already compressed itself (as opposed to the outbound
// encoding pipeline, component J, negotiating and compressing on the
// handler's behalf).
func (b *Builder) ContentEncoding(coding string) *Builder {
	return b.Header("Content-Encoding", coding)
}

// Body sets an owned, independently-allocated body.
func (b *Builder) Body(data []byte) *Builder {
	b.resp.Body = payload.FromOwned(data)
	b.bodySet = true
	b.fileBody = false
	return b
}

// BodyString sets a borrowed string view as the body; the caller guarantees
// the string outlives the response's transmission (true for any Go string
// literal or already-owned string value).
func (b *Builder) BodyString(s string) *Builder {
	b.resp.Body = payload.FromView(s)
	b.bodySet = true
	b.fileBody = false
	return b
}

// AppendBody concatenates data onto whatever body is already set, copying
// the prior content into a freshly owned buffer. Callers building a body
// incrementally out of several pieces should prefer assembling a single
// slice first; AppendBody exists for the cases that can't.
func (b *Builder) AppendBody(data []byte) *Builder {
	if b.fileBody {
		return b
	}
	prior := b.resp.Body.View()
	merged := make([]byte, 0, len(prior)+len(data))
	merged = append(merged, prior...)
	merged = append(merged, data...)
	b.resp.Body = payload.FromOwned(merged)
	b.bodySet = true
	return b
}

// File sets a file-backed body transmitted via the transport's
// writable-region primitive rather than being read into memory. A file
// body precludes trailers: AddTrailer after File returns an error.
func (b *Builder) File(path string, offset, length int64) *Builder {
	b.resp.Body = payload.FromFile(path, offset, length)
	b.bodySet = true
	b.fileBody = true
	return b
}

// AddTrailer appends a trailer field, valid only once a body has been set
// (inline, captured, or file) and only for a non-file body, matching the
// ordering and file-precludes-trailers invariants of the wire format.
func (b *Builder) AddTrailer(name, value string) error {
	if !b.bodySet {
		return errors.NewProtocolError("add_trailer", "trailer added before body was set", nil)
	}
	if b.fileBody {
		return errors.NewProtocolError("add_trailer", "file-backed responses cannot carry trailers", nil)
	}
	b.resp.Trailers = append(b.resp.Trailers, header.View{Name: name, Value: value})
	return nil
}
