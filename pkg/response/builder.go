// Package response turns a message.Response (and, for streaming handlers, a
// chunked-transfer writer) into the bytes that go out on the wire. It is the
// server-side counterpart to the teacher's client-side response *parsing* in
// pkg/client/client.go, grounded instead on the HttpResponse head-building
// logic of the server core this project was modeled on: a response head is
// built as one contiguous run of bytes (status line, headers, blank line),
// with a fixed set of headers the core reserves for itself and injects at
// finalize time rather than letting a handler set them directly.
package response

import (
	"strconv"
	"time"

	"github.com/aeronet-go/aeronet/pkg/buffer"
	"github.com/aeronet-go/aeronet/pkg/header"
	"github.com/aeronet-go/aeronet/pkg/message"
)

// reservedHeaders names the response headers the core computes itself;
// anything a handler sets under these names is ignored when the head is
// built, mirroring the "reserved headers" a handler cannot set directly.
var reservedHeaders = map[string]bool{
	"date":              true,
	"connection":        true,
	"content-length":    true,
	"transfer-encoding": true,
	"trailer":           true,
}

// httpDate is the RFC 9110 §5.6.7 IMF-fixdate format used by the Date header.
const httpDate = "Mon, 02 Jan 2006 15:04:05 GMT"

// BuildHead serializes resp's status line and headers, plus the reserved
// headers this function injects, into a single buffer ending in the blank
// line that separates headers from body. It never writes body bytes: the
// caller appends resp.Body itself (or, for a streaming response, hands the
// connection off to a ChunkedWriter) once the head has been flushed.
//
// headMethod suppresses nothing about the head itself (a HEAD response still
// reports the Content-Length its GET counterpart would have carried) but is
// needed so the caller knows not to follow the head with body bytes.
//
// streaming selects Transfer-Encoding: chunked instead of Content-Length;
// resp.Body is ignored in that case, since the body has not been produced
// yet (the caller will produce it through a ChunkedWriter) and
// resp.Trailers, if any, declare the Trailer header's field list up front
// per RFC 9112 §7.1.2 even though their values are only known once the
// stream ends.
func BuildHead(resp *message.Response, version string, now time.Time, keepAlive bool, headMethod bool, streaming bool) []byte {
	buf := buffer.NewGrowable(256)

	buf.AppendString(version)
	buf.AppendByte(' ')
	buf.AppendString(strconv.Itoa(resp.StatusCode))
	buf.AppendByte(' ')
	reason := resp.Reason
	if reason == "" {
		reason = ReasonPhrase(resp.StatusCode)
	}
	buf.AppendString(reason)
	buf.AppendString("\r\n")

	if resp.Headers != nil {
		for _, name := range resp.Headers.Names() {
			if reservedHeaders[name] {
				continue
			}
			for _, occ := range resp.Headers.Occurrences(name) {
				writeHeaderLine(buf, occ)
			}
		}
	}

	writeHeaderLine(buf, header.View{Name: "Date", Value: now.UTC().Format(httpDate)})

	if keepAlive {
		writeHeaderLine(buf, header.View{Name: "Connection", Value: "keep-alive"})
	} else {
		writeHeaderLine(buf, header.View{Name: "Connection", Value: "close"})
	}

	switch {
	case streaming:
		writeHeaderLine(buf, header.View{Name: "Transfer-Encoding", Value: "chunked"})
		if len(resp.Trailers) > 0 {
			writeHeaderLine(buf, header.View{Name: "Trailer", Value: trailerFieldList(resp.Trailers)})
		}
	case bodyCarriesContentLength(resp.StatusCode):
		writeHeaderLine(buf, header.View{Name: "Content-Length", Value: strconv.FormatInt(resp.Body.Len(), 10)})
	}

	buf.AppendString("\r\n")
	return buf.Bytes()
}

// bodyCarriesContentLength reports whether code's response is allowed to
// carry a body at all per RFC 9110 §6.4.1; 1xx, 204, and 304 never do, so
// Content-Length (even "Content-Length: 0") is omitted for them.
func bodyCarriesContentLength(code int) bool {
	if code >= 100 && code < 200 {
		return false
	}
	return code != 204 && code != 304
}

func trailerFieldList(trailers []header.View) string {
	seen := make(map[string]bool, len(trailers))
	var names []string
	for _, t := range trailers {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		names = append(names, t.Name)
	}
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

func writeHeaderLine(buf *buffer.Growable, v header.View) {
	buf.AppendString(v.Name)
	buf.AppendString(": ")
	buf.AppendString(v.Value)
	buf.AppendString("\r\n")
}
