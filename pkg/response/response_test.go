package response

import (
	"strings"
	"testing"
	"time"

	"github.com/aeronet-go/aeronet/pkg/header"
	"github.com/aeronet-go/aeronet/pkg/message"
)

var fixedTime = time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

func TestBuildHeadSimpleResponse(t *testing.T) {
	b := New().Status(200, "").Body([]byte("hello"))
	b.AddHeader("Content-Type", "text/plain")

	head := string(BuildHead(b.Response(), "HTTP/1.1", fixedTime, true, false, false))

	if !strings.HasPrefix(head, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line: %q", head)
	}
	if !strings.Contains(head, "Content-Type: text/plain\r\n") {
		t.Fatalf("missing Content-Type: %q", head)
	}
	if !strings.Contains(head, "Content-Length: 5\r\n") {
		t.Fatalf("missing Content-Length: %q", head)
	}
	if !strings.Contains(head, "Connection: keep-alive\r\n") {
		t.Fatalf("missing Connection: %q", head)
	}
	if !strings.Contains(head, "Date: Thu, 14 Mar 2024 15:09:26 GMT\r\n") {
		t.Fatalf("missing Date: %q", head)
	}
	if !strings.HasSuffix(head, "\r\n\r\n") {
		t.Fatalf("missing terminating blank line: %q", head)
	}
}

func TestBuildHeadReasonFallsBackToTable(t *testing.T) {
	b := New().Status(404, "")
	head := string(BuildHead(b.Response(), "HTTP/1.1", fixedTime, false, false, false))
	if !strings.HasPrefix(head, "HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("status line: %q", head)
	}
	if !strings.Contains(head, "Connection: close\r\n") {
		t.Fatalf("missing Connection: close: %q", head)
	}
}

func TestBuildHeadUserSetReservedHeaderIgnored(t *testing.T) {
	b := New().Status(200, "")
	b.AddHeader("Content-Length", "999")
	b.Body([]byte("ok"))

	head := string(BuildHead(b.Response(), "HTTP/1.1", fixedTime, true, false, false))
	if strings.Contains(head, "999") {
		t.Fatalf("handler-set Content-Length leaked through: %q", head)
	}
	if !strings.Contains(head, "Content-Length: 2\r\n") {
		t.Fatalf("expected computed Content-Length: %q", head)
	}
}

func TestBuildHeadNoContentLengthFor204(t *testing.T) {
	b := New().Status(204, "")
	head := string(BuildHead(b.Response(), "HTTP/1.1", fixedTime, true, false, false))
	if strings.Contains(head, "Content-Length") {
		t.Fatalf("204 must not carry Content-Length: %q", head)
	}
}

func TestBuildHeadStreamingUsesChunkedEncoding(t *testing.T) {
	b := New().Status(200, "")
	head := string(BuildHead(b.Response(), "HTTP/1.1", fixedTime, true, false, true))
	if !strings.Contains(head, "Transfer-Encoding: chunked\r\n") {
		t.Fatalf("missing Transfer-Encoding: %q", head)
	}
	if strings.Contains(head, "Content-Length") {
		t.Fatalf("streaming response must not carry Content-Length: %q", head)
	}
}

func TestBuildHeadStreamingWithTrailersDeclaresTrailerHeader(t *testing.T) {
	resp := message.NewResponse()
	resp.Trailers = append(resp.Trailers, header.View{Name: "X-Checksum", Value: "abc"})

	head := string(BuildHead(resp, "HTTP/1.1", fixedTime, true, false, true))
	if !strings.Contains(head, "Trailer: X-Checksum\r\n") {
		t.Fatalf("missing Trailer header: %q", head)
	}
}

func TestAddTrailerBeforeBodyIsRejected(t *testing.T) {
	b := New().Status(200, "")
	if err := b.AddTrailer("X-Checksum", "abc"); err == nil {
		t.Fatalf("expected an error adding a trailer before the body is set")
	}
}

func TestAddTrailerAfterBodyIsAccepted(t *testing.T) {
	b := New().Status(200, "").Body([]byte("data"))
	if err := b.AddTrailer("X-Checksum", "abc"); err != nil {
		t.Fatalf("AddTrailer: %v", err)
	}
	if len(b.Response().Trailers) != 1 || b.Response().Trailers[0].Value != "abc" {
		t.Fatalf("trailer not recorded: %+v", b.Response().Trailers)
	}
}

func TestFilePayloadRejectsTrailers(t *testing.T) {
	b := New().Status(200, "").File("/tmp/does-not-need-to-exist", 0, 100)
	if err := b.AddTrailer("X-Checksum", "abc"); err == nil {
		t.Fatalf("expected an error adding a trailer to a file-backed response")
	}
}

func TestHeaderUpsertReplacesPriorValue(t *testing.T) {
	b := New().Status(200, "")
	b.Header("X-Version", "1")
	b.Header("X-Version", "2")
	v, _ := b.Response().Headers.Get("X-Version")
	if v != "2" {
		t.Fatalf("X-Version = %q, want 2", v)
	}
}

func TestChunkedWriterFramesAndBuffersTrailers(t *testing.T) {
	var sink strings.Builder
	cw := NewChunkedWriter(&sink)

	if _, err := cw.Write([]byte("Wiki")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := cw.Write([]byte("pedia")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cw.AddTrailer("X-Done", "yes")
	if err := cw.End(); err != nil {
		t.Fatalf("End: %v", err)
	}

	want := "4\r\nWiki\r\n5\r\npedia\r\n0\r\nX-Done: yes\r\n\r\n"
	if sink.String() != want {
		t.Fatalf("output = %q, want %q", sink.String(), want)
	}
}

func TestChunkedWriterEmptyWriteIsNoop(t *testing.T) {
	var sink strings.Builder
	cw := NewChunkedWriter(&sink)
	if n, err := cw.Write(nil); n != 0 || err != nil {
		t.Fatalf("Write(nil) = %d, %v", n, err)
	}
	if err := cw.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if sink.String() != "0\r\n\r\n" {
		t.Fatalf("output = %q", sink.String())
	}
}

func TestChunkedWriterEndIsIdempotent(t *testing.T) {
	var sink strings.Builder
	cw := NewChunkedWriter(&sink)
	if err := cw.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	before := sink.String()
	if err := cw.End(); err != nil {
		t.Fatalf("second End: %v", err)
	}
	if sink.String() != before {
		t.Fatalf("second End wrote more output: %q", sink.String())
	}
}
