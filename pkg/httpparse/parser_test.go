package httpparse

import (
	"testing"

	"github.com/aeronet-go/aeronet/pkg/buffer"
)

func TestParseSimpleGETNoBody(t *testing.T) {
	buf := buffer.NewGrowable(0)
	buf.AppendString("GET /hello?x=1 HTTP/1.1\r\nHost: example.com\r\n\r\n")

	p := NewParser(DefaultLimits())
	req, err := p.Feed(buf)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if req == nil {
		t.Fatalf("expected a complete request")
	}
	if req.Method != "GET" || req.Path != "/hello" || req.Query != "x=1" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if v, _ := req.Headers.Get("Host"); v != "example.com" {
		t.Fatalf("Host = %q", v)
	}
	if !req.Body.Empty() {
		t.Fatalf("expected an empty body")
	}
	if p.Consumed() != buf.Len() {
		t.Fatalf("Consumed() = %d, want %d (entire buffer)", p.Consumed(), buf.Len())
	}
}

func TestParseFedByteByByte(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: a\r\n\r\n"
	buf := buffer.NewGrowable(0)
	p := NewParser(DefaultLimits())

	for i := 0; i < len(raw); i++ {
		buf.AppendString(string(raw[i]))
		parsed, err := p.Feed(buf)
		if err != nil {
			t.Fatalf("Feed at byte %d: %v", i, err)
		}
		if parsed != nil {
			if i != len(raw)-1 {
				t.Fatalf("request completed early at byte %d of %d", i, len(raw)-1)
			}
			if parsed.Method != "GET" {
				t.Fatalf("Method = %q", parsed.Method)
			}
			return
		}
	}
	t.Fatalf("request never completed")
}

func TestParseContentLengthBody(t *testing.T) {
	buf := buffer.NewGrowable(0)
	buf.AppendString("POST /submit HTTP/1.1\r\nHost: a\r\nContent-Length: 5\r\n\r\nhello")

	p := NewParser(DefaultLimits())
	req, err := p.Feed(buf)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if req == nil {
		t.Fatalf("expected a complete request")
	}
	if string(req.Body.View()) != "hello" {
		t.Fatalf("Body = %q, want hello", req.Body.View())
	}
}

func TestParseContentLengthBodyAcrossFeeds(t *testing.T) {
	buf := buffer.NewGrowable(0)
	head := "POST /submit HTTP/1.1\r\nHost: a\r\nContent-Length: 10\r\n\r\n"
	buf.AppendString(head)

	p := NewParser(DefaultLimits())
	req, err := p.Feed(buf)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if req != nil {
		t.Fatalf("expected incomplete request (body not yet arrived)")
	}

	buf.AppendString("01234")
	req, err = p.Feed(buf)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if req != nil {
		t.Fatalf("expected still-incomplete request")
	}

	buf.AppendString("56789")
	req, err = p.Feed(buf)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if req == nil {
		t.Fatalf("expected a complete request")
	}
	if string(req.Body.View()) != "0123456789" {
		t.Fatalf("Body = %q", req.Body.View())
	}
}

func TestParseChunkedBodyWithTrailer(t *testing.T) {
	buf := buffer.NewGrowable(0)
	buf.AppendString("POST /upload HTTP/1.1\r\n" +
		"Host: a\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"\r\n" +
		"4\r\n" +
		"Wiki\r\n" +
		"5\r\n" +
		"pedia\r\n" +
		"0\r\n" +
		"X-Trailer: done\r\n" +
		"\r\n")

	p := NewParser(DefaultLimits())
	req, err := p.Feed(buf)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if req == nil {
		t.Fatalf("expected a complete request")
	}
	if string(req.Body.View()) != "Wikipedia" {
		t.Fatalf("Body = %q, want Wikipedia", req.Body.View())
	}
	if v, ok := req.Headers.Get("X-Trailer"); !ok || v != "done" {
		t.Fatalf("X-Trailer = %q, ok=%v", v, ok)
	}
}

func TestPipelinedRequestsReuseParserAfterReset(t *testing.T) {
	buf := buffer.NewGrowable(0)
	buf.AppendString("GET /one HTTP/1.1\r\nHost: a\r\n\r\nGET /two HTTP/1.1\r\nHost: a\r\n\r\n")

	p := NewParser(DefaultLimits())
	first, err := p.Feed(buf)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if first == nil || first.Path != "/one" {
		t.Fatalf("first = %+v", first)
	}

	buf.EraseFront(p.Consumed())
	p.Reset()

	second, err := p.Feed(buf)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if second == nil || second.Path != "/two" {
		t.Fatalf("second = %+v", second)
	}
}

func TestOversizedHeaderLineRejected(t *testing.T) {
	buf := buffer.NewGrowable(0)
	limits := DefaultLimits()
	limits.MaxHeaderLineLength = 16
	buf.AppendString("GET / HTTP/1.1\r\nX-Long: this-value-is-too-long-for-the-limit\r\n\r\n")

	p := NewParser(limits)
	_, err := p.Feed(buf)
	if err == nil {
		t.Fatalf("expected an error for an oversized header line")
	}
}

func TestMalformedRequestLineRejected(t *testing.T) {
	buf := buffer.NewGrowable(0)
	buf.AppendString("GET /no-version\r\n\r\n")

	p := NewParser(DefaultLimits())
	_, err := p.Feed(buf)
	if err == nil {
		t.Fatalf("expected an error for a malformed request line")
	}
}
