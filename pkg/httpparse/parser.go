// Package httpparse implements the incremental HTTP/1.1 request parser: the
// reactor (component I) feeds it the connection's input buffer after every
// readv, and it advances through request-line, header, and body states
// without ever blocking for more bytes. This is the server-side analogue of
// the teacher's client-side readResponse/readHeaders/readChunkedBody
// pipeline, restructured from blocking bufio.Reader calls into a resumable
// state machine driven by whatever bytes have arrived so far.
package httpparse

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/aeronet-go/aeronet/pkg/buffer"
	"github.com/aeronet-go/aeronet/pkg/constants"
	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/header"
	"github.com/aeronet-go/aeronet/pkg/message"
	"github.com/aeronet-go/aeronet/pkg/payload"
)

type state int

const (
	stateRequestLine state = iota
	stateHeaders
	stateBody
	stateDone
)

// Limits bounds the parser's tolerance for oversized input, defaulting to
// the core's constants but overridable per ServerConfig.
type Limits struct {
	MaxRequestLineLength int
	MaxHeaderLineLength  int
	MaxHeaderCount       int
	MaxContentLength     int64
	BodyMemLimit         int64
}

// DefaultLimits mirrors constants.go's package-level defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxRequestLineLength: constants.MaxRequestLineLength,
		MaxHeaderLineLength:  constants.MaxHeaderLineLength,
		MaxHeaderCount:       constants.MaxHeaderCount,
		MaxContentLength:     constants.MaxContentLength,
		BodyMemLimit:         constants.DefaultBodyMemLimit,
	}
}

// Parser is a resumable HTTP/1.1 request parser. It is not safe for
// concurrent use; one Parser belongs to exactly one connection, matching
// the single-reactor-owns-its-state model the rest of the core follows.
type Parser struct {
	limits Limits

	state    state
	consumed int // bytes of buf fully parsed and attributable to the current request
	scanFrom int // offset into buf[consumed:] already scanned without finding a line terminator

	method, target, version string

	headers    *header.Index
	headerScan *headerScanner

	framing  framing
	body     bodyDecoder
	bodySink *buffer.SpillBuffer
}

type framing int

const (
	framingNone framing = iota
	framingContentLength
	framingChunked
)

// NewParser returns a parser ready to parse a request line from byte 0.
func NewParser(limits Limits) *Parser {
	p := &Parser{limits: limits}
	p.reset()
	return p
}

func (p *Parser) reset() {
	p.state = stateRequestLine
	p.consumed = 0
	p.scanFrom = 0
	p.method, p.target, p.version = "", "", ""
	p.headers = header.NewIndex()
	p.headerScan = newHeaderScanner(p.headers)
	p.framing = framingNone
	p.body = nil
	p.bodySink = nil
}

// Consumed returns how many bytes at the front of the fed buffer have been
// attributed to the request parsed so far (complete or in progress).
func (p *Parser) Consumed() int { return p.consumed }

// Feed advances parsing using whatever bytes are newly available in buf
// (buf always holds the connection's entire unconsumed input, starting at
// offset 0; Feed tracks its own progress through it). It returns the parsed
// request once the request line, headers, and body are all complete; the
// caller should then buf.EraseFront(p.Consumed()) and call Reset before
// feeding the next pipelined request.
func (p *Parser) Feed(buf *buffer.Growable) (*message.Request, error) {
	data := buf.Bytes()

	for {
		switch p.state {
		case stateRequestLine:
			line, ok, err := p.nextLine(data, p.limits.MaxRequestLineLength, "request line too long")
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			method, target, version, err := parseRequestLine(line)
			if err != nil {
				return nil, err
			}
			p.method, p.target, p.version = method, target, version
			p.state = stateHeaders

		case stateHeaders:
			line, ok, err := p.nextLine(data, p.limits.MaxHeaderLineLength, "header line too long")
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			done, err := p.headerScan.feedLine(line, p.limits.MaxHeaderCount)
			if err != nil {
				return nil, err
			}
			if done {
				if err := p.startBody(); err != nil {
					return nil, err
				}
				p.state = stateBody
			}

		case stateBody:
			done, err := p.feedBody(data)
			if err != nil {
				return nil, err
			}
			if !done {
				return nil, nil
			}
			p.state = stateDone

		case stateDone:
			path, query := splitTarget(p.target)
			req := &message.Request{
				Method:  p.method,
				Path:    path,
				Query:   query,
				Version: p.version,
				Headers: p.headers,
				Body:    p.finishBody(),
			}
			return req, nil
		}
	}
}

// Reset prepares the parser to parse the next pipelined request, after the
// caller has erased the previously-consumed bytes from the front of its
// buffer.
func (p *Parser) Reset() { p.reset() }

// nextLine searches data[p.consumed+p.scanFrom:] for a line terminator,
// returning the line content (CRLF or bare LF stripped) without rescanning
// bytes already known not to contain one.
func (p *Parser) nextLine(data []byte, maxLen int, tooLongMsg string) (line string, ok bool, err error) {
	window := data[p.consumed:]
	idx := bytes.IndexByte(window[p.scanFrom:], '\n')
	if idx < 0 {
		if len(window) > maxLen {
			return "", false, errors.NewProtocolError("parse_http", tooLongMsg, nil)
		}
		p.scanFrom = len(window)
		return "", false, nil
	}
	end := p.scanFrom + idx + 1
	if end > maxLen {
		return "", false, errors.NewProtocolError("parse_http", tooLongMsg, nil)
	}
	raw := window[:end]
	p.consumed += end
	p.scanFrom = 0

	trimmed := strings.TrimSuffix(string(raw), "\n")
	trimmed = strings.TrimSuffix(trimmed, "\r")
	return trimmed, true, nil
}

// startBody selects the body framing per RFC 9112 §6.3: chunked
// Transfer-Encoding takes priority over Content-Length; a request with
// neither carries no body, matching the teacher's readBody dispatch
// adapted to the request (rather than response) side, where there is no
// read-until-close framing since a request cannot be delimited by
// connection close.
func (p *Parser) startBody() error {
	te := strings.ToLower(p.headers.GetOrEmpty("Transfer-Encoding"))
	cl := p.headers.GetOrEmpty("Content-Length")

	p.bodySink = buffer.NewSpillBuffer(p.limits.BodyMemLimit)

	switch {
	case strings.Contains(te, "chunked"):
		p.framing = framingChunked
		p.body = newChunkedDecoder()
		return nil
	case cl != "":
		length, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if err != nil || length < 0 {
			return errors.NewProtocolError("parse_http", "invalid Content-Length", nil)
		}
		if length > p.limits.MaxContentLength {
			return errors.NewProtocolError("parse_http", "Content-Length too large", nil)
		}
		p.framing = framingContentLength
		p.body = newFixedLengthDecoder(length)
		return nil
	default:
		p.framing = framingNone
		p.body = nil
		return nil
	}
}

func (p *Parser) feedBody(data []byte) (bool, error) {
	if p.body == nil {
		return true, nil
	}
	window := data[p.consumed:]
	n, done, err := p.body.feed(window, p.bodySink, p.headers)
	p.consumed += n
	if err != nil {
		return false, err
	}
	return done, nil
}

func (p *Parser) finishBody() payload.Payload {
	if p.bodySink == nil || p.bodySink.Size() == 0 {
		return payload.Empty()
	}
	if p.bodySink.IsSpilled() {
		return payload.FromFile(p.bodySink.Path(), 0, p.bodySink.Size())
	}
	return payload.FromOwned(p.bodySink.Bytes())
}
