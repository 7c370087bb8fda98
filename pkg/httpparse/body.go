package httpparse

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/aeronet-go/aeronet/pkg/buffer"
	"github.com/aeronet-go/aeronet/pkg/constants"
	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/header"
)

// bodyDecoder incrementally consumes a request body from whatever prefix of
// data is currently available, writing decoded bytes to sink. It returns
// how many bytes of data it consumed (always processed, even when not yet
// done) and whether the body is now complete.
type bodyDecoder interface {
	feed(data []byte, sink *buffer.SpillBuffer, trailers *header.Index) (consumed int, done bool, err error)
}

// fixedLengthDecoder implements Content-Length framing, the request-side
// analogue of the teacher's readFixedBody — but incremental, since data may
// arrive across many separate reads rather than one blocking io.CopyN.
type fixedLengthDecoder struct {
	remaining int64
}

func newFixedLengthDecoder(length int64) *fixedLengthDecoder {
	return &fixedLengthDecoder{remaining: length}
}

func (d *fixedLengthDecoder) feed(data []byte, sink *buffer.SpillBuffer, _ *header.Index) (int, bool, error) {
	if d.remaining == 0 {
		return 0, true, nil
	}
	n := len(data)
	if int64(n) > d.remaining {
		n = int(d.remaining)
	}
	if n > 0 {
		if _, err := sink.Write(data[:n]); err != nil {
			return 0, false, err
		}
	}
	d.remaining -= int64(n)
	return n, d.remaining == 0, nil
}

type chunkedSub int

const (
	chunkSubSize chunkedSub = iota
	chunkSubData
	chunkSubDataCRLF
	chunkSubTrailer
)

// chunkedDecoder implements chunked Transfer-Encoding framing, the
// request-side analogue of the teacher's readChunkedBody, restructured as a
// resumable sub-state-machine: a chunk-size line, that many data bytes, the
// trailing CRLF, repeated until a zero-size chunk, followed by a trailer
// header section terminated by a blank line (RFC 9112 §7.1).
type chunkedDecoder struct {
	sub           chunkedSub
	lineAcc       []byte
	remaining     int64
	crlfRemaining int
	trailerScan   *headerScanner
}

func newChunkedDecoder() *chunkedDecoder {
	return &chunkedDecoder{sub: chunkSubSize}
}

func (d *chunkedDecoder) feed(data []byte, sink *buffer.SpillBuffer, trailers *header.Index) (int, bool, error) {
	if d.trailerScan == nil {
		d.trailerScan = newHeaderScanner(trailers)
	}

	pos := 0
	for {
		switch d.sub {
		case chunkSubSize, chunkSubTrailer:
			idx := bytes.IndexByte(data[pos:], '\n')
			if idx < 0 {
				d.lineAcc = append(d.lineAcc, data[pos:]...)
				return len(data), false, nil
			}
			line := append(d.lineAcc, data[pos:pos+idx+1]...)
			d.lineAcc = nil
			pos += idx + 1

			text := strings.TrimSuffix(string(line), "\n")
			text = strings.TrimSuffix(text, "\r")

			if d.sub == chunkSubSize {
				sizeStr := text
				if semi := strings.IndexByte(sizeStr, ';'); semi >= 0 {
					sizeStr = sizeStr[:semi]
				}
				size, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 16, 64)
				if err != nil || size < 0 {
					return pos, false, errors.NewProtocolError("parse_chunked_body", "invalid chunk size", nil)
				}
				if size == 0 {
					d.sub = chunkSubTrailer
				} else {
					d.remaining = size
					d.sub = chunkSubData
				}
				continue
			}

			// Trailer line.
			done, err := d.trailerScan.feedLine(text, constants.MaxHeaderCount)
			if err != nil {
				return pos, false, err
			}
			if done {
				return pos, true, nil
			}
			continue

		case chunkSubData:
			avail := len(data) - pos
			n := avail
			if int64(n) > d.remaining {
				n = int(d.remaining)
			}
			if n > 0 {
				if _, err := sink.Write(data[pos : pos+n]); err != nil {
					return pos, false, err
				}
				pos += n
				d.remaining -= int64(n)
			}
			if d.remaining > 0 {
				return pos, false, nil
			}
			d.sub = chunkSubDataCRLF
			d.crlfRemaining = 2
			continue

		case chunkSubDataCRLF:
			avail := len(data) - pos
			n := avail
			if n > d.crlfRemaining {
				n = d.crlfRemaining
			}
			pos += n
			d.crlfRemaining -= n
			if d.crlfRemaining > 0 {
				return pos, false, nil
			}
			d.sub = chunkSubSize
			continue
		}
	}
}
