// Package wsdeflate implements the permessage-deflate WebSocket extension
// (RFC 7692): negotiation token parsing/response building and per-message
// compression. Framing itself is out of scope, as in the distilled spec;
// this package only ever sees already-extracted message payloads, the
// same boundary `original_source/aeronet/websocket/src/websocket-deflate.cpp`'s
// `DeflateContext::compress`/`decompress` draw around their own zlib calls.
package wsdeflate

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/aeronet-go/aeronet/pkg/concat"
	"github.com/aeronet-go/aeronet/pkg/errors"
)

const (
	extensionToken          = "permessage-deflate"
	serverNoContextTakeover = "server_no_context_takeover"
	clientNoContextTakeover = "client_no_context_takeover"
	serverMaxWindowBits     = "server_max_window_bits"
	clientMaxWindowBits     = "client_max_window_bits"
)

// trailer is the 4-byte empty stored block a sync flush ends with; per
// RFC 7692 §7.2.1 the compressor strips it from every message and the
// decompressor re-appends it before inflating.
var trailer = []byte{0x00, 0x00, 0xff, 0xff}

// finalBlock is an empty final stored block appended after the trailer so
// the inflater sees a complete stream and stops with io.EOF rather than
// io.ErrUnexpectedEOF.
var finalBlock = []byte{0x01, 0x00, 0x00, 0xff, 0xff}

// Params is one negotiated permessage-deflate parameter set, the Go
// analogue of DeflateNegotiatedParams.
type Params struct {
	ServerNoContextTakeover bool
	ClientNoContextTakeover bool
	ServerMaxWindowBits     int
	ClientMaxWindowBits     int
}

// DefaultParams matches the C++ DeflateConfig defaults: both directions
// keep context across messages, full 32K window.
func DefaultParams() Params {
	return Params{ServerMaxWindowBits: 15, ClientMaxWindowBits: 15}
}

// ParseOffer parses one `Sec-WebSocket-Extensions` offer token (already
// split out of the header's concatenated-token-list form by component B)
// against serverDefaults, returning (params, true) if the token names
// permessage-deflate and every parameter it carries is well-formed, or
// (zero, false) if the token is for a different extension or carries an
// invalid parameter value.
func ParseOffer(offer string, serverDefaults Params) (Params, bool) {
	parts := strings.Split(offer, ";")
	if len(parts) == 0 {
		return Params{}, false
	}
	name := strings.TrimSpace(parts[0])
	if !strings.EqualFold(name, extensionToken) {
		return Params{}, false
	}

	params := serverDefaults

	for _, raw := range parts[1:] {
		paramName, paramValue, hasValue := splitParam(raw)
		switch {
		case strings.EqualFold(paramName, serverNoContextTakeover):
			params.ServerNoContextTakeover = true
		case strings.EqualFold(paramName, clientNoContextTakeover):
			params.ClientNoContextTakeover = true
		case strings.EqualFold(paramName, serverMaxWindowBits):
			if hasValue {
				bits, ok := parseWindowBits(paramValue)
				if !ok {
					return Params{}, false
				}
				params.ServerMaxWindowBits = minInt(bits, serverDefaults.ServerMaxWindowBits)
			}
		case strings.EqualFold(paramName, clientMaxWindowBits):
			if hasValue {
				bits, ok := parseWindowBits(paramValue)
				if !ok {
					return Params{}, false
				}
				params.ClientMaxWindowBits = minInt(bits, serverDefaults.ClientMaxWindowBits)
			}
		}
		// Unknown parameters are ignored, per RFC 7692.
	}
	return params, true
}

func splitParam(raw string) (name string, value string, hasValue bool) {
	name = strings.TrimSpace(raw)
	if idx := strings.IndexByte(name, '='); idx >= 0 {
		value = strings.Trim(strings.TrimSpace(name[idx+1:]), `"`)
		name = strings.TrimSpace(name[:idx])
		hasValue = true
	}
	return name, value, hasValue
}

func parseWindowBits(value string) (int, bool) {
	bits, err := strconv.Atoi(value)
	if err != nil || bits < 8 || bits > 15 {
		return 0, false
	}
	return bits, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// BuildResponse renders the Sec-WebSocket-Extensions response token for
// an accepted offer, omitting any parameter at its default value.
func BuildResponse(p Params) string {
	tokens := concat.New("; ")
	tokens.Append(extensionToken)
	if p.ServerNoContextTakeover {
		tokens.Append(serverNoContextTakeover)
	}
	if p.ClientNoContextTakeover {
		tokens.Append(clientNoContextTakeover)
	}
	if p.ServerMaxWindowBits < 15 {
		tokens.Append(serverMaxWindowBits + "=" + strconv.Itoa(p.ServerMaxWindowBits))
	}
	if p.ClientMaxWindowBits < 15 {
		tokens.Append(clientMaxWindowBits + "=" + strconv.Itoa(p.ClientMaxWindowBits))
	}
	return tokens.String()
}

// Context holds one direction's negotiated parameters plus, when context
// takeover is in effect, the persistent compressor/decompressor pair that
// must survive across messages. isServerSide picks which half of Params
// governs this side's compress vs. decompress direction, mirroring
// DeflateContext's own constructor branch.
type Context struct {
	compressNoTakeover   bool
	decompressNoTakeover bool

	writer *flate.Writer
	wbuf   bytes.Buffer

	decompressWindow []byte
}

const maxWindowBytes = 32 * 1024

// NewContext builds a Context for one WebSocket connection side.
func NewContext(params Params, isServerSide bool) *Context {
	c := &Context{}
	if isServerSide {
		c.compressNoTakeover = params.ServerNoContextTakeover
		c.decompressNoTakeover = params.ClientNoContextTakeover
	} else {
		c.compressNoTakeover = params.ClientNoContextTakeover
		c.decompressNoTakeover = params.ServerNoContextTakeover
	}
	return c
}

// CompressMessage deflates one already-framed message payload, stripping
// the RFC 7692 trailing empty-block marker. Unless this side negotiated
// no_context_takeover, the same flate.Writer (and, crucially, its
// internal sliding-window state) is reused across every call: only the
// destination buffer is drained after each message, never the writer
// itself, since Writer.Reset would discard the compression window along
// with the destination and defeat context takeover entirely.
func (c *Context) CompressMessage(payload []byte) ([]byte, error) {
	if c.writer == nil {
		c.wbuf.Reset()
		w, err := flate.NewWriter(&c.wbuf, flate.DefaultCompression)
		if err != nil {
			return nil, errors.NewResourceError("wsdeflate.compress", err.Error())
		}
		c.writer = w
	}

	if _, err := c.writer.Write(payload); err != nil {
		return nil, errors.NewProtocolError("wsdeflate.compress", "deflate write failed", err)
	}
	if err := c.writer.Flush(); err != nil {
		return nil, errors.NewProtocolError("wsdeflate.compress", "deflate flush failed", err)
	}

	out := bytes.TrimSuffix(c.wbuf.Bytes(), trailer)
	result := make([]byte, len(out))
	copy(result, out)
	c.wbuf.Reset()

	if c.compressNoTakeover {
		c.writer = nil
	}
	return result, nil
}

// DecompressMessage re-appends the RFC 7692 trailer (then finalBlock) and inflates payload,
// enforcing maxDecompressedSize against a decompression bomb the same way
// component J's inbound guards do for ordinary content-codings. Unless
// this side negotiated no_context_takeover, the trailing maxWindowBytes
// of every message's decompressed output is kept as the dictionary for
// the next message's flate.NewReaderDict call, since klauspost/compress's
// Reader (like the standard library's) has no Reset-preserving-window
// primitive of its own — reconstructing it with an explicit dictionary
// is the documented way to carry the sliding window forward.
func (c *Context) DecompressMessage(payload []byte, maxDecompressedSize int64) ([]byte, error) {
	framed := make([]byte, 0, len(payload)+len(trailer)+len(finalBlock))
	framed = append(framed, payload...)
	framed = append(framed, trailer...)
	framed = append(framed, finalBlock...)

	reader := flate.NewReaderDict(bytes.NewReader(framed), c.decompressWindow)
	defer reader.Close()

	limited := io.LimitReader(reader, maxDecompressedSize+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.NewProtocolError("wsdeflate.decompress", "inflate failed", err)
	}
	if int64(len(out)) > maxDecompressedSize {
		return nil, errors.NewResourceError("wsdeflate.decompress", "message exceeded maxDecompressedSize")
	}

	if c.decompressNoTakeover {
		c.decompressWindow = nil
	} else {
		window := append(append([]byte{}, c.decompressWindow...), out...)
		if len(window) > maxWindowBytes {
			window = window[len(window)-maxWindowBytes:]
		}
		c.decompressWindow = window
	}
	return out, nil
}
