package encoding

import (
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/aeronet-go/aeronet/pkg/errors"
)

// NewEncoder wraps w with a streaming compressor for coding, chosen once
// at response-writer construction time per §4.J ("for streaming handlers
// the codec is chosen once at writer construction"). Identity wraps w in
// a no-op Close, so the passthrough path never touches a codec at all.
func NewEncoder(coding string, w io.Writer) (io.WriteCloser, error) {
	switch coding {
	case Identity, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	case Deflate:
		return flate.NewWriter(w, flate.DefaultCompression)
	case Brotli:
		return brotli.NewWriterLevel(w, brotli.DefaultCompression), nil
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, errors.NewResourceError("encoding.NewEncoder", err.Error())
		}
		return enc, nil
	default:
		return nil, errors.NewResourceError("encoding.NewEncoder", "unsupported content-coding: "+coding)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// newDecoder returns a one-shot decompressing reader for coding. The
// caller is responsible for closing it if it implements io.Closer (zstd's
// does; gzip/flate/brotli readers in this stack do not need closing).
func newDecoder(coding string, r io.Reader) (io.Reader, error) {
	switch coding {
	case Identity, "":
		return r, nil
	case Gzip:
		return gzip.NewReader(r)
	case Deflate:
		return flate.NewReader(r), nil
	case Brotli:
		return brotli.NewReader(r), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, errors.NewProtocolError("encoding.decode", "unsupported content-coding: "+coding, nil)
	}
}
