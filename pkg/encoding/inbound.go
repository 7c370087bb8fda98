package encoding

import (
	"bytes"
	"io"

	"github.com/aeronet-go/aeronet/pkg/errors"
)

// Guards bounds a single decompression stage against decompression-bomb
// payloads, per §4.J: maxCompressedBytes caps the stage's input,
// maxDecompressedBytes caps its output, and maxExpansionRatio caps
// output/input even when both individual caps are satisfied.
type Guards struct {
	MaxCompressedBytes   int64
	MaxDecompressedBytes int64
	MaxExpansionRatio    float64
}

// DefaultGuards matches constants.go's body-size defaults: a decompressed
// stage may not exceed the request body memory limit, and no stage may
// expand its input by more than 100x.
func DefaultGuards(bodyMemLimit int64) Guards {
	return Guards{
		MaxCompressedBytes:   bodyMemLimit,
		MaxDecompressedBytes: bodyMemLimit,
		MaxExpansionRatio:    100,
	}
}

// boundedBuffer accumulates decompressed output, failing as soon as
// either the absolute cap or the input-relative expansion-ratio cap would
// be exceeded, so a decompression bomb is rejected mid-stream rather than
// after fully inflating into memory.
type boundedBuffer struct {
	buf   bytes.Buffer
	limit int64
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if int64(b.buf.Len()+len(p)) > b.limit {
		return 0, errors.NewResourceError("encoding.decode", "decompressed stage exceeded its size guard")
	}
	return b.buf.Write(p)
}

// Decode applies the Content-Encoding stages named by codings in order
// (already reversed into application order by SplitContentEncoding) to
// body, enforcing guards at every stage, and returns the fully decoded
// bytes.
func Decode(body []byte, codings []string, guards Guards) ([]byte, error) {
	current := body
	for _, coding := range codings {
		if coding == Identity {
			continue
		}
		if int64(len(current)) > guards.MaxCompressedBytes {
			return nil, errors.NewResourceError("encoding.decode", "compressed stage exceeded maxCompressedBytes")
		}
		decoded, err := decodeStage(current, coding, guards)
		if err != nil {
			return nil, err
		}
		current = decoded
	}
	return current, nil
}

func decodeStage(compressed []byte, coding string, guards Guards) ([]byte, error) {
	reader, err := newDecoder(coding, bytes.NewReader(compressed))
	if err != nil {
		return nil, errors.NewProtocolError("encoding.decode", "invalid "+coding+" stream", err)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	maxRatio := guards.MaxExpansionRatio
	if maxRatio <= 0 {
		maxRatio = 100
	}
	limit := guards.MaxDecompressedBytes
	if ratioCap := int64(float64(len(compressed)) * maxRatio); ratioCap > 0 && ratioCap < limit {
		limit = ratioCap
	}

	dst := &boundedBuffer{limit: limit}
	if _, err := io.Copy(dst, reader); err != nil {
		return nil, errors.NewProtocolError("encoding.decode", "decompression failed or exceeded guard limits", err)
	}
	return dst.buf.Bytes(), nil
}
