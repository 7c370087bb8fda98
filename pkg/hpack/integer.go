package hpack

import "github.com/aeronet-go/aeronet/pkg/errors"

// maxIntegerValue bounds decoded integers to prevent unbounded accumulation
// from a malformed/adversarial continuation byte sequence.
const maxIntegerValue = 1 << 32

// EncodeInteger appends value to dst using the RFC 7541 §5.1 N-bit-prefix
// integer encoding: the first appended byte is prefixHighBits OR-ed with
// the low N bits of the prefix (prefixBits selects N).
func EncodeInteger(dst []byte, prefixBits uint8, prefixHighBits byte, value uint64) []byte {
	max := uint64(1)<<prefixBits - 1
	if value < max {
		return append(dst, prefixHighBits|byte(value))
	}
	dst = append(dst, prefixHighBits|byte(max))
	value -= max
	for value >= 128 {
		dst = append(dst, byte(value&0x7f)|0x80)
		value >>= 7
	}
	return append(dst, byte(value))
}

// DecodeInteger decodes an N-bit-prefix integer starting at data[0], whose
// high bits (8-prefixBits of them) have already been consumed by the caller.
// Returns the value and the number of bytes consumed.
func DecodeInteger(data []byte, prefixBits uint8) (value uint64, consumed int, err error) {
	if len(data) == 0 {
		return 0, 0, errors.NewProtocolError("hpack_integer", "truncated integer", nil)
	}
	max := uint64(1)<<prefixBits - 1
	value = uint64(data[0]) & max
	if value < max {
		return value, 1, nil
	}

	var m uint
	i := 1
	for {
		if i >= len(data) {
			return 0, 0, errors.NewProtocolError("hpack_integer", "truncated integer continuation", nil)
		}
		b := data[i]
		value += uint64(b&0x7f) << m
		i++
		if value > maxIntegerValue {
			return 0, 0, errors.NewProtocolError("hpack_integer", "integer overflow", nil)
		}
		if b&0x80 == 0 {
			break
		}
		m += 7
		if m > 63 {
			return 0, 0, errors.NewProtocolError("hpack_integer", "integer continuation too long", nil)
		}
	}
	return value, i, nil
}
