package hpack

import "github.com/aeronet-go/aeronet/pkg/errors"

// DefaultDynamicTableSize is the protocol-default initial SETTINGS value for
// the dynamic table's max size.
const DefaultDynamicTableSize = 4096

// HeaderCallback receives one decoded (name, value) pair in wire order.
type HeaderCallback func(name, value string)

// Decoder holds the per-connection dynamic table and decodes header blocks.
type Decoder struct {
	table           *DynamicTable
	maxProtocolSize int
	sawHeaderField  bool // a size update must only appear before any header field
}

// NewDecoder returns a decoder bounded by maxDynamicTableSize (the value the
// server itself advertises it will honor via SETTINGS_HEADER_TABLE_SIZE).
func NewDecoder(maxDynamicTableSize int) *Decoder {
	if maxDynamicTableSize <= 0 {
		maxDynamicTableSize = DefaultDynamicTableSize
	}
	return &Decoder{table: NewDynamicTable(maxDynamicTableSize), maxProtocolSize: maxDynamicTableSize}
}

// DynamicTable exposes the decoder's table (for diagnostics/tests).
func (d *Decoder) DynamicTable() *DynamicTable { return d.table }

// SetMaxDynamicTableSize updates the protocol-announced ceiling; the peer
// may still choose to announce a smaller size via a table-size-update
// instruction, which is always honored down to its own value.
func (d *Decoder) SetMaxDynamicTableSize(n int) {
	d.maxProtocolSize = n
	if d.table.MaxSize() > n {
		d.table.SetMaxSize(n)
	}
}

// Decode parses a complete header block, invoking cb for each decoded
// (name, value) pair in order.
func (d *Decoder) Decode(data []byte, cb HeaderCallback) error {
	d.sawHeaderField = false
	pos := 0
	for pos < len(data) {
		b := data[pos]
		switch {
		case b&0x80 != 0: // 1xxxxxxx: indexed header field
			idx, n, err := DecodeInteger(data[pos:], 7)
			if err != nil {
				return err
			}
			if idx == 0 {
				return errors.NewProtocolError("hpack_decode", "indexed header field index 0", nil)
			}
			name, value, ok := d.table.Lookup(int(idx))
			if !ok {
				return errors.NewProtocolError("hpack_decode", "index out of range", nil)
			}
			cb(name, value)
			d.sawHeaderField = true
			pos += n

		case b&0xc0 == 0x40: // 01xxxxxx: literal with incremental indexing
			name, value, n, err := d.decodeLiteral(data[pos:], 6)
			if err != nil {
				return err
			}
			cb(name, value)
			d.table.Add(name, value)
			d.sawHeaderField = true
			pos += n

		case b&0xe0 == 0x20: // 001xxxxx: dynamic table size update
			if d.sawHeaderField {
				return errors.NewProtocolError("hpack_decode", "table size update after a header field", nil)
			}
			newSize, n, err := DecodeInteger(data[pos:], 5)
			if err != nil {
				return err
			}
			if int(newSize) > d.maxProtocolSize {
				return errors.NewProtocolError("hpack_decode", "table size update exceeds protocol maximum", nil)
			}
			d.table.SetMaxSize(int(newSize))
			pos += n

		case b&0xf0 == 0x10: // 0001xxxx: literal never indexed
			name, value, n, err := d.decodeLiteral(data[pos:], 4)
			if err != nil {
				return err
			}
			cb(name, value)
			d.sawHeaderField = true
			pos += n

		case b&0xf0 == 0x00: // 0000xxxx: literal without indexing
			name, value, n, err := d.decodeLiteral(data[pos:], 4)
			if err != nil {
				return err
			}
			cb(name, value)
			d.sawHeaderField = true
			pos += n

		default:
			return errors.NewProtocolError("hpack_decode", "unrecognized representation", nil)
		}
	}
	return nil
}

// decodeLiteral decodes a literal representation (name + value), where the
// name is either an index reference (nameIndex>0) or a literal string, and
// the prefixBits selects how many low bits of the first byte carry the name
// index (0 meaning "name follows as a literal string").
func (d *Decoder) decodeLiteral(data []byte, prefixBits uint8) (name, value string, consumed int, err error) {
	nameIdx, n, err := DecodeInteger(data, prefixBits)
	if err != nil {
		return "", "", 0, err
	}
	pos := n

	if nameIdx == 0 {
		s, n2, err := d.decodeString(data[pos:])
		if err != nil {
			return "", "", 0, err
		}
		name = s
		pos += n2
	} else {
		n2, v2, ok := d.table.Lookup(int(nameIdx))
		if !ok {
			return "", "", 0, errors.NewProtocolError("hpack_decode", "name index out of range", nil)
		}
		_ = v2
		name = n2
	}

	val, n3, err := d.decodeString(data[pos:])
	if err != nil {
		return "", "", 0, err
	}
	value = val
	pos += n3

	return name, value, pos, nil
}

// decodeString decodes a string literal per RFC 7541 §5.2: 1-bit Huffman
// flag, 7-bit-prefix length, then that many bytes (raw or Huffman-coded).
func (d *Decoder) decodeString(data []byte) (string, int, error) {
	if len(data) == 0 {
		return "", 0, errors.NewProtocolError("hpack_decode", "truncated string literal", nil)
	}
	huffman := data[0]&0x80 != 0
	length, n, err := DecodeInteger(data, 7)
	if err != nil {
		return "", 0, err
	}
	pos := n
	if pos+int(length) > len(data) {
		return "", 0, errors.NewProtocolError("hpack_decode", "string literal length exceeds remaining input", nil)
	}
	raw := data[pos : pos+int(length)]
	pos += int(length)

	if !huffman {
		return string(raw), pos, nil
	}
	s, err := HuffmanDecode(raw)
	if err != nil {
		return "", 0, err
	}
	return s, pos, nil
}
