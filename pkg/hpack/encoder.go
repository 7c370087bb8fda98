package hpack

// IndexingMode selects how an encoded header field is represented with
// respect to the dynamic table.
type IndexingMode int

const (
	// Indexed performs literal-with-incremental-indexing: the field is
	// emitted and also inserted into the dynamic table.
	Indexed IndexingMode = iota
	// WithoutIndexing emits the field literally without inserting it.
	WithoutIndexing
	// NeverIndexed emits the field literally and marks it as one that
	// intermediaries must never index (e.g. sensitive header values).
	NeverIndexed
)

// Encoder holds the per-connection dynamic table and encodes header blocks.
type Encoder struct {
	table             *DynamicTable
	pendingSizeUpdate bool
	pendingSize       int
}

// NewEncoder returns an encoder bounded by maxDynamicTableSize.
func NewEncoder(maxDynamicTableSize int) *Encoder {
	if maxDynamicTableSize <= 0 {
		maxDynamicTableSize = DefaultDynamicTableSize
	}
	return &Encoder{table: NewDynamicTable(maxDynamicTableSize)}
}

// DynamicTable exposes the encoder's table (for diagnostics/tests).
func (e *Encoder) DynamicTable() *DynamicTable { return e.table }

// SetMaxDynamicTableSize records a pending table-size-update to be emitted
// before the next header field encoded; the encoder defers the actual
// instruction emission to the next Encode call per RFC 7541 §6.3.
func (e *Encoder) SetMaxDynamicTableSize(n int) {
	e.pendingSizeUpdate = true
	e.pendingSize = n
}

// EncodeDynamicTableSizeUpdate appends a standalone table-size-update
// instruction to dst and applies it to the table immediately.
func (e *Encoder) EncodeDynamicTableSizeUpdate(dst []byte, newSize int) []byte {
	e.table.SetMaxSize(newSize)
	return EncodeInteger(dst, 5, 0x20, uint64(newSize))
}

// Encode appends the encoding of (name, value) to dst using mode, flushing
// any pending table-size-update first, and returns the extended slice.
func (e *Encoder) Encode(dst []byte, name, value string, mode IndexingMode) []byte {
	if e.pendingSizeUpdate {
		dst = e.EncodeDynamicTableSizeUpdate(dst, e.pendingSize)
		e.pendingSizeUpdate = false
	}

	lookup := e.table.Find(name, value)
	if lookup.Kind == MatchFull {
		return EncodeInteger(dst, 7, 0x80, uint64(lookup.Index))
	}

	var prefixBits uint8
	var highBits byte
	switch mode {
	case Indexed:
		prefixBits, highBits = 6, 0x40
	case WithoutIndexing:
		prefixBits, highBits = 4, 0x00
	case NeverIndexed:
		prefixBits, highBits = 4, 0x10
	}

	if lookup.Kind == MatchNameOnly {
		dst = EncodeInteger(dst, prefixBits, highBits, uint64(lookup.Index))
	} else {
		dst = EncodeInteger(dst, prefixBits, highBits, 0)
		dst = e.encodeString(dst, name)
	}
	dst = e.encodeString(dst, value)

	if mode == Indexed {
		e.table.Add(name, value)
	}
	return dst
}

// FindHeader exposes the table lookup for a candidate (name, value) pair.
func (e *Encoder) FindHeader(name, value string) LookupResult {
	return e.table.Find(name, value)
}

// encodeString emits a string literal, choosing Huffman encoding whenever it
// is strictly shorter than the raw representation.
func (e *Encoder) encodeString(dst []byte, s string) []byte {
	huffLen := HuffmanEncodedLen(s)
	if huffLen < len(s) {
		dst = EncodeInteger(dst, 7, 0x80, uint64(huffLen))
		return HuffmanEncode(dst, s)
	}
	dst = EncodeInteger(dst, 7, 0x00, uint64(len(s)))
	return append(dst, s...)
}
