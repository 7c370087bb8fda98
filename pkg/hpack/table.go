package hpack

// dynamicOverhead is the per-entry size overhead defined by RFC 7541 §4.1:
// each entry's size is name length + value length + 32.
const dynamicOverhead = 32

// dynamicEntry is one row of the dynamic table.
type dynamicEntry struct {
	name  string
	value string
}

func (e dynamicEntry) size() int {
	return len(e.name) + len(e.value) + dynamicOverhead
}

// DynamicTable is the per-connection HPACK dynamic table: a FIFO where new
// entries are inserted at the front (index 62 = most recent) and eviction
// happens from the back once the size bound is exceeded.
type DynamicTable struct {
	entries []dynamicEntry // entries[0] is the most recently added (index 62)
	size    int
	maxSize int
}

// NewDynamicTable returns an empty dynamic table bounded at maxSize bytes.
func NewDynamicTable(maxSize int) *DynamicTable {
	return &DynamicTable{maxSize: maxSize}
}

// MaxSize returns the configured size bound.
func (t *DynamicTable) MaxSize() int { return t.maxSize }

// CurrentSize returns the sum of all entries' sizes (name+value+32 each).
func (t *DynamicTable) CurrentSize() int { return t.size }

// EntryCount returns the number of live entries.
func (t *DynamicTable) EntryCount() int { return len(t.entries) }

// Add inserts (name, value) at the front of the table, evicting from the
// back as needed. If the single entry's size exceeds maxSize, the whole
// table is cleared and the entry is not stored (RFC 7541 §4.4).
func (t *DynamicTable) Add(name, value string) {
	e := dynamicEntry{name: name, value: value}
	s := e.size()
	if s > t.maxSize {
		t.entries = t.entries[:0]
		t.size = 0
		return
	}
	for t.size+s > t.maxSize && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.size -= last.size()
		t.entries = t.entries[:len(t.entries)-1]
	}
	t.entries = append([]dynamicEntry{e}, t.entries...)
	t.size += s
}

// SetMaxSize updates the size bound, evicting entries immediately if the new
// bound is smaller than the current size.
func (t *DynamicTable) SetMaxSize(maxSize int) {
	t.maxSize = maxSize
	for t.size > t.maxSize && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.size -= last.size()
		t.entries = t.entries[:len(t.entries)-1]
	}
}

// Clear empties the table.
func (t *DynamicTable) Clear() {
	t.entries = t.entries[:0]
	t.size = 0
}

// Get returns the (name, value) for dynamic index idx (1-based within the
// dynamic space: 1 is the most recently added entry). The caller is
// responsible for offsetting by StaticTableSize when working with the
// combined HPACK index space (index 62 overall == dynamic index 1).
func (t *DynamicTable) Get(idx int) (name, value string, ok bool) {
	if idx < 1 || idx > len(t.entries) {
		return "", "", false
	}
	e := t.entries[idx-1]
	return e.name, e.value, true
}

// MatchKind classifies how well a candidate (name, value) matches an
// existing table entry.
type MatchKind int

const (
	// MatchNone indicates neither name nor value matched any entry.
	MatchNone MatchKind = iota
	// MatchNameOnly indicates the name matched but not the value.
	MatchNameOnly
	// MatchFull indicates both name and value matched.
	MatchFull
)

// LookupResult is the outcome of searching the combined static+dynamic
// index space for a (name, value) pair.
type LookupResult struct {
	Kind  MatchKind
	Index int // combined index (1-based; dynamic indices offset by StaticTableSize)
}

// Find searches the static table first, then the dynamic table, for the
// best match of (name, value): an exact match wins immediately; otherwise
// the first name-only match found is kept.
func (t *DynamicTable) Find(name, value string) LookupResult {
	if idx, ok := staticFullIndex[[2]string{name, value}]; ok {
		return LookupResult{Kind: MatchFull, Index: idx}
	}
	best := LookupResult{Kind: MatchNone}
	if idx, ok := staticNameIndex[name]; ok {
		best = LookupResult{Kind: MatchNameOnly, Index: idx}
	}
	for i, e := range t.entries {
		if e.name == name && e.value == value {
			return LookupResult{Kind: MatchFull, Index: StaticTableSize + i + 1}
		}
		if best.Kind == MatchNone && e.name == name {
			best = LookupResult{Kind: MatchNameOnly, Index: StaticTableSize + i + 1}
		}
	}
	return best
}

// Lookup returns the (name, value) for a combined-space index, checking the
// static table first and then the dynamic table.
func (t *DynamicTable) Lookup(index int) (name, value string, ok bool) {
	if name, value, ok = GetStaticEntry(index); ok {
		return name, value, true
	}
	return t.Get(index - StaticTableSize)
}
