// Package header implements the case-insensitive header index and flat
// header-line storage shared by the HTTP/1.1 parser (component F) and the
// response builder (component G).
package header

import "strings"

// View is a (name, value) pair over either the raw request buffer or a
// response buffer; copying it copies only the two string headers (which, in
// Go, are themselves just pointer+length views over the backing array), not
// the bytes.
type View struct {
	Name  string
	Value string
}

// mergeableHeaders is the set of header names for which repeated
// occurrences are combined into a single comma-joined value rather than the
// last occurrence winning, per RFC 7230 §3.2.2 and common server practice.
var mergeableHeaders = map[string]bool{
	"accept":          true,
	"accept-encoding": true,
	"accept-language": true,
	"cache-control":   true,
	"via":             true,
	"vary":            true,
	"connection":      true,
	"cookie":          true,
}

// IsMergeable reports whether repeated occurrences of name are merged.
func IsMergeable(name string) bool {
	return mergeableHeaders[strings.ToLower(name)]
}

// Index is a case-insensitive name -> value map over a sequence of header
// views, preserving the insertion order of distinct names for iteration
// (e.g. building the Trailer header's name list).
type Index struct {
	order  []string          // distinct lowercase names, insertion order
	values map[string]string // lowercase name -> value (merged where applicable)
	views  map[string][]View // lowercase name -> every raw (name,value) occurrence
}

// NewIndex returns an empty header index.
func NewIndex() *Index {
	return &Index{values: make(map[string]string), views: make(map[string][]View)}
}

// Reset clears the index for reuse across requests on the same connection.
func (idx *Index) Reset() {
	idx.order = idx.order[:0]
	for k := range idx.values {
		delete(idx.values, k)
	}
	for k := range idx.views {
		delete(idx.views, k)
	}
}

// Add inserts a (name, value) occurrence, applying the merge-or-overwrite
// rule for the given name.
func (idx *Index) Add(name, value string) {
	key := strings.ToLower(name)
	if _, seen := idx.values[key]; !seen {
		idx.order = append(idx.order, key)
		idx.values[key] = value
	} else if IsMergeable(key) {
		idx.values[key] = idx.values[key] + ", " + value
	} else {
		idx.values[key] = value
	}
	idx.views[key] = append(idx.views[key], View{Name: name, Value: value})
}

// Get returns the (possibly merged) value for name, case-insensitively.
func (idx *Index) Get(name string) (string, bool) {
	v, ok := idx.values[strings.ToLower(name)]
	return v, ok
}

// GetOrEmpty returns the value for name or "" if absent.
func (idx *Index) GetOrEmpty(name string) string {
	return idx.values[strings.ToLower(name)]
}

// Has reports whether name is present.
func (idx *Index) Has(name string) bool {
	_, ok := idx.values[strings.ToLower(name)]
	return ok
}

// Names returns the distinct header names in first-seen order.
func (idx *Index) Names() []string {
	return idx.order
}

// Occurrences returns every raw occurrence of name in wire order.
func (idx *Index) Occurrences(name string) []View {
	return idx.views[strings.ToLower(name)]
}

// Delete removes name from the index (used by the request header scanner's
// obs-fold handling and by the response builder's upsert).
func (idx *Index) Delete(name string) {
	key := strings.ToLower(name)
	if _, ok := idx.values[key]; !ok {
		return
	}
	delete(idx.values, key)
	delete(idx.views, key)
	for i, n := range idx.order {
		if n == key {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
}
