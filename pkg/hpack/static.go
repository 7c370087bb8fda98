// Package hpack implements RFC 7541 HPACK header compression: the static
// and dynamic tables, integer and string literal encoding, Huffman
// encode/decode, and the full decode/encode loops over a header block. This
// is a from-scratch implementation — unlike the outbound content-coding
// pipeline (pkg/encoding), which leans on klauspost/compress and
// andybalholm/brotli, HPACK is core, hand-built machinery.
package hpack

// staticEntry is one row of the canonical 61-entry static table (RFC 7541
// Appendix A), reproduced verbatim.
type staticEntry struct {
	name  string
	value string
}

// staticTable is the canonical static table, index 1..61 (index 0 is
// reserved and never valid).
var staticTable = [61]staticEntry{
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
}

// StaticTableSize is the number of entries in the static table.
const StaticTableSize = len(staticTable)

// staticNameIndex maps a header name to the smallest static-table index
// bearing that name, for name-only matches during encoding.
var staticNameIndex = func() map[string]int {
	m := make(map[string]int, StaticTableSize)
	for i, e := range staticTable {
		if _, ok := m[e.name]; !ok {
			m[e.name] = i + 1
		}
	}
	return m
}()

// staticFullIndex maps an exact (name, value) pair to its static index.
var staticFullIndex = func() map[[2]string]int {
	m := make(map[[2]string]int, StaticTableSize)
	for i, e := range staticTable {
		m[[2]string{e.name, e.value}] = i + 1
	}
	return m
}()

// GetStaticEntry returns the (name, value) pair for a 1-based static table
// index; ok is false for index 0 or index > StaticTableSize.
func GetStaticEntry(index int) (name, value string, ok bool) {
	if index < 1 || index > StaticTableSize {
		return "", "", false
	}
	e := staticTable[index-1]
	return e.name, e.value, true
}
