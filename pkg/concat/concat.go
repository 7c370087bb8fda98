// Package concat implements the concatenated token list: a single growable
// buffer holding small tokens separated by a fixed separator, used wherever
// the core would otherwise allocate a slice of strings for a short,
// sequentially-read list (header value lists, CORS token sets, param name
// lists, ...).
package concat

import "strings"

// List is an insertion-ordered, append-only list of string tokens backed by
// one contiguous buffer plus a separator. Appending is O(len(tok));
// iteration yields views without copying.
type List struct {
	sep   string
	buf   strings.Builder
	count int
}

// New returns an empty list using sep to join tokens on output.
func New(sep string) *List {
	return &List{sep: sep}
}

// Append adds a token to the end of the list.
func (l *List) Append(tok string) {
	if l.count > 0 {
		l.buf.WriteString(l.sep)
	}
	l.buf.WriteString(tok)
	l.count++
}

// Len returns the number of tokens appended.
func (l *List) Len() int { return l.count }

// Empty reports whether the list has no tokens.
func (l *List) Empty() bool { return l.count == 0 }

// String returns the joined representation (tok1<sep>tok2<sep>...).
func (l *List) String() string { return l.buf.String() }

// Tokens splits the joined buffer back into individual token views. This
// performs one scan over the buffer; it is intended for the (infrequent)
// case a caller needs random access rather than the sequential Contains.
func (l *List) Tokens() []string {
	if l.count == 0 {
		return nil
	}
	if l.sep == "" {
		// Degenerate separator: every append is already its own full
		// token; fall back to returning the single concatenated token.
		return []string{l.buf.String()}
	}
	return strings.Split(l.buf.String(), l.sep)
}

// Contains reports whether tok is present as an exact token (not merely a
// substring of the joined buffer), optionally ignoring case.
func (l *List) Contains(tok string, caseInsensitive bool) bool {
	for _, t := range l.Tokens() {
		if caseInsensitive {
			if strings.EqualFold(t, tok) {
				return true
			}
		} else if t == tok {
			return true
		}
	}
	return false
}

// ForEach iterates over tokens without building the intermediate slice
// Tokens() would allocate, calling fn for each token view in order. It stops
// early if fn returns false.
func (l *List) ForEach(fn func(tok string) bool) {
	if l.count == 0 {
		return
	}
	s := l.buf.String()
	if l.sep == "" {
		fn(s)
		return
	}
	for {
		idx := strings.Index(s, l.sep)
		if idx < 0 {
			fn(s)
			return
		}
		if !fn(s[:idx]) {
			return
		}
		s = s[idx+len(l.sep):]
	}
}

// ParseCSV splits a comma-separated header value into trimmed, non-empty
// tokens (used by CORS and Accept-Encoding parsing), ignoring optional
// whitespace (OWS) around each token per RFC 7230.
func ParseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
