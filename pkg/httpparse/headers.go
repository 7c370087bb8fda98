package httpparse

import (
	"strings"

	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/header"
)

// headerScanner accumulates header lines into idx as they are fed one at a
// time, applying RFC 7230 §3.2.4 obs-fold continuation the same way the
// teacher's readHeaders does for response headers: a continuation line
// (leading space/tab) is appended, space-trimmed, to the previous header's
// value rather than starting a new entry.
type headerScanner struct {
	idx      *header.Index
	lastName string
	count    int
}

func newHeaderScanner(idx *header.Index) *headerScanner {
	return &headerScanner{idx: idx}
}

// feedLine processes one header-section line with its trailing CRLF/LF
// already stripped. An empty line signals the end of the header section.
func (s *headerScanner) feedLine(line string, maxCount int) (sectionDone bool, err error) {
	if line == "" {
		return true, nil
	}

	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		if s.lastName == "" {
			return false, errors.NewProtocolError("parse_headers", "continuation line with no preceding header", nil)
		}
		existing, _ := s.idx.Get(s.lastName)
		s.idx.Delete(s.lastName)
		// Re-add under the original name so merge semantics for repeated
		// headers still apply to the folded result.
		s.idx.Add(s.lastName, existing+" "+strings.TrimSpace(line))
		return false, nil
	}

	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return false, errors.NewProtocolError("parse_headers", "malformed header line", nil)
	}
	name := strings.TrimSpace(line[:colon])
	if strings.ContainsAny(name, " \t") {
		return false, errors.NewProtocolError("parse_headers", "whitespace in header field name", nil)
	}
	value := strings.TrimSpace(line[colon+1:])

	s.count++
	if s.count > maxCount {
		return false, errors.NewProtocolError("parse_headers", "too many header fields", nil)
	}

	s.idx.Add(name, value)
	s.lastName = name
	return false, nil
}
