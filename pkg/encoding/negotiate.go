// Package encoding implements the outbound content-coding negotiation and
// codec pipeline, and the inbound decompression guard rails, the
// "external codec" collaborators HPACK's own package doc points at
// (pkg/hpack/static.go) rather than reimplementing: compression itself is
// leaned on from github.com/klauspost/compress and
// github.com/andybalholm/brotli, never hand-rolled.
package encoding

import (
	"strconv"
	"strings"

	"github.com/aeronet-go/aeronet/pkg/concat"
)

// Coding names this pipeline understands.
const (
	Identity = "identity"
	Gzip     = "gzip"
	Deflate  = "deflate"
	Brotli   = "br"
	Zstd     = "zstd"
)

// PreferenceOrder is the server's tie-break order for equal-q codings,
// per SPEC_FULL.md §4.J: zstd first (best ratio/speed trade-off of the
// four), then br, then gzip, then deflate.
var PreferenceOrder = []string{Zstd, Brotli, Gzip, Deflate}

type candidate struct {
	coding string
	q      float64
}

// parseAcceptEncoding splits value into (coding, q) pairs, defaulting q to
// 1.0 for a coding with no explicit q-parameter and skipping malformed
// q-values (treated as the default rather than rejecting the whole
// header).
func parseAcceptEncoding(value string) []candidate {
	tokens := concat.ParseCSV(value)
	out := make([]candidate, 0, len(tokens))
	for _, tok := range tokens {
		coding := tok
		q := 1.0
		if idx := strings.IndexByte(tok, ';'); idx >= 0 {
			coding = strings.TrimSpace(tok[:idx])
			params := tok[idx+1:]
			for _, p := range strings.Split(params, ";") {
				p = strings.TrimSpace(p)
				name, val, ok := strings.Cut(p, "=")
				if !ok || strings.TrimSpace(name) != "q" {
					continue
				}
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
					q = parsed
				}
			}
		}
		out = append(out, candidate{coding: strings.ToLower(coding), q: q})
	}
	return out
}

// preferenceRank returns PreferenceOrder's index for coding, or
// len(PreferenceOrder) for anything not in the table (sorted last among
// ties).
func preferenceRank(coding string) int {
	for i, c := range PreferenceOrder {
		if c == coding {
			return i
		}
	}
	return len(PreferenceOrder)
}

// Negotiate picks the best content-coding for a response given the
// request's Accept-Encoding header value and the set of codecs this build
// has enabled. It returns ("", false) when no acceptable coding remains
// and identity has been explicitly forbidden (q=0), the caller's signal
// to respond 406.
func Negotiate(acceptEncoding string, enabled []string) (string, bool) {
	enabledSet := make(map[string]bool, len(enabled)+1)
	for _, c := range enabled {
		enabledSet[c] = true
	}
	enabledSet[Identity] = true

	if acceptEncoding == "" {
		return Identity, true
	}

	candidates := parseAcceptEncoding(acceptEncoding)

	qFor := make(map[string]float64, len(candidates))
	sawStar := false
	starQ := 1.0
	for _, c := range candidates {
		if c.coding == "*" {
			sawStar = true
			starQ = c.q
			continue
		}
		qFor[c.coding] = c.q
	}

	identityForbidden := false
	if q, ok := qFor[Identity]; ok && q == 0 {
		identityForbidden = true
	} else if sawStar && starQ == 0 {
		if _, explicit := qFor[Identity]; !explicit {
			identityForbidden = true
		}
	}

	best := ""
	bestQ := -1.0
	consider := func(coding string, q float64) {
		if q <= 0 || !enabledSet[coding] {
			return
		}
		if q > bestQ || (q == bestQ && preferenceRank(coding) < preferenceRank(best)) {
			best, bestQ = coding, q
		}
	}
	for coding, q := range qFor {
		consider(coding, q)
	}
	if sawStar {
		for _, coding := range PreferenceOrder {
			if _, explicit := qFor[coding]; !explicit {
				consider(coding, starQ)
			}
		}
		if _, explicit := qFor[Identity]; !explicit {
			consider(Identity, starQ)
		}
	}

	if best == "" {
		if identityForbidden {
			return "", false
		}
		return Identity, true
	}
	return best, true
}

// SplitContentEncoding returns the comma-list tokens of a Content-Encoding
// header value in the order they should be *applied* when decoding
// (right-to-left relative to how they were listed when encoding, since
// each encoding step wraps the previous one).
func SplitContentEncoding(value string) []string {
	tokens := concat.ParseCSV(value)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[len(tokens)-1-i] = strings.ToLower(t)
	}
	return out
}
