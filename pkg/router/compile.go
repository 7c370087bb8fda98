package router

import (
	"strings"

	"github.com/aeronet-go/aeronet/pkg/errors"
)

// segmentPart is one literal-or-parameter fragment of a compiled dynamic
// segment, e.g. the segment "v{}-{}" compiles to [literal "v", param,
// literal "-", param].
type segmentPart struct {
	literal string // non-empty for a literal part; empty means "param"
}

func (p segmentPart) isParam() bool { return p.literal == "" }

// compiledSegment is one '/'-delimited path fragment after compilation:
// either a pure literal (fast map-keyed path) or a pattern made of parts.
type compiledSegment struct {
	literal string        // non-empty when this segment has no parameters
	parts   []segmentPart // used when literal == ""
}

func (s compiledSegment) isLiteral() bool { return s.literal != "" || len(s.parts) == 0 }

func (s compiledSegment) equal(other compiledSegment) bool {
	if s.literal != other.literal || len(s.parts) != len(other.parts) {
		return false
	}
	for i := range s.parts {
		if s.parts[i] != other.parts[i] {
			return false
		}
	}
	return true
}

// compiledRoute is the parsed representation of one registered path
// pattern, shared by every trie node that pattern passes through (a single
// route's terminal node stores a *compiledRoute).
type compiledRoute struct {
	segments           []compiledSegment
	paramNames         []string
	hasWildcard        bool
	hasNoSlashRegistered   bool
	hasWithSlashRegistered bool
}

const (
	escapedOpenBrace  = "{{"
	escapedCloseBrace = "}}"
)

// compilePattern parses path into a compiledRoute. Paths must begin with
// '/' and contain no empty segments (a lone "/" is the only exception,
// yielding zero segments). "*" is a terminal wildcard. "{name}" declares a
// named parameter, "{}" an unnamed one (assigned "0", "1", ... in
// declaration order); named and unnamed parameters cannot be mixed within
// one pattern, and "{{"/"}}" escape literal braces.
func compilePattern(path string) (compiledRoute, error) {
	if path == "" || path[0] != '/' {
		return compiledRoute{}, errors.NewRouterError(path, "router paths must begin with '/'")
	}

	var route compiledRoute
	var sawNamed, sawUnnamed bool
	paramIdx := 0

	pos := 1
	for pos < len(path) {
		nextSlash := strings.IndexByte(path[pos:], '/')
		var segment string
		if nextSlash < 0 {
			segment = path[pos:]
		} else {
			segment = path[pos : pos+nextSlash]
		}

		if segment == "" {
			return compiledRoute{}, errors.NewRouterError(path, "router path contains an empty segment")
		}

		if segment == "*" {
			if nextSlash >= 0 {
				return compiledRoute{}, errors.NewRouterError(path, "wildcard segment must be terminal")
			}
			route.hasWildcard = true
			break
		}

		if !strings.Contains(segment, "{") {
			route.segments = append(route.segments, compiledSegment{literal: segment})
			if nextSlash < 0 {
				break
			}
			pos += nextSlash + 1
			continue
		}

		seg, names, unnamedUsed, namedUsed, err := compileDynamicSegment(segment, &paramIdx)
		if err != nil {
			return compiledRoute{}, errors.NewRouterError(path, err.Error())
		}
		sawNamed = sawNamed || namedUsed
		sawUnnamed = sawUnnamed || unnamedUsed
		route.paramNames = append(route.paramNames, names...)
		route.segments = append(route.segments, seg)

		if nextSlash < 0 {
			break
		}
		pos += nextSlash + 1
	}

	if sawNamed && sawUnnamed {
		return compiledRoute{}, errors.NewRouterError(path, "cannot mix named and unnamed parameters in a single path pattern")
	}

	return route, nil
}

// compileDynamicSegment parses one segment known to contain at least one
// unescaped '{'.
func compileDynamicSegment(segment string, paramIdx *int) (seg compiledSegment, names []string, sawUnnamed, sawNamed bool, err error) {
	var literalBuf strings.Builder
	var parts []segmentPart
	previousWasParam := false
	hasParam := false

	i := 0
	for i < len(segment) {
		if strings.HasPrefix(segment[i:], escapedOpenBrace) {
			literalBuf.WriteByte('{')
			i += len(escapedOpenBrace)
			continue
		}
		if strings.HasPrefix(segment[i:], escapedCloseBrace) {
			literalBuf.WriteByte('}')
			i += len(escapedCloseBrace)
			continue
		}
		if segment[i] != '{' {
			literalBuf.WriteByte(segment[i])
			i++
			continue
		}

		closePos := strings.IndexByte(segment[i+1:], '}')
		if closePos < 0 {
			return compiledSegment{}, nil, false, false, errors.NewRouterError(segment, "unterminated '{' in router pattern")
		}
		closePos += i + 1

		if literalBuf.Len() > 0 {
			parts = append(parts, segmentPart{literal: literalBuf.String()})
			literalBuf.Reset()
			previousWasParam = false
		}

		if previousWasParam {
			return compiledSegment{}, nil, false, false, errors.NewRouterError(segment, "consecutive parameters without a separator are not allowed")
		}
		previousWasParam = true
		hasParam = true
		parts = append(parts, segmentPart{})

		paramName := segment[i+1 : closePos]
		if paramName == "" {
			sawUnnamed = true
			names = append(names, itoa(*paramIdx))
		} else {
			sawNamed = true
			names = append(names, paramName)
		}
		*paramIdx++

		i = closePos + 1
	}

	if literalBuf.Len() > 0 {
		parts = append(parts, segmentPart{literal: literalBuf.String()})
	}

	if !hasParam {
		// No parameter was opened, only brace escapes (or no braces at all)
		// were consumed into literalBuf, so the decoded text is the literal
		// key, not the raw still-escaped segment.
		return compiledSegment{literal: literalBuf.String()}, nil, false, false, nil
	}
	return compiledSegment{parts: parts}, names, sawUnnamed, sawNamed, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
