package httpparse

import (
	"strings"

	"github.com/aeronet-go/aeronet/pkg/errors"
)

// parseRequestLine splits a request line (without its trailing CRLF) into
// method, request-target, and HTTP version, mirroring the teacher's
// parseStatusLine for the equivalent status-line half of the exchange.
func parseRequestLine(line string) (method, target, version string, err error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return "", "", "", errors.NewProtocolError("parse_request_line", "malformed request line", nil)
	}
	method, target, version = parts[0], parts[1], parts[2]
	if method == "" {
		return "", "", "", errors.NewProtocolError("parse_request_line", "empty method", nil)
	}
	if !strings.HasPrefix(version, "HTTP/") {
		return "", "", "", errors.NewProtocolError("parse_request_line", "unsupported HTTP version", nil)
	}
	return method, target, version, nil
}

// splitTarget separates a request-target into its path and query
// components, matching the raw split a router/CORS engine expects: the
// query string (if any) excludes the leading '?'.
func splitTarget(target string) (path, query string) {
	if idx := strings.IndexByte(target, '?'); idx >= 0 {
		return target[:idx], target[idx+1:]
	}
	return target, ""
}
