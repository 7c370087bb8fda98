// Package cors implements the CORS policy engine (component D): origin
// matching, preflight classification and response, and simple-request
// response decoration, independent of the HTTP/1.1 parser and response
// builder so it can be unit tested against plain strings.
package cors

import (
	"strconv"
	"strings"

	"github.com/aeronet-go/aeronet/pkg/concat"
	"github.com/aeronet-go/aeronet/pkg/header"
	"github.com/aeronet-go/aeronet/pkg/logging"
)

// originMode selects how Origin is matched against the policy.
type originMode int

const (
	originEnumerated originMode = iota
	originAny
)

// defaultSimpleMethods mirrors the CORS "simple method" set used until a
// caller narrows it with AllowMethods.
var defaultSimpleMethods = []string{"GET", "HEAD", "POST"}

// DefaultMaxEchoedRequestHeaders bounds how many Access-Control-Request-Headers
// tokens a preflight response will echo back verbatim when the policy has
// neither AllowAnyRequestHeaders nor an enumerated allow-list; excess tokens
// are dropped rather than rejecting the preflight outright.
const DefaultMaxEchoedRequestHeaders = 64

// Policy is an immutable-after-build CORS configuration for one router or
// one route group. Its builder methods return the receiver so calls chain,
// matching the rest of the core's configuration surfaces.
type Policy struct {
	originMode             originMode
	allowedOrigins         map[string]bool
	allowCredentials       bool
	allowedMethods         map[string]bool
	allowAnyRequestHeaders bool
	allowedRequestHeaders  map[string]bool
	exposedHeaders         *concat.List
	maxAgeSeconds          int // -1 means unset
	allowPrivateNetwork    bool
	maxEchoedRequestHeaders int
	log                    *logging.Logger
}

// NewPolicy returns a policy that denies all cross-origin requests until
// configured: no allowed origins, the conventional "simple" method set, and
// no exposed headers.
func NewPolicy() *Policy {
	methods := make(map[string]bool, len(defaultSimpleMethods))
	for _, m := range defaultSimpleMethods {
		methods[m] = true
	}
	return &Policy{
		originMode:              originEnumerated,
		allowedOrigins:          make(map[string]bool),
		allowedMethods:          methods,
		exposedHeaders:          concat.New(", "),
		maxAgeSeconds:           -1,
		maxEchoedRequestHeaders: DefaultMaxEchoedRequestHeaders,
		log:                     logging.Nop(),
	}
}

// WithLogger attaches the server's shared logger, used to report dropped
// Access-Control-Request-Headers tokens at debug level.
func (p *Policy) WithLogger(log *logging.Logger) *Policy {
	if log != nil {
		p.log = log
	}
	return p
}

// WithMaxEchoedRequestHeaders overrides DefaultMaxEchoedRequestHeaders.
func (p *Policy) WithMaxEchoedRequestHeaders(n int) *Policy {
	if n > 0 {
		p.maxEchoedRequestHeaders = n
	}
	return p
}

// AllowAnyOrigin configures the policy to accept every Origin (the
// unauthenticated wildcard mode); it clears any previously enumerated
// origins.
func (p *Policy) AllowAnyOrigin() *Policy {
	p.originMode = originAny
	p.allowedOrigins = make(map[string]bool)
	return p
}

// AllowOrigin adds origin to the enumerated allow-list, switching the
// policy out of wildcard mode if it was previously in it.
func (p *Policy) AllowOrigin(origin string) *Policy {
	p.originMode = originEnumerated
	origin = strings.TrimSpace(origin)
	if origin != "" {
		p.allowedOrigins[origin] = true
	}
	return p
}

// AllowCredentials toggles Access-Control-Allow-Credentials. Enabling this
// forces the Allow-Origin response header to mirror the request's Origin
// rather than emit the wildcard, per the Fetch standard's prohibition on
// combining wildcard origins with credentialed requests.
func (p *Policy) AllowCredentials(enable bool) *Policy {
	p.allowCredentials = enable
	return p
}

// AllowMethods replaces the allowed method set used for preflight checks.
func (p *Policy) AllowMethods(methods ...string) *Policy {
	p.allowedMethods = make(map[string]bool, len(methods))
	for _, m := range methods {
		p.allowedMethods[strings.ToUpper(m)] = true
	}
	return p
}

// AllowAnyRequestHeaders configures the policy to accept any
// Access-Control-Request-Headers list during preflight, answering with
// Access-Control-Allow-Headers: *; it clears any previously enumerated
// request headers.
func (p *Policy) AllowAnyRequestHeaders() *Policy {
	p.allowAnyRequestHeaders = true
	p.allowedRequestHeaders = nil
	return p
}

// AllowRequestHeader adds header to the enumerated request-header allow
// list used during preflight.
func (p *Policy) AllowRequestHeader(name string) *Policy {
	p.allowAnyRequestHeaders = false
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return p
	}
	if p.allowedRequestHeaders == nil {
		p.allowedRequestHeaders = make(map[string]bool)
	}
	p.allowedRequestHeaders[name] = true
	return p
}

// ExposeHeader adds header to the Access-Control-Expose-Headers list sent
// on simple (non-preflight) CORS responses; preflight responses never
// carry it.
func (p *Policy) ExposeHeader(name string) *Policy {
	name = strings.TrimSpace(name)
	if name != "" {
		p.exposedHeaders.Append(name)
	}
	return p
}

// MaxAge sets the preflight cache duration in seconds; a negative value
// means "do not emit Access-Control-Max-Age".
func (p *Policy) MaxAge(seconds int) *Policy {
	if seconds < 0 {
		seconds = -1
	}
	p.maxAgeSeconds = seconds
	return p
}

// AllowPrivateNetwork toggles Access-Control-Allow-Private-Network for the
// Private Network Access preflight extension.
func (p *Policy) AllowPrivateNetwork(enable bool) *Policy {
	p.allowPrivateNetwork = enable
	return p
}

// ApplyStatus is the outcome of applying the policy to a simple (non
// preflight) request.
type ApplyStatus int

const (
	// NotCors means the request carried no Origin header, or was itself a
	// preflight request (handled separately via HandlePreflight).
	NotCors ApplyStatus = iota
	// OriginDenied means an Origin header was present but not allowed.
	OriginDenied
	// Applied means the CORS response headers were written.
	Applied
)

// PreflightStatus is the outcome of classifying and evaluating a preflight
// request.
type PreflightStatus int

const (
	// NotPreflight means the request did not meet the preflight shape
	// (method != OPTIONS, missing Origin, or missing
	// Access-Control-Request-Method).
	NotPreflight PreflightStatus = iota
	PreflightOriginDenied
	PreflightMethodDenied
	PreflightHeadersDenied
	PreflightAllowed
)

// IsPreflightRequest classifies a request by shape alone, without
// consulting the policy's allow-lists: OPTIONS, with both an Origin header
// and an Access-Control-Request-Method header present.
func IsPreflightRequest(method, origin string, hasACRMethod bool) bool {
	return strings.EqualFold(method, "OPTIONS") && origin != "" && hasACRMethod
}

// PreflightRequest carries the fields of an incoming request relevant to
// CORS preflight evaluation.
type PreflightRequest struct {
	Method           string
	Origin           string
	ACRMethod        string
	HasACRMethod     bool
	ACRHeaders       string // raw Access-Control-Request-Headers value, may be empty
}

// HandlePreflight evaluates req against the policy. If req does not have
// preflight shape, it returns NotPreflight and a nil header set: the caller
// should fall through to ordinary routing. Otherwise it returns a decision
// status and, when Allowed, the full set of response headers to send with a
// 204/200 preflight response.
func (p *Policy) HandlePreflight(req PreflightRequest) (PreflightStatus, *header.Index) {
	if !IsPreflightRequest(req.Method, req.Origin, req.HasACRMethod) {
		return NotPreflight, nil
	}
	if !p.originAllowed(req.Origin) {
		return PreflightOriginDenied, nil
	}
	if !p.methodAllowed(req.ACRMethod) {
		return PreflightMethodDenied, nil
	}
	if strings.TrimSpace(req.ACRHeaders) != "" && !p.requestHeadersAllowed(req.ACRHeaders) {
		return PreflightHeadersDenied, nil
	}

	resp := header.NewIndex()
	p.applyResponseHeaders(resp, req.Origin)

	if len(p.allowedMethods) > 0 {
		methods := concat.New(", ")
		for _, m := range []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "CONNECT", "TRACE"} {
			if p.allowedMethods[m] {
				methods.Append(m)
			}
		}
		resp.Add("Access-Control-Allow-Methods", methods.String())
	}

	switch {
	case p.allowAnyRequestHeaders:
		resp.Add("Access-Control-Allow-Headers", "*")
	case len(p.allowedRequestHeaders) > 0:
		list := concat.New(", ")
		for name := range p.allowedRequestHeaders {
			list.Append(name)
		}
		resp.Add("Access-Control-Allow-Headers", list.String())
	case strings.TrimSpace(req.ACRHeaders) != "":
		resp.Add("Access-Control-Allow-Headers", p.boundedEcho(req.ACRHeaders))
	}

	if p.allowPrivateNetwork {
		resp.Add("Access-Control-Allow-Private-Network", "true")
	}

	if p.maxAgeSeconds >= 0 {
		resp.Add("Access-Control-Max-Age", strconv.Itoa(p.maxAgeSeconds))
	}

	return PreflightAllowed, resp
}

// ApplyToResponse decorates resp with CORS headers for a simple (non
// preflight) request carrying origin. If origin is empty the request is not
// a CORS request at all and NotCors is returned without modifying resp.
func (p *Policy) ApplyToResponse(origin string, resp *header.Index) ApplyStatus {
	if origin == "" {
		return NotCors
	}
	if !p.originAllowed(origin) {
		return OriginDenied
	}
	p.applyResponseHeaders(resp, origin)
	if !p.exposedHeaders.Empty() {
		resp.Add("Access-Control-Expose-Headers", p.exposedHeaders.String())
	}
	return Applied
}

// boundedEcho joins up to p.maxEchoedRequestHeaders tokens from headerList,
// logging and dropping any beyond that bound rather than failing the
// preflight.
func (p *Policy) boundedEcho(headerList string) string {
	tokens := concat.ParseCSV(headerList)
	if len(tokens) <= p.maxEchoedRequestHeaders {
		return strings.TrimSpace(headerList)
	}
	p.log.WithField("dropped", len(tokens)-p.maxEchoedRequestHeaders).
		Debug("dropping Access-Control-Request-Headers tokens beyond MaxEchoedRequestHeaders")
	kept := concat.New(", ")
	for _, t := range tokens[:p.maxEchoedRequestHeaders] {
		kept.Append(t)
	}
	return kept.String()
}

func (p *Policy) originAllowed(origin string) bool {
	if p.originMode == originAny {
		return true
	}
	return p.allowedOrigins[origin]
}

func (p *Policy) methodAllowed(method string) bool {
	if len(p.allowedMethods) == 0 || method == "" {
		return false
	}
	return p.allowedMethods[strings.ToUpper(method)]
}

func (p *Policy) requestHeadersAllowed(headerList string) bool {
	if p.allowAnyRequestHeaders {
		return true
	}
	tokens := concat.ParseCSV(headerList)
	if len(tokens) == 0 {
		return len(p.allowedRequestHeaders) == 0
	}
	if len(p.allowedRequestHeaders) == 0 {
		return true
	}
	for _, tok := range tokens {
		if !p.allowedRequestHeaders[strings.ToLower(tok)] {
			return false
		}
	}
	return true
}

// applyResponseHeaders writes the headers common to both preflight and
// simple CORS responses: Allow-Origin (mirrored for enumerated/credentialed
// policies, wildcard otherwise, with Vary: Origin added in the mirrored
// case) and Allow-Credentials. Expose-Headers is added by ApplyToResponse
// only.
func (p *Policy) applyResponseHeaders(resp *header.Index, origin string) {
	mirrorOrigin := p.originMode == originEnumerated || p.allowCredentials
	if mirrorOrigin {
		resp.Add("Access-Control-Allow-Origin", origin)
		addVaryToken(resp, "Origin")
	} else {
		resp.Add("Access-Control-Allow-Origin", "*")
	}

	if p.allowCredentials {
		resp.Add("Access-Control-Allow-Credentials", "true")
	}
}

// addVaryToken appends tok to the Vary header unless it is already present
// as a distinct token (avoiding "Origin, Origin" across repeated calls on
// the same response, and respecting an existing caller-set Vary value).
func addVaryToken(resp *header.Index, tok string) {
	if existing, ok := resp.Get("Vary"); ok {
		for _, t := range concat.ParseCSV(existing) {
			if strings.EqualFold(t, tok) {
				return
			}
		}
	}
	// header.Index.Add merges onto any existing Vary value with ", ",
	// since "vary" is a mergeable header name.
	resp.Add("Vary", tok)
}
