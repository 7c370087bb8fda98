package router

import (
	"strings"

	"github.com/aeronet-go/aeronet/pkg/cors"
	"github.com/aeronet-go/aeronet/pkg/message"
)

// RedirectSlashMode tells the caller whether, and how, to redirect a
// request because only the opposite trailing-slash variant is registered
// (only possible under the Redirect policy).
type RedirectSlashMode uint8

const (
	RedirectNone RedirectSlashMode = iota
	RedirectAddSlash
	RedirectRemoveSlash
)

// HandlerKind identifies which handler family a RoutingResult carries.
type HandlerKind uint8

const (
	HandlerNone HandlerKind = iota
	HandlerRequest
	HandlerStreaming
	HandlerAsync
)

// RoutingResult is the outcome of Router.Match: a handler of one kind (or
// none), path parameter captures, the applicable CORS policy, and the
// middleware ranges to run.
type RoutingResult struct {
	Kind             HandlerKind
	RequestHandler   message.RequestHandler
	StreamingHandler message.StreamingHandler
	AsyncHandler     message.AsyncRequestHandler

	RedirectSlash    RedirectSlashMode
	MethodNotAllowed bool

	PathParams []message.PathParam
	CorsPolicy *cors.Policy

	RequestMiddleware  []RequestMiddleware
	ResponseMiddleware []ResponseMiddleware
}

// HasHandler reports whether a handler of any kind was matched.
func (r RoutingResult) HasHandler() bool { return r.Kind != HandlerNone }

type stackFrame struct {
	node             *routeNode
	segmentIndex     int
	dynamicChildIdx  int
	matchStateSize   int
}

// splitPathSegments splits path (already stripped of any trailing slash)
// into its '/'-delimited segments, reusing r.segmentBuffer.
func (r *Router) splitPathSegments(path string) {
	r.segmentBuffer = r.segmentBuffer[:0]
	if path == "/" || path == "" {
		return
	}
	rest := path[1:] // drop leading '/'
	for {
		idx := strings.IndexByte(rest, '/')
		if idx < 0 {
			r.segmentBuffer = append(r.segmentBuffer, rest)
			return
		}
		r.segmentBuffer = append(r.segmentBuffer, rest[:idx])
		rest = rest[idx+1:]
	}
}

// matchPatternSegment tests whether segmentValue matches the compiled
// dynamic pattern, appending each captured parameter value to
// r.matchStateBuffer in order.
func (r *Router) matchPatternSegment(pattern compiledSegment, segmentValue string) bool {
	pos := 0
	for idx, part := range pattern.parts {
		if !part.isParam() {
			if !strings.HasPrefix(segmentValue[pos:], part.literal) {
				return false
			}
			pos += len(part.literal)
			continue
		}

		captureStart := pos
		captureEnd := len(segmentValue)
		if idx+1 < len(pattern.parts) {
			next := pattern.parts[idx+1]
			found := strings.Index(segmentValue[pos:], next.literal)
			if found < 0 {
				return false
			}
			captureEnd = pos + found
			pos = captureEnd
		} else {
			pos = len(segmentValue)
		}
		r.matchStateBuffer = append(r.matchStateBuffer, segmentValue[captureStart:captureEnd])
	}
	return pos == len(segmentValue)
}

// matchWithWildcard returns node's wildcard child if present and
// compatible with the Strict policy's slash requirement.
func (r *Router) matchWithWildcard(node *routeNode, requestHasTrailingSlash bool) *routeNode {
	w := node.wildcardChild
	if w == nil || w.route == nil {
		return nil
	}
	if r.config.TrailingSlashPolicy == Strict {
		if requestHasTrailingSlash && !w.route.hasWithSlashRegistered {
			return nil
		}
		if !requestHasTrailingSlash && !w.route.hasNoSlashRegistered {
			return nil
		}
	}
	return w
}

// matchImpl performs the backtracking DFS trie walk over r.segmentBuffer.
func (r *Router) matchImpl(requestHasTrailingSlash bool) *routeNode {
	if r.root == nil {
		return nil
	}
	r.matchStateBuffer = r.matchStateBuffer[:0]
	r.stackBuffer = r.stackBuffer[:0]
	r.stackBuffer = append(r.stackBuffer, stackFrame{node: r.root})

	for len(r.stackBuffer) > 0 {
		frame := r.stackBuffer[len(r.stackBuffer)-1]
		r.stackBuffer = r.stackBuffer[:len(r.stackBuffer)-1]

		if frame.segmentIndex == len(r.segmentBuffer) {
			if frame.node.route != nil {
				if r.config.TrailingSlashPolicy != Strict {
					return frame.node
				}
				if requestHasTrailingSlash {
					if frame.node.route.hasWithSlashRegistered {
						return frame.node
					}
				} else if frame.node.route.hasNoSlashRegistered {
					return frame.node
				}
			}
			if w := r.matchWithWildcard(frame.node, requestHasTrailingSlash); w != nil {
				return w
			}
			continue
		}

		segment := r.segmentBuffer[frame.segmentIndex]

		if frame.dynamicChildIdx == 0 {
			frame.dynamicChildIdx++
			if child, ok := frame.node.literalChildren.get(segment); ok {
				r.stackBuffer = append(r.stackBuffer, frame)
				r.stackBuffer = append(r.stackBuffer, stackFrame{
					node: child, segmentIndex: frame.segmentIndex + 1, matchStateSize: len(r.matchStateBuffer),
				})
				continue
			}
		}

		edgeIdx := frame.dynamicChildIdx - 1
		if edgeIdx >= 0 && edgeIdx < len(frame.node.dynamicChildren) {
			edge := frame.node.dynamicChildren[edgeIdx]
			frame.dynamicChildIdx++
			r.matchStateBuffer = r.matchStateBuffer[:frame.matchStateSize]
			if r.matchPatternSegment(edge.segment, segment) {
				r.stackBuffer = append(r.stackBuffer, frame)
				r.stackBuffer = append(r.stackBuffer, stackFrame{
					node: edge.child, segmentIndex: frame.segmentIndex + 1, matchStateSize: len(r.matchStateBuffer),
				})
				continue
			}
			r.stackBuffer = append(r.stackBuffer, frame)
			continue
		}

		r.matchStateBuffer = r.matchStateBuffer[:frame.matchStateSize]
		if w := r.matchWithWildcard(frame.node, requestHasTrailingSlash); w != nil {
			return w
		}
	}
	return nil
}

// computePathHandlerEntry selects the no-slash/with-slash variant of
// matchedNode per the router's trailing-slash policy, or nil with
// redirectSlash set under Redirect when only the other variant exists.
func (r *Router) computePathHandlerEntry(matchedNode *routeNode, pathHasTrailingSlash bool) (*PathHandlerEntry, RedirectSlashMode) {
	switch r.config.TrailingSlashPolicy {
	case Strict:
		if pathHasTrailingSlash {
			return &matchedNode.handlersWithSlash, RedirectNone
		}
		return &matchedNode.handlersNoSlash, RedirectNone

	case Normalize:
		matched := &matchedNode.handlersNoSlash
		other := &matchedNode.handlersWithSlash
		if pathHasTrailingSlash {
			matched, other = other, matched
		}
		if matched.hasAnyHandler() {
			return matched, RedirectNone
		}
		return other, RedirectNone

	default: // Redirect
		if pathHasTrailingSlash {
			if matchedNode.handlersWithSlash.hasAnyHandler() {
				return &matchedNode.handlersWithSlash, RedirectNone
			}
			return nil, RedirectRemoveSlash
		}
		if matchedNode.handlersNoSlash.hasAnyHandler() {
			return &matchedNode.handlersNoSlash, RedirectNone
		}
		return nil, RedirectAddSlash
	}
}

// setMatchedHandler populates result from entry for method, applying the
// HEAD->GET fallback and attaching the applicable CORS policy and
// middleware ranges.
func (r *Router) setMatchedHandler(method MethodBmp, entry *PathHandlerEntry, result *RoutingResult) {
	idx := methodToIdx(method)
	if method == MethodHEAD {
		getIdx := methodToIdx(MethodGET)
		if !entry.hasNormalHandler(idx) && !entry.hasStreamingHandler(idx) && !entry.hasAsyncHandler(idx) {
			if entry.hasNormalHandler(getIdx) || entry.hasStreamingHandler(getIdx) || entry.hasAsyncHandler(getIdx) {
				idx = getIdx
			}
		}
	}

	switch {
	case entry.hasStreamingHandler(idx):
		result.Kind = HandlerStreaming
		result.StreamingHandler = entry.streamingHandlers[idx]
	case entry.hasAsyncHandler(idx):
		result.Kind = HandlerAsync
		result.AsyncHandler = entry.asyncHandlers[idx]
	case entry.hasNormalHandler(idx):
		result.Kind = HandlerRequest
		result.RequestHandler = entry.normalHandlers[idx]
	default:
		result.MethodNotAllowed = true
	}

	if entry.corsPolicy != nil {
		result.CorsPolicy = entry.corsPolicy
	} else if r.defaultCorsPolicy != nil {
		result.CorsPolicy = r.defaultCorsPolicy
	}

	result.RequestMiddleware = append(append([]RequestMiddleware(nil), r.globalPreMiddleware...), entry.preMiddleware...)
	result.ResponseMiddleware = append(append([]ResponseMiddleware(nil), r.globalPostMiddleware...), entry.postMiddleware...)
}

// Match resolves method and path against the trie, returning the matched
// handler (if any), path parameter captures, and routing metadata. The
// returned PathParams slice is valid only until the next call to Match on
// this Router.
func (r *Router) Match(method MethodBmp, path string) RoutingResult {
	var result RoutingResult

	pathHasTrailingSlash := hasTrailingSlash(path)
	segPath := segmentationPath(path)

	if node, ok := r.literalOnlyRoutes.get(segPath); ok {
		entry, redirect := r.computePathHandlerEntry(node, pathHasTrailingSlash)
		if entry == nil {
			result.RedirectSlash = redirect
			return result
		}
		r.setMatchedHandler(method, entry, &result)
		return result
	}

	r.splitPathSegments(segPath)
	matched := r.matchImpl(pathHasTrailingSlash)
	if matched == nil {
		r.setDefaultHandler(&result)
		return result
	}

	entry, redirect := r.computePathHandlerEntry(matched, pathHasTrailingSlash)
	if entry == nil {
		result.RedirectSlash = redirect
		return result
	}
	r.setMatchedHandler(method, entry, &result)

	r.pathParamBuffer = r.pathParamBuffer[:0]
	for i, name := range matched.route.paramNames {
		r.pathParamBuffer = append(r.pathParamBuffer, message.PathParam{Name: name, Value: r.matchStateBuffer[i]})
	}
	result.PathParams = r.pathParamBuffer

	return result
}

func (r *Router) setDefaultHandler(result *RoutingResult) {
	switch {
	case r.defaultStreamingHandler != nil:
		result.Kind = HandlerStreaming
		result.StreamingHandler = r.defaultStreamingHandler
	case r.defaultAsyncHandler != nil:
		result.Kind = HandlerAsync
		result.AsyncHandler = r.defaultAsyncHandler
	case r.defaultHandler != nil:
		result.Kind = HandlerRequest
		result.RequestHandler = r.defaultHandler
	}
	if r.defaultCorsPolicy != nil {
		result.CorsPolicy = r.defaultCorsPolicy
	}
	result.RequestMiddleware = r.globalPreMiddleware
	result.ResponseMiddleware = r.globalPostMiddleware
}

// AllowedMethods returns the union bitmap of normal, streaming, and async
// handlers registered at the matched variant for path (no HEAD synthesis).
// If no route matches but a global default handler exists, AllMethods is
// returned; otherwise 0.
func (r *Router) AllowedMethods(path string) MethodBmp {
	pathHasTrailingSlash := hasTrailingSlash(path)
	segPath := segmentationPath(path)

	lookup := func(node *routeNode) MethodBmp {
		entry := &node.handlersNoSlash
		if pathHasTrailingSlash {
			entry = &node.handlersWithSlash
		}
		return entry.normalMethodBmp | entry.streamingMethodBmp | entry.asyncMethodBmp
	}

	if node, ok := r.literalOnlyRoutes.get(segPath); ok {
		return lookup(node)
	}

	r.splitPathSegments(segPath)
	if matched := r.matchImpl(pathHasTrailingSlash); matched != nil {
		return lookup(matched)
	}

	if r.defaultHandler != nil || r.defaultStreamingHandler != nil || r.defaultAsyncHandler != nil {
		return AllMethods
	}
	return 0
}
