// Package router implements a compiled radix trie over HTTP path patterns:
// literal segments are hashed into a flat map, dynamic segments (named or
// unnamed parameters, possibly several per segment) are matched via a
// backtracking trie walk, and a terminal wildcard matches the remaining
// path. A separate literal-only fast path short-circuits lookup for routes
// with no parameters.
package router

import (
	"fmt"
	"strings"

	"github.com/aeronet-go/aeronet/pkg/cors"
	"github.com/aeronet-go/aeronet/pkg/errors"
	"github.com/aeronet-go/aeronet/pkg/message"
)

// Router compiles and matches path patterns against incoming requests. It
// is single-threaded: installing or replacing handlers concurrently with
// Match calls is unsupported, matching the rest of the core's
// single-reactor-owns-its-state model.
type Router struct {
	config Config

	defaultHandler          message.RequestHandler
	defaultAsyncHandler     message.AsyncRequestHandler
	defaultStreamingHandler message.StreamingHandler

	globalPreMiddleware  []RequestMiddleware
	globalPostMiddleware []ResponseMiddleware

	defaultCorsPolicy *cors.Policy

	root            *routeNode
	literalOnlyRoutes literalChildMap

	// Scratch buffers reused across Match calls to avoid per-request
	// allocation; valid only until the next Match call on this Router.
	segmentBuffer   []string
	matchStateBuffer []string
	stackBuffer     []stackFrame
	pathParamBuffer []message.PathParam
}

// New returns an empty router using cfg.
func New(cfg Config) *Router {
	return &Router{config: cfg, literalOnlyRoutes: newLiteralChildMap()}
}

// AddRequestMiddleware registers global request middleware executed before
// any matched handler (including defaults), in registration order.
func (r *Router) AddRequestMiddleware(mw RequestMiddleware) {
	r.globalPreMiddleware = append(r.globalPreMiddleware, mw)
}

// AddResponseMiddleware registers global response middleware executed
// after handlers (or a short-circuited request middleware), in
// registration order.
func (r *Router) AddResponseMiddleware(mw ResponseMiddleware) {
	r.globalPostMiddleware = append(r.globalPostMiddleware, mw)
}

// SetDefaultCORSPolicy sets the policy applied to routes with no per-route
// policy of their own.
func (r *Router) SetDefaultCORSPolicy(p *cors.Policy) { r.defaultCorsPolicy = p }

// SetDefault installs the fallback handler invoked when no path-specific
// handler matches. Installing one kind clears the other two, mirroring the
// C++ original's single-slot-per-kind default handler storage.
func (r *Router) SetDefault(handler message.RequestHandler) {
	r.defaultHandler = handler
	r.defaultAsyncHandler = nil
	r.defaultStreamingHandler = nil
}

// SetDefaultAsync installs a fallback async handler; see SetDefault.
func (r *Router) SetDefaultAsync(handler message.AsyncRequestHandler) {
	r.defaultAsyncHandler = handler
	r.defaultHandler = nil
	r.defaultStreamingHandler = nil
}

// SetDefaultStreaming installs a fallback streaming handler; see
// SetDefault.
func (r *Router) SetDefaultStreaming(handler message.StreamingHandler) {
	r.defaultStreamingHandler = handler
	r.defaultHandler = nil
	r.defaultAsyncHandler = nil
}

// hasTrailingSlash reports the spec's trailing-slash predicate: length > 1
// and the last character is '/'. The root path "/" never counts.
func hasTrailingSlash(path string) bool {
	return len(path) > 1 && path[len(path)-1] == '/'
}

// segmentationPath strips a trailing slash (if hasTrailingSlash(path))
// purely for the purposes of trie structure and the literal-only fast-path
// key; the trailing-slash boolean itself is tracked separately and drives
// which PathHandlerEntry variant is selected.
func segmentationPath(path string) string {
	if hasTrailingSlash(path) {
		return path[:len(path)-1]
	}
	return path
}

// SetPath registers handler for every method in methods at path. Returns
// the entry so the caller can chain CORS/middleware configuration. It is
// an error to register a different handler kind for a method that already
// has one of a different kind registered at this path and slash variant.
func (r *Router) SetPath(methods MethodBmp, path string, handler message.RequestHandler) (*PathHandlerEntry, error) {
	if handler == nil {
		return nil, errors.NewRouterError(path, "cannot register a nil RequestHandler")
	}
	return r.setPathInternal(methods, path, func(node *routeNode, entry *PathHandlerEntry) error {
		if entry.streamingMethodBmp&methods != 0 || entry.asyncMethodBmp&methods != 0 {
			return errors.NewRouterError(path, "conflicting handler kind already registered for one or more methods")
		}
		entry.assignNormalHandler(methods, handler)
		return nil
	})
}

// SetStreamingPath registers a streaming handler; see SetPath for the
// general registration contract.
func (r *Router) SetStreamingPath(methods MethodBmp, path string, handler message.StreamingHandler) (*PathHandlerEntry, error) {
	if handler == nil {
		return nil, errors.NewRouterError(path, "cannot register a nil StreamingHandler")
	}
	return r.setPathInternal(methods, path, func(node *routeNode, entry *PathHandlerEntry) error {
		if entry.normalMethodBmp&methods != 0 || entry.asyncMethodBmp&methods != 0 {
			return errors.NewRouterError(path, "conflicting handler kind already registered for one or more methods")
		}
		entry.assignStreamingHandler(methods, handler)
		return nil
	})
}

// SetAsyncPath registers an async handler; see SetPath for the general
// registration contract.
func (r *Router) SetAsyncPath(methods MethodBmp, path string, handler message.AsyncRequestHandler) (*PathHandlerEntry, error) {
	if handler == nil {
		return nil, errors.NewRouterError(path, "cannot register a nil AsyncRequestHandler")
	}
	return r.setPathInternal(methods, path, func(node *routeNode, entry *PathHandlerEntry) error {
		if entry.normalMethodBmp&methods != 0 || entry.streamingMethodBmp&methods != 0 {
			return errors.NewRouterError(path, "conflicting handler kind already registered for one or more methods")
		}
		entry.assignAsyncHandler(methods, handler)
		return nil
	})
}

func (r *Router) setPathInternal(methods MethodBmp, path string, assign func(*routeNode, *PathHandlerEntry) error) (*PathHandlerEntry, error) {
	trailingSlash := hasTrailingSlash(path)
	segPath := segmentationPath(path)

	compiled, err := compilePattern(segPath)
	if err != nil {
		return nil, err
	}
	compiled.hasNoSlashRegistered = !trailingSlash
	compiled.hasWithSlashRegistered = trailingSlash

	if r.root == nil {
		r.root = newRouteNode()
	}
	node := r.root
	for _, seg := range compiled.segments {
		if seg.isLiteral() {
			node = node.ensureLiteralChild(seg.literal)
		} else {
			node = node.ensureDynamicChild(seg)
		}
	}
	if compiled.hasWildcard {
		if node.wildcardChild == nil {
			node.wildcardChild = newRouteNode()
		}
		node = node.wildcardChild
	}

	if err := ensureRouteMetadata(node, compiled); err != nil {
		return nil, err
	}

	entry := &node.handlersNoSlash
	if trailingSlash {
		entry = &node.handlersWithSlash
	}
	if err := assign(node, entry); err != nil {
		return nil, err
	}

	isLiteralOnly := !compiled.hasWildcard
	for _, seg := range compiled.segments {
		if !seg.isLiteral() {
			isLiteralOnly = false
			break
		}
	}
	if isLiteralOnly {
		// Key by the decoded segment text so an escaped-brace route is found
		// under the path a request actually carries.
		key := ""
		for _, seg := range compiled.segments {
			key += "/" + seg.literal
		}
		if key == "" {
			key = "/"
		}
		r.literalOnlyRoutes.set(key, node)
	}

	return entry, nil
}

// ensureRouteMetadata stores compiled at node.route, or merges the
// with/without-slash registration flags into the existing route when the
// node has already been reached by a prior registration (requiring
// identical parameter names).
func ensureRouteMetadata(node *routeNode, compiled compiledRoute) error {
	if node.route == nil {
		node.route = &compiled
		return nil
	}
	existing := node.route
	if len(existing.paramNames) != len(compiled.paramNames) {
		return errors.NewRouterError("", "conflicting parameter naming for identical path pattern")
	}
	for i := range existing.paramNames {
		if existing.paramNames[i] != compiled.paramNames[i] {
			return errors.NewRouterError("", "conflicting parameter naming for identical path pattern")
		}
	}
	existing.hasNoSlashRegistered = existing.hasNoSlashRegistered || compiled.hasNoSlashRegistered
	existing.hasWithSlashRegistered = existing.hasWithSlashRegistered || compiled.hasWithSlashRegistered
	return nil
}

// Clear removes all registered routes, handlers, and middleware, leaving
// the configuration unchanged.
func (r *Router) Clear() {
	r.defaultHandler = nil
	r.defaultAsyncHandler = nil
	r.defaultStreamingHandler = nil
	r.globalPreMiddleware = nil
	r.globalPostMiddleware = nil
	r.root = nil
	r.literalOnlyRoutes.clear()
}

// String renders the trie as a textual tree for diagnostics: one line per
// node showing its literal/dynamic/wildcard edges and handler presence.
func (r *Router) String() string {
	var b strings.Builder
	if r.root == nil {
		return "<empty router>\n"
	}
	writeNodeTree(&b, r.root, "", "/")
	return b.String()
}

func writeNodeTree(b *strings.Builder, node *routeNode, indent, label string) {
	handlers := ""
	if node.handlersNoSlash.hasAnyHandler() {
		handlers += " [no-slash handlers]"
	}
	if node.handlersWithSlash.hasAnyHandler() {
		handlers += " [with-slash handlers]"
	}
	fmt.Fprintf(b, "%s%s%s\n", indent, label, handlers)

	node.literalChildren.forEach(func(key string, child *routeNode) {
		writeNodeTree(b, child, indent+"  ", key)
	})
	for _, edge := range node.dynamicChildren {
		writeNodeTree(b, edge.child, indent+"  ", "{pattern}")
	}
	if node.wildcardChild != nil {
		writeNodeTree(b, node.wildcardChild, indent+"  ", "*")
	}
}
