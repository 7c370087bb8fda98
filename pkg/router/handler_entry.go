package router

import (
	"github.com/aeronet-go/aeronet/pkg/cors"
	"github.com/aeronet-go/aeronet/pkg/message"
)

// handlerKind distinguishes which of the three handler families is bound
// to a given method slot in a PathHandlerEntry.
type handlerKind uint8

const (
	handlerNone handlerKind = iota
	handlerNormal
	handlerStreaming
	handlerAsync
)

// PathHandlerEntry holds the handlers, per-route CORS policy, and
// middleware bound at one trie node for one trailing-slash variant
// (with-slash or without-slash share the same node but have independent
// entries, since a caller may register different handlers for each form
// under the Redirect policy).
type PathHandlerEntry struct {
	normalMethodBmp    MethodBmp
	streamingMethodBmp MethodBmp
	asyncMethodBmp     MethodBmp

	normalHandlers    [methodCount]message.RequestHandler
	streamingHandlers [methodCount]message.StreamingHandler
	asyncHandlers     [methodCount]message.AsyncRequestHandler

	corsPolicy *cors.Policy

	preMiddleware  []RequestMiddleware
	postMiddleware []ResponseMiddleware
}

// RequestMiddleware runs before a matched handler; returning a non-nil
// response short-circuits the handler.
type RequestMiddleware func(*message.Request) *message.Response

// ResponseMiddleware runs after a matched handler produced a response,
// allowed to mutate it in place.
type ResponseMiddleware func(*message.Request, *message.Response)

// hasAnyHandler reports whether any method slot of any kind is populated.
func (e *PathHandlerEntry) hasAnyHandler() bool {
	return e.normalMethodBmp != 0 || e.streamingMethodBmp != 0 || e.asyncMethodBmp != 0
}

func (e *PathHandlerEntry) hasNormalHandler(idx int) bool    { return e.normalHandlers[idx] != nil }
func (e *PathHandlerEntry) hasStreamingHandler(idx int) bool { return e.streamingHandlers[idx] != nil }
func (e *PathHandlerEntry) hasAsyncHandler(idx int) bool     { return e.asyncHandlers[idx] != nil }

// assignNormalHandler binds handler to every method set in methods.
func (e *PathHandlerEntry) assignNormalHandler(methods MethodBmp, handler message.RequestHandler) {
	for m, idx := range methodIndex {
		if methods&m != 0 {
			e.normalHandlers[idx] = handler
			e.normalMethodBmp |= m
		}
	}
}

func (e *PathHandlerEntry) assignStreamingHandler(methods MethodBmp, handler message.StreamingHandler) {
	for m, idx := range methodIndex {
		if methods&m != 0 {
			e.streamingHandlers[idx] = handler
			e.streamingMethodBmp |= m
		}
	}
}

func (e *PathHandlerEntry) assignAsyncHandler(methods MethodBmp, handler message.AsyncRequestHandler) {
	for m, idx := range methodIndex {
		if methods&m != 0 {
			e.asyncHandlers[idx] = handler
			e.asyncMethodBmp |= m
		}
	}
}

// CORS attaches a per-route CORS policy to the entry, overriding the
// router's default policy for this specific path and trailing-slash
// variant. Returns the entry so calls chain off setPath's return value.
func (e *PathHandlerEntry) CORS(policy *cors.Policy) *PathHandlerEntry {
	e.corsPolicy = policy
	return e
}

// Use appends request and response middleware scoped to this route only,
// run after the router's global middleware chain.
func (e *PathHandlerEntry) Use(pre RequestMiddleware, post ResponseMiddleware) *PathHandlerEntry {
	if pre != nil {
		e.preMiddleware = append(e.preMiddleware, pre)
	}
	if post != nil {
		e.postMiddleware = append(e.postMiddleware, post)
	}
	return e
}
