package reactor

import (
	"github.com/aeronet-go/aeronet/pkg/cors"
	"github.com/aeronet-go/aeronet/pkg/message"
	"github.com/aeronet-go/aeronet/pkg/router"
)

// routingOutcome is either a finished response (a CORS preflight decision
// or a request-middleware short-circuit, neither of which reaches a
// handler) or a matched RoutingResult still awaiting dispatch.
type routingOutcome struct {
	shortCircuit *message.Response
	result       router.RoutingResult
	origin       string
}

// resolve runs route matching, CORS preflight evaluation, and request
// middleware, stopping early wherever the spec says a response is
// produced without reaching a handler.
func (rx *Reactor) resolve(req *message.Request) routingOutcome {
	bmp, _ := router.MethodFromString(req.Method)
	result := rx.router.Match(bmp, req.Path)
	req.PathParams = result.PathParams
	origin := req.Headers.GetOrEmpty("Origin")

	if result.CorsPolicy != nil {
		pf := cors.PreflightRequest{
			Method:       req.Method,
			Origin:       origin,
			ACRMethod:    req.Headers.GetOrEmpty("Access-Control-Request-Method"),
			HasACRMethod: req.Headers.Has("Access-Control-Request-Method"),
			ACRHeaders:   req.Headers.GetOrEmpty("Access-Control-Request-Headers"),
		}
		if status, hdrs := result.CorsPolicy.HandlePreflight(pf); status != cors.NotPreflight {
			resp := message.NewResponse()
			if status == cors.PreflightAllowed {
				resp.StatusCode = 204
				for _, name := range hdrs.Names() {
					for _, occ := range hdrs.Occurrences(name) {
						resp.Headers.Add(occ.Name, occ.Value)
					}
				}
			} else {
				resp.StatusCode = 403
			}
			return routingOutcome{shortCircuit: resp}
		}
	}

	for _, mw := range result.RequestMiddleware {
		if short := mw(req); short != nil {
			return routingOutcome{shortCircuit: short, origin: origin}
		}
	}

	return routingOutcome{result: result, origin: origin}
}

// finalize applies CORS response headers and response middleware to resp,
// the tail end of the pipeline every dispatch kind passes through.
func (rx *Reactor) finalize(req *message.Request, resp *message.Response, outcome routingOutcome) *message.Response {
	if resp == nil {
		resp = message.NewResponse()
		resp.StatusCode = 500
	}
	if outcome.result.CorsPolicy != nil {
		outcome.result.CorsPolicy.ApplyToResponse(outcome.origin, resp.Headers)
	}
	for _, mw := range outcome.result.ResponseMiddleware {
		mw(req, resp)
	}
	return resp
}

func (rx *Reactor) notFoundResponse() *message.Response {
	resp := message.NewResponse()
	resp.StatusCode = 404
	resp.Body = rx.notFoundBody()
	return resp
}
