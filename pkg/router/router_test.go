package router

import (
	"testing"

	"github.com/aeronet-go/aeronet/pkg/message"
)

func handlerReturning(tag string) message.RequestHandler {
	return func(req *message.Request) *message.Response {
		resp := message.NewResponse()
		resp.Headers.Add("X-Handler", tag)
		return resp
	}
}

func TestLiteralRouteMatches(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET, "/health", handlerReturning("health")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	result := r.Match(MethodGET, "/health")
	if result.Kind != HandlerRequest {
		t.Fatalf("Kind = %v, want HandlerRequest", result.Kind)
	}
}

func TestNamedParameterCapture(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET, "/users/{userId}/posts/{post}", handlerReturning("x")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	result := r.Match(MethodGET, "/users/42/posts/foo")
	if result.Kind != HandlerRequest {
		t.Fatalf("Kind = %v, want HandlerRequest", result.Kind)
	}
	want := map[string]string{"userId": "42", "post": "foo"}
	if len(result.PathParams) != 2 {
		t.Fatalf("got %d path params, want 2", len(result.PathParams))
	}
	for _, p := range result.PathParams {
		if want[p.Name] != p.Value {
			t.Fatalf("param %s = %q, want %q", p.Name, p.Value, want[p.Name])
		}
	}
}

func TestUnnamedParameterCapture(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET, "/items/{}/details-{}", handlerReturning("x")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	result := r.Match(MethodGET, "/items/123/details-foo")
	if result.Kind != HandlerRequest {
		t.Fatalf("Kind = %v, want HandlerRequest", result.Kind)
	}
	if len(result.PathParams) != 2 || result.PathParams[0].Value != "123" || result.PathParams[1].Value != "foo" {
		t.Fatalf("unexpected path params: %+v", result.PathParams)
	}
	if result.PathParams[0].Name != "0" || result.PathParams[1].Name != "1" {
		t.Fatalf("unnamed params should be indexed 0,1: %+v", result.PathParams)
	}
}

func TestEscapedBraceLiteral(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET, "/files/{{config}}/data", handlerReturning("x")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	result := r.Match(MethodGET, "/files/{config}/data")
	if result.Kind != HandlerRequest {
		t.Fatalf("Kind = %v, want HandlerRequest", result.Kind)
	}
	if len(result.PathParams) != 0 {
		t.Fatalf("expected no path params for an escaped-brace literal, got %+v", result.PathParams)
	}
}

func TestMixedNamedAndUnnamedRejected(t *testing.T) {
	r := New(DefaultConfig())
	_, err := r.SetPath(MethodGET, "/a/{id}/{}", handlerReturning("x"))
	if err == nil {
		t.Fatalf("expected an error mixing named and unnamed parameters")
	}
}

func TestTerminalWildcard(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET, "/files/*", handlerReturning("x")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	result := r.Match(MethodGET, "/files/a/b/c.txt")
	if result.Kind != HandlerRequest {
		t.Fatalf("Kind = %v, want HandlerRequest", result.Kind)
	}
}

func TestWildcardMustBeTerminal(t *testing.T) {
	r := New(DefaultConfig())
	_, err := r.SetPath(MethodGET, "/files/*/more", handlerReturning("x"))
	if err == nil {
		t.Fatalf("expected an error for a non-terminal wildcard")
	}
}

func TestHeadFallsBackToGet(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET, "/resource", handlerReturning("get")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	result := r.Match(MethodHEAD, "/resource")
	if result.Kind != HandlerRequest {
		t.Fatalf("Kind = %v, want HandlerRequest (falling back to GET)", result.Kind)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET, "/resource", handlerReturning("get")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	result := r.Match(MethodPOST, "/resource")
	if !result.MethodNotAllowed {
		t.Fatalf("expected MethodNotAllowed for POST on a GET-only route")
	}
}

func TestTrailingSlashNormalizeFallsBackToRegisteredVariant(t *testing.T) {
	r := New(Config{TrailingSlashPolicy: Normalize})
	if _, err := r.SetPath(MethodGET, "/a/b", handlerReturning("noslash")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	result := r.Match(MethodGET, "/a/b/")
	if result.Kind != HandlerRequest {
		t.Fatalf("Normalize policy should fall back to the registered no-slash variant, got Kind=%v", result.Kind)
	}
}

func TestTrailingSlashStrictRejectsMismatch(t *testing.T) {
	r := New(Config{TrailingSlashPolicy: Strict})
	if _, err := r.SetPath(MethodGET, "/a/b", handlerReturning("noslash")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	result := r.Match(MethodGET, "/a/b/")
	if result.Kind != HandlerNone {
		t.Fatalf("Strict policy should not match the opposite slash variant, got Kind=%v", result.Kind)
	}
}

func TestTrailingSlashRedirectIndicatesRedirect(t *testing.T) {
	r := New(Config{TrailingSlashPolicy: Redirect})
	if _, err := r.SetPath(MethodGET, "/a/b", handlerReturning("noslash")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	result := r.Match(MethodGET, "/a/b/")
	if result.Kind != HandlerNone || result.RedirectSlash != RedirectRemoveSlash {
		t.Fatalf("expected RedirectRemoveSlash with no handler, got Kind=%v Redirect=%v", result.Kind, result.RedirectSlash)
	}
}

func TestLiteralChildPreferredOverDynamicSibling(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET, "/users/me", handlerReturning("me")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	if _, err := r.SetPath(MethodGET, "/users/{id}", handlerReturning("id")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	meResult := r.Match(MethodGET, "/users/me")
	meResult.RequestHandler(nil)
	if len(meResult.PathParams) != 0 {
		t.Fatalf("literal sibling should win with no path params, got %+v", meResult.PathParams)
	}

	idResult := r.Match(MethodGET, "/users/42")
	if len(idResult.PathParams) != 1 || idResult.PathParams[0].Value != "42" {
		t.Fatalf("dynamic sibling should capture id=42, got %+v", idResult.PathParams)
	}
}

func TestNoMatchFallsThroughToDefaultHandler(t *testing.T) {
	r := New(DefaultConfig())
	r.SetDefault(handlerReturning("fallback"))
	result := r.Match(MethodGET, "/does/not/exist")
	if result.Kind != HandlerRequest {
		t.Fatalf("Kind = %v, want HandlerRequest from the default handler", result.Kind)
	}
}

func TestAllowedMethodsUnion(t *testing.T) {
	r := New(DefaultConfig())
	if _, err := r.SetPath(MethodGET|MethodPOST, "/resource", handlerReturning("x")); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	bmp := r.AllowedMethods("/resource")
	if bmp&MethodGET == 0 || bmp&MethodPOST == 0 {
		t.Fatalf("AllowedMethods = %b, want GET|POST set", bmp)
	}
	if bmp&MethodDELETE != 0 {
		t.Fatalf("AllowedMethods should not include DELETE")
	}
}
