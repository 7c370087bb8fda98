package cors

import (
	"testing"

	"github.com/aeronet-go/aeronet/pkg/header"
)

func TestSimpleRequestWildcardOrigin(t *testing.T) {
	p := NewPolicy().AllowAnyOrigin()
	resp := header.NewIndex()
	status := p.ApplyToResponse("https://example.com", resp)
	if status != Applied {
		t.Fatalf("status = %v, want Applied", status)
	}
	if got, _ := resp.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin = %q, want *", got)
	}
	if resp.Has("Vary") {
		t.Fatalf("wildcard-origin policy should not set Vary: Origin")
	}
}

func TestSimpleRequestEnumeratedOriginMirrorsAndSetsVary(t *testing.T) {
	p := NewPolicy().AllowOrigin("https://example.com")
	resp := header.NewIndex()
	status := p.ApplyToResponse("https://example.com", resp)
	if status != Applied {
		t.Fatalf("status = %v, want Applied", status)
	}
	if got, _ := resp.Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("Allow-Origin = %q, want mirrored origin", got)
	}
	if got, _ := resp.Get("Vary"); got != "Origin" {
		t.Fatalf("Vary = %q, want Origin", got)
	}
}

func TestSimpleRequestOriginDenied(t *testing.T) {
	p := NewPolicy().AllowOrigin("https://allowed.example")
	resp := header.NewIndex()
	status := p.ApplyToResponse("https://evil.example", resp)
	if status != OriginDenied {
		t.Fatalf("status = %v, want OriginDenied", status)
	}
}

func TestApplyToResponseNotCorsWithoutOrigin(t *testing.T) {
	p := NewPolicy().AllowAnyOrigin()
	resp := header.NewIndex()
	if status := p.ApplyToResponse("", resp); status != NotCors {
		t.Fatalf("status = %v, want NotCors", status)
	}
}

func TestVaryPreservesExistingValueAndAvoidsDuplicateOriginToken(t *testing.T) {
	p := NewPolicy().AllowOrigin("https://example.com")
	resp := header.NewIndex()
	resp.Add("Vary", "Accept-Encoding")
	p.ApplyToResponse("https://example.com", resp)
	if got, _ := resp.Get("Vary"); got != "Accept-Encoding, Origin" {
		t.Fatalf("Vary = %q, want %q", got, "Accept-Encoding, Origin")
	}

	// A second application must not duplicate the Origin token.
	p.ApplyToResponse("https://example.com", resp)
	if got, _ := resp.Get("Vary"); got != "Accept-Encoding, Origin" {
		t.Fatalf("Vary after second apply = %q, want unchanged", got)
	}
}

func TestHandlePreflightNotPreflightShape(t *testing.T) {
	p := NewPolicy().AllowAnyOrigin()
	status, resp := p.HandlePreflight(PreflightRequest{Method: "GET", Origin: "https://example.com"})
	if status != NotPreflight || resp != nil {
		t.Fatalf("status = %v, resp = %v, want NotPreflight/nil", status, resp)
	}
}

func TestHandlePreflightAllowed(t *testing.T) {
	p := NewPolicy().
		AllowOrigin("https://example.com").
		AllowMethods("GET", "PUT").
		AllowRequestHeader("x-custom").
		MaxAge(600)

	status, resp := p.HandlePreflight(PreflightRequest{
		Method:       "OPTIONS",
		Origin:       "https://example.com",
		HasACRMethod: true,
		ACRMethod:    "PUT",
		ACRHeaders:   "X-Custom",
	})
	if status != PreflightAllowed {
		t.Fatalf("status = %v, want PreflightAllowed", status)
	}
	if got, _ := resp.Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if got, _ := resp.Get("Access-Control-Allow-Methods"); got != "GET, PUT" {
		t.Fatalf("Allow-Methods = %q, want %q", got, "GET, PUT")
	}
	if got, _ := resp.Get("Access-Control-Allow-Headers"); got != "x-custom" {
		t.Fatalf("Allow-Headers = %q, want x-custom", got)
	}
	if got, _ := resp.Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("Max-Age = %q, want 600", got)
	}
}

func TestHandlePreflightMethodDenied(t *testing.T) {
	p := NewPolicy().AllowAnyOrigin().AllowMethods("GET")
	status, resp := p.HandlePreflight(PreflightRequest{
		Method:       "OPTIONS",
		Origin:       "https://example.com",
		HasACRMethod: true,
		ACRMethod:    "DELETE",
	})
	if status != PreflightMethodDenied || resp != nil {
		t.Fatalf("status = %v, resp = %v, want PreflightMethodDenied/nil", status, resp)
	}
}

func TestHandlePreflightHeadersDenied(t *testing.T) {
	p := NewPolicy().AllowAnyOrigin().AllowRequestHeader("x-allowed")
	status, _ := p.HandlePreflight(PreflightRequest{
		Method:       "OPTIONS",
		Origin:       "https://example.com",
		HasACRMethod: true,
		ACRMethod:    "GET",
		ACRHeaders:   "X-Allowed, X-Not-Allowed",
	})
	if status != PreflightHeadersDenied {
		t.Fatalf("status = %v, want PreflightHeadersDenied", status)
	}
}

func TestHandlePreflightAllowAnyRequestHeadersEchoesWildcard(t *testing.T) {
	p := NewPolicy().AllowAnyOrigin().AllowAnyRequestHeaders()
	status, resp := p.HandlePreflight(PreflightRequest{
		Method:       "OPTIONS",
		Origin:       "https://example.com",
		HasACRMethod: true,
		ACRMethod:    "GET",
		ACRHeaders:   "X-Whatever",
	})
	if status != PreflightAllowed {
		t.Fatalf("status = %v, want PreflightAllowed", status)
	}
	if got, _ := resp.Get("Access-Control-Allow-Headers"); got != "*" {
		t.Fatalf("Allow-Headers = %q, want *", got)
	}
}

func TestHandlePreflightBoundsEchoedRequestHeaders(t *testing.T) {
	p := NewPolicy().AllowAnyOrigin().WithMaxEchoedRequestHeaders(2)
	acrHeaders := "x-one, x-two, x-three"
	status, resp := p.HandlePreflight(PreflightRequest{
		Method:       "OPTIONS",
		Origin:       "https://example.com",
		HasACRMethod: true,
		ACRMethod:    "GET",
		ACRHeaders:   acrHeaders,
	})
	if status != PreflightAllowed {
		t.Fatalf("status = %v, want PreflightAllowed", status)
	}
	if got, _ := resp.Get("Access-Control-Allow-Headers"); got != "x-one, x-two" {
		t.Fatalf("Allow-Headers = %q, want bounded to first 2 tokens", got)
	}
}

func TestHandlePreflightOriginDenied(t *testing.T) {
	p := NewPolicy().AllowOrigin("https://allowed.example")
	status, resp := p.HandlePreflight(PreflightRequest{
		Method:       "OPTIONS",
		Origin:       "https://evil.example",
		HasACRMethod: true,
		ACRMethod:    "GET",
	})
	if status != PreflightOriginDenied || resp != nil {
		t.Fatalf("status = %v, resp = %v, want PreflightOriginDenied/nil", status, resp)
	}
}
