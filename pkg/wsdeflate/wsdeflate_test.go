package wsdeflate

import (
	"bytes"
	"testing"
)

func TestParseOfferBasic(t *testing.T) {
	params, ok := ParseOffer("permessage-deflate", DefaultParams())
	if !ok {
		t.Fatalf("expected offer to parse")
	}
	if params.ServerMaxWindowBits != 15 || params.ClientMaxWindowBits != 15 {
		t.Fatalf("expected default window bits, got %+v", params)
	}
}

func TestParseOfferRejectsOtherExtension(t *testing.T) {
	if _, ok := ParseOffer("permessage-bzip2", DefaultParams()); ok {
		t.Fatalf("expected non-deflate extension to be rejected")
	}
}

func TestParseOfferWithParams(t *testing.T) {
	params, ok := ParseOffer(
		"permessage-deflate; server_no_context_takeover; client_max_window_bits=10",
		DefaultParams(),
	)
	if !ok {
		t.Fatalf("expected offer to parse")
	}
	if !params.ServerNoContextTakeover {
		t.Fatalf("expected server_no_context_takeover to be set")
	}
	if params.ClientMaxWindowBits != 10 {
		t.Fatalf("ClientMaxWindowBits = %d, want 10", params.ClientMaxWindowBits)
	}
}

func TestParseOfferRejectsInvalidWindowBits(t *testing.T) {
	if _, ok := ParseOffer("permessage-deflate; server_max_window_bits=20", DefaultParams()); ok {
		t.Fatalf("expected out-of-range window bits to be rejected")
	}
}

func TestBuildResponseOmitsDefaults(t *testing.T) {
	got := BuildResponse(DefaultParams())
	if got != extensionToken {
		t.Fatalf("BuildResponse = %q, want bare %q", got, extensionToken)
	}
}

func TestBuildResponseIncludesNonDefaults(t *testing.T) {
	p := DefaultParams()
	p.ServerNoContextTakeover = true
	p.ClientMaxWindowBits = 10
	got := BuildResponse(p)
	if !bytes.Contains([]byte(got), []byte(serverNoContextTakeover)) {
		t.Fatalf("expected %q in response, got %q", serverNoContextTakeover, got)
	}
	if !bytes.Contains([]byte(got), []byte("client_max_window_bits=10")) {
		t.Fatalf("expected window bits param in response, got %q", got)
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	params := DefaultParams()
	server := NewContext(params, true)
	client := NewContext(params, false)

	for _, msg := range []string{"hello", "world, with a bit more text this time", "a third message reusing context"} {
		compressed, err := server.CompressMessage([]byte(msg))
		if err != nil {
			t.Fatalf("CompressMessage: %v", err)
		}
		decompressed, err := client.DecompressMessage(compressed, 1<<16)
		if err != nil {
			t.Fatalf("DecompressMessage: %v", err)
		}
		if string(decompressed) != msg {
			t.Fatalf("round-trip mismatch: got %q, want %q", decompressed, msg)
		}
	}
}

func TestCompressDecompressNoContextTakeover(t *testing.T) {
	params := Params{ServerNoContextTakeover: true, ClientNoContextTakeover: true, ServerMaxWindowBits: 15, ClientMaxWindowBits: 15}
	server := NewContext(params, true)
	client := NewContext(params, false)

	for _, msg := range []string{"first message", "second message, independent window"} {
		compressed, err := server.CompressMessage([]byte(msg))
		if err != nil {
			t.Fatalf("CompressMessage: %v", err)
		}
		decompressed, err := client.DecompressMessage(compressed, 1<<16)
		if err != nil {
			t.Fatalf("DecompressMessage: %v", err)
		}
		if string(decompressed) != msg {
			t.Fatalf("round-trip mismatch: got %q, want %q", decompressed, msg)
		}
	}
}

func TestDecompressRejectsOversizedMessage(t *testing.T) {
	server := NewContext(DefaultParams(), true)
	client := NewContext(DefaultParams(), false)

	compressed, err := server.CompressMessage(bytes.Repeat([]byte("x"), 4096))
	if err != nil {
		t.Fatalf("CompressMessage: %v", err)
	}
	if _, err := client.DecompressMessage(compressed, 10); err == nil {
		t.Fatalf("expected maxDecompressedSize guard to reject this message")
	}
}
