package encoding

import (
	"bytes"
	"testing"
)

func TestNegotiatePicksHighestQ(t *testing.T) {
	coding, ok := Negotiate("gzip;q=0.5, br;q=0.8, deflate", []string{Gzip, Brotli, Deflate})
	if !ok {
		t.Fatalf("expected a negotiable coding")
	}
	if coding != Deflate {
		t.Fatalf("coding = %q, want %q", coding, Deflate)
	}
}

func TestNegotiateTieBreaksByServerPreference(t *testing.T) {
	coding, ok := Negotiate("gzip, br, zstd, deflate", []string{Gzip, Brotli, Deflate, Zstd})
	if !ok || coding != Zstd {
		t.Fatalf("coding = %q, ok = %v, want zstd/true", coding, ok)
	}
}

func TestNegotiateSkipsDisabledCodings(t *testing.T) {
	coding, ok := Negotiate("br;q=1.0, gzip;q=0.9", []string{Gzip})
	if !ok || coding != Gzip {
		t.Fatalf("coding = %q, ok = %v, want gzip/true (br not enabled)", coding, ok)
	}
}

func TestNegotiateEmptyHeaderMeansIdentity(t *testing.T) {
	coding, ok := Negotiate("", []string{Gzip, Brotli})
	if !ok || coding != Identity {
		t.Fatalf("coding = %q, ok = %v, want identity/true", coding, ok)
	}
}

func TestNegotiateIdentityForbiddenWithNoAlternative(t *testing.T) {
	coding, ok := Negotiate("identity;q=0, gzip;q=0", []string{Gzip})
	if ok {
		t.Fatalf("coding = %q, want no negotiable coding (406)", coding)
	}
}

func TestNegotiateWildcardFallsBackToPreferenceOrder(t *testing.T) {
	coding, ok := Negotiate("*;q=1.0", []string{Gzip, Brotli, Zstd})
	if !ok || coding != Zstd {
		t.Fatalf("coding = %q, ok = %v, want zstd/true", coding, ok)
	}
}

func TestSplitContentEncodingReversesOrder(t *testing.T) {
	got := SplitContentEncoding("gzip, br")
	want := []string{Brotli, Gzip}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeDecodeRoundTripEachCodec(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated: the quick brown fox jumps over the lazy dog")
	for _, coding := range []string{Gzip, Deflate, Brotli, Zstd, Identity} {
		var buf bytes.Buffer
		enc, err := NewEncoder(coding, &buf)
		if err != nil {
			t.Fatalf("%s: NewEncoder: %v", coding, err)
		}
		if _, err := enc.Write(payload); err != nil {
			t.Fatalf("%s: Write: %v", coding, err)
		}
		if err := enc.Close(); err != nil {
			t.Fatalf("%s: Close: %v", coding, err)
		}

		decoded, err := Decode(buf.Bytes(), []string{coding}, DefaultGuards(1<<20))
		if err != nil {
			t.Fatalf("%s: Decode: %v", coding, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Fatalf("%s: round-trip mismatch: got %q", coding, decoded)
		}
	}
}

func TestDecodeRejectsOversizedExpansion(t *testing.T) {
	var buf bytes.Buffer
	enc, _ := NewEncoder(Gzip, &buf)
	big := bytes.Repeat([]byte("a"), 1<<16)
	_, _ = enc.Write(big)
	_ = enc.Close()

	guards := Guards{MaxCompressedBytes: int64(buf.Len()) + 1, MaxDecompressedBytes: 1 << 30, MaxExpansionRatio: 2}
	if _, err := Decode(buf.Bytes(), []string{Gzip}, guards); err == nil {
		t.Fatalf("expected expansion-ratio guard to reject this stream")
	}
}
