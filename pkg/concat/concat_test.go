package concat

import "testing"

func TestListAppendAndString(t *testing.T) {
	l := New(", ")
	l.Append("gzip")
	l.Append("deflate")
	l.Append("br")

	if got, want := l.String(), "gzip, deflate, br"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
}

func TestListContainsCaseInsensitive(t *testing.T) {
	l := New(", ")
	l.Append("Content-Type")
	l.Append("X-Custom")

	if !l.Contains("content-type", true) {
		t.Fatalf("expected case-insensitive contains to match")
	}
	if l.Contains("content-type", false) {
		t.Fatalf("did not expect exact-case contains to match")
	}
}

func TestListForEachStopsEarly(t *testing.T) {
	l := New(",")
	l.Append("a")
	l.Append("b")
	l.Append("c")

	var seen []string
	l.ForEach(func(tok string) bool {
		seen = append(seen, tok)
		return tok != "b"
	})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("ForEach early-stop produced %v", seen)
	}
}

func TestParseCSVTrims(t *testing.T) {
	got := ParseCSV(" X-A ,X-B,  , X-C")
	want := []string{"X-A", "X-B", "X-C"}
	if len(got) != len(want) {
		t.Fatalf("ParseCSV = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ParseCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
