package header

import "testing"

func TestIndexCaseInsensitiveLookup(t *testing.T) {
	idx := NewIndex()
	idx.Add("Content-Type", "text/plain")

	if v, ok := idx.Get("content-TYPE"); !ok || v != "text/plain" {
		t.Fatalf("Get(content-TYPE) = (%q, %v), want (text/plain, true)", v, ok)
	}
}

func TestIndexMergesMergeableHeaders(t *testing.T) {
	idx := NewIndex()
	idx.Add("Accept", "text/html")
	idx.Add("accept", "application/json")

	if v, _ := idx.Get("Accept"); v != "text/html, application/json" {
		t.Fatalf("merged Accept = %q", v)
	}
}

func TestIndexLastOccurrenceWinsForNonMergeable(t *testing.T) {
	idx := NewIndex()
	idx.Add("X-Custom", "first")
	idx.Add("X-Custom", "second")

	if v, _ := idx.Get("X-Custom"); v != "second" {
		t.Fatalf("X-Custom = %q, want %q", v, "second")
	}
}

func TestIndexDeletePreservesOrder(t *testing.T) {
	idx := NewIndex()
	idx.Add("A", "1")
	idx.Add("Content-Encoding", "gzip")
	idx.Add("B", "2")

	idx.Delete("Content-Encoding")
	if idx.Has("Content-Encoding") {
		t.Fatalf("Content-Encoding should have been deleted")
	}
	names := idx.Names()
	want := []string{"a", "b"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
