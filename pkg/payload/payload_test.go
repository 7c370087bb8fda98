package payload

import (
	"os"
	"testing"
)

func TestFromViewAndOwned(t *testing.T) {
	v := FromView("hello")
	if v.Kind() != KindView || v.Len() != 5 || string(v.View()) != "hello" {
		t.Fatalf("FromView unexpected: %+v", v)
	}

	o := FromOwned([]byte("world!"))
	if o.Kind() != KindOwned || o.Len() != 6 {
		t.Fatalf("FromOwned unexpected: %+v", o)
	}
}

func TestFromFileDisallowsView(t *testing.T) {
	p := FromFile("/tmp/does-not-matter", 10, 20)
	if !p.IsFile() {
		t.Fatalf("expected IsFile")
	}
	if p.Len() != 20 {
		t.Fatalf("Len() = %d, want 20", p.Len())
	}
	if p.View() != nil {
		t.Fatalf("View() on a file payload should be nil")
	}
}

func TestOpenFileSeeksToOffset(t *testing.T) {
	tmp, err := os.CreateTemp("", "payload-test-*.bin")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer os.Remove(tmp.Name())
	tmp.WriteString("0123456789")
	tmp.Close()

	p := FromFile(tmp.Name(), 3, 4)
	f, err := p.OpenFile()
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "3456" {
		t.Fatalf("Read() = %q, want %q", buf, "3456")
	}
}
