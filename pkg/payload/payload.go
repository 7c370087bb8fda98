// Package payload implements the tagged payload union consumed by the
// response builder (component G) and the request body (component F):
// empty, a borrowed string view, an owned byte slice, or a file path +
// offset + length.
package payload

import (
	"os"

	"github.com/aeronet-go/aeronet/pkg/errors"
)

// Kind discriminates the active representation of a Payload.
type Kind int

const (
	// KindEmpty is the zero value: no body.
	KindEmpty Kind = iota
	// KindView is a borrowed string view (e.g. into the connection's input
	// buffer); the caller guarantees it outlives the Payload's use.
	KindView
	// KindOwned is an owned, independently-allocated byte slice.
	KindOwned
	// KindFile is a file path + byte range, sent via sendfile-style
	// transmission rather than being read into memory.
	KindFile
)

// File describes a file-backed payload range.
type File struct {
	Path   string
	Offset int64
	Length int64
}

// Payload is the tagged union over the body representations above.
type Payload struct {
	kind  Kind
	view  string
	owned []byte
	file  File
}

// Empty returns the zero Payload.
func Empty() Payload { return Payload{kind: KindEmpty} }

// FromView wraps a borrowed string view.
func FromView(s string) Payload { return Payload{kind: KindView, view: s} }

// FromOwned wraps an owned byte slice.
func FromOwned(b []byte) Payload { return Payload{kind: KindOwned, owned: b} }

// FromFile wraps a byte range of the file at path. Once a Payload is set to file,
// appending a trailer is disallowed and Content-Length derives from Length.
func FromFile(path string, offset, length int64) Payload {
	return Payload{kind: KindFile, file: File{Path: path, Offset: offset, Length: length}}
}

// Kind reports which representation is active.
func (p Payload) Kind() Kind { return p.kind }

// IsFile reports whether this payload is file-backed.
func (p Payload) IsFile() bool { return p.kind == KindFile }

// Empty reports whether the payload carries no body.
func (p Payload) Empty() bool { return p.kind == KindEmpty }

// View returns a contiguous byte view for all non-file variants; for a file
// payload it returns nil (callers must use FileInfo instead).
func (p Payload) View() []byte {
	switch p.kind {
	case KindView:
		return []byte(p.view)
	case KindOwned:
		return p.owned
	default:
		return nil
	}
}

// FileInfo returns the file path and range for a file payload; the second
// return value is false for non-file payloads.
func (p Payload) FileInfo() (File, bool) {
	if p.kind != KindFile {
		return File{}, false
	}
	return p.file, true
}

// Len returns the logical content length: len(view()) for in-memory
// variants, File.Length for file variants, 0 for empty.
func (p Payload) Len() int64 {
	switch p.kind {
	case KindView:
		return int64(len(p.view))
	case KindOwned:
		return int64(len(p.owned))
	case KindFile:
		return p.file.Length
	default:
		return 0
	}
}

// OpenFile opens the backing file of a file payload, seeked to Offset. The
// caller owns the returned handle and must close it.
func (p Payload) OpenFile() (*os.File, error) {
	f, ok := p.FileInfo()
	if !ok {
		return nil, errors.NewResourceError("open_file", "payload is not file-backed")
	}
	handle, err := os.Open(f.Path)
	if err != nil {
		return nil, errors.NewIOError("opening payload file", 0, err)
	}
	if f.Offset != 0 {
		if _, err := handle.Seek(f.Offset, 0); err != nil {
			handle.Close()
			return nil, errors.NewIOError("seeking payload file", 0, err)
		}
	}
	return handle, nil
}
