package schema

import "path/filepath"

// Source identifies where a schema document originated so loaders can operate
// on files, fs.FS entries, or URLs without leaking implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindFS    SourceKind = "fs"
	SourceKindURL   SourceKind = "url"
	SourceKindBytes SourceKind = "bytes"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

type urlSource struct {
	raw string
}

func (s urlSource) Location() string { return s.raw }
func (s urlSource) Kind() SourceKind { return SourceKindURL }

// SourceFromURL returns a Source pointing at a remote document. The URL is
// validated when a loader dereferences it, not here.
func SourceFromURL(raw string) Source {
	return urlSource{raw: raw}
}

type bytesSource struct {
	data []byte
}

func (s bytesSource) Location() string { return "inline" }
func (s bytesSource) Kind() SourceKind { return SourceKindBytes }

// Bytes exposes the wrapped payload to loaders.
func (s bytesSource) Bytes() []byte { return s.data }

// SourceFromBytes wraps an in-memory document, useful for tests and callers
// that already fetched the payload themselves.
func SourceFromBytes(data []byte) Source {
	return bytesSource{data: data}
}
