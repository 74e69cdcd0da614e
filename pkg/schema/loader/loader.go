package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/quotelane/go-quoteform/pkg/schema"
)

// Loader fetches schema documents from file, fs.FS, HTTP, or in-memory
// sources and parses them into normalised schemas.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS supplies the filesystem used for SourceKindFS sources.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithHTTPClient enables URL sources using the supplied client. Passing nil
// enables a default client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client == nil {
			client = &http.Client{}
		}
		l.http = client
		l.allowHTTP = true
	}
}

// WithRequestTimeout bounds each HTTP fetch.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// New constructs a Loader with the provided options.
func New(options ...Option) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	if l.http != nil && l.timeout > 0 && l.http.Timeout == 0 {
		clone := *l.http
		clone.Timeout = l.timeout
		l.http = &clone
	}
	return l
}

// Load fetches the document behind src and parses it.
func (l *Loader) Load(ctx context.Context, src schema.Source) (*schema.Schema, error) {
	if src == nil {
		return nil, errors.New("schema loader: source is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case schema.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case schema.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case schema.SourceKindURL:
		if !l.allowHTTP {
			return nil, errors.New("schema loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	case schema.SourceKindBytes:
		data, err = loadBytes(src)
	default:
		err = errors.New("schema loader: unsupported source kind")
	}
	if err != nil {
		return nil, err
	}

	return schema.Parse(data)
}

func loadBytes(src schema.Source) ([]byte, error) {
	carrier, ok := src.(interface{ Bytes() []byte })
	if !ok {
		return nil, errors.New("schema loader: bytes source does not expose its payload")
	}
	return carrier.Bytes(), nil
}
