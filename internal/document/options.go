package document

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/dotrain/internal/namespace"
)

const (
	// DefaultMaxImportDepth bounds the number of import hops below a
	// document.
	DefaultMaxImportDepth = 32
	// DefaultMaxNamespaceDepth bounds the number of segments of any
	// namespace path.
	DefaultMaxNamespaceDepth = namespace.DefaultMaxDepth
	// DefaultConcurrency bounds concurrent import fetches per document.
	DefaultConcurrency = 8
)

// URIGenerator produces URIs for documents created without one.
type URIGenerator interface {
	Generate() string
}

type untitledURIs struct{}

func (untitledURIs) Generate() string {
	return "untitled:" + uuid.NewString()
}

type options struct {
	maxImportDepth    int
	maxNamespaceDepth int
	concurrency       int
	logger            *slog.Logger
	uris              URIGenerator
}

// Option configures a Document.
type Option func(*options)

// WithMaxImportDepth sets how many import hops a document may chain.
//
// Default: 32 (DefaultMaxImportDepth)
func WithMaxImportDepth(n int) Option {
	return func(o *options) {
		o.maxImportDepth = n
	}
}

// WithMaxNamespaceDepth sets the maximum number of namespace path segments.
//
// Default: 32 (DefaultMaxNamespaceDepth)
func WithMaxNamespaceDepth(n int) Option {
	return func(o *options) {
		o.maxNamespaceDepth = n
	}
}

// WithConcurrency bounds concurrent import fetches in async parses.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithURIGenerator sets the generator used when a document is created
// without a URI. The default produces "untitled:<uuid>".
func WithURIGenerator(g URIGenerator) Option {
	return func(o *options) {
		o.uris = g
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		maxImportDepth:    DefaultMaxImportDepth,
		maxNamespaceDepth: DefaultMaxNamespaceDepth,
		concurrency:       DefaultConcurrency,
		uris:              untitledURIs{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxImportDepth <= 0 {
		o.maxImportDepth = DefaultMaxImportDepth
	}
	if o.maxNamespaceDepth <= 0 {
		o.maxNamespaceDepth = DefaultMaxNamespaceDepth
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
