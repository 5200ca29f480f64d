package document

import (
	"context"

	"go.uber.org/atomic"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/lexer"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/metastore"
	"github.com/roach88/dotrain/internal/namespace"
)

// MetaStore is the metadata cache a document resolves imports against.
// *metastore.Store implements it.
type MetaStore interface {
	// Get returns a cached payload without I/O.
	Get(hash ir.Hash) ([]byte, bool)
	// Update returns a payload, fetching it on a cache miss.
	Update(ctx context.Context, hash ir.Hash) ([]byte, error)
	// SetDotrain records text as the current content of uri.
	SetDotrain(text, uri string, keepOld bool) ir.Hash
	// PutDeployer records a decoded deployer under its meta hash.
	PutDeployer(metaHash ir.Hash, d *meta.Deployer) *meta.Deployer
}

var _ MetaStore = (*metastore.Store)(nil)

// Document is a .rain document bound to a URI and a MetaStore.
//
// Reads are safe from any goroutine. Updates should be serialised by the
// caller; when they overlap, the one that completes last is kept.
type Document struct {
	uri   string
	store MetaStore
	opts  *options

	snap    *atomic.Pointer[Snapshot]
	parsing *atomic.Int32
}

func newDocument(uri string, store MetaStore, opts []Option) *Document {
	o := newOptions(opts)
	if uri == "" {
		uri = o.uris.Generate()
	}
	return &Document{
		uri:     uri,
		store:   store,
		opts:    o,
		snap:    atomic.NewPointer(emptySnapshot(uri)),
		parsing: atomic.NewInt32(0),
	}
}

// Create parses text using cached metadata only; missing imports become
// UndefinedMeta problems. An empty uri is replaced by a generated one.
func Create(text, uri string, store MetaStore, opts ...Option) *Document {
	d := newDocument(uri, store, opts)
	d.Update(text)
	return d
}

// CreateAsync is like Create but fetches missing imports through the
// store. It fails only when ctx is done before the parse completes.
func CreateAsync(ctx context.Context, text, uri string, store MetaStore, opts ...Option) (*Document, error) {
	d := newDocument(uri, store, opts)
	if err := d.UpdateAsync(ctx, text); err != nil {
		return nil, err
	}
	return d, nil
}

// Update replaces the document text and re-parses it against cached
// metadata only.
func (d *Document) Update(text string) {
	// A background context never ends, so the parse cannot fail.
	_ = d.run(context.Background(), text, false)
}

// UpdateAsync replaces the document text, fetching missing imports. When
// ctx is done first, nothing is committed and ctx's error is returned.
func (d *Document) UpdateAsync(ctx context.Context, text string) error {
	return d.run(ctx, text, true)
}

func (d *Document) run(ctx context.Context, text string, async bool) error {
	d.parsing.Inc()
	defer d.parsing.Dec()

	s := &session{ctx: ctx, async: async, store: d.store, opts: d.opts}
	next, err := s.parse(text, []ir.Hash{meta.DotrainHash(text)})
	if err != nil {
		d.opts.logger.Debug("parse abandoned", "uri", d.uri, "error", err)
		return err
	}
	next.URI = d.uri
	d.commit(next)
	d.register(next)
	return nil
}

// register binds the document URI to the text of snap in the store. An
// overlapping update may commit in between, so the current snapshot is
// re-registered until the store agrees with it.
func (d *Document) register(snap *Snapshot) {
	for {
		d.store.SetDotrain(snap.Text, d.uri, false)
		cur := d.snap.Load()
		if cur == snap {
			return
		}
		snap = cur
	}
}

// commit publishes next one version above the snapshot it replaces.
func (d *Document) commit(next *Snapshot) {
	for {
		cur := d.snap.Load()
		next.Version = cur.Version + 1
		if d.snap.CompareAndSwap(cur, next) {
			d.opts.logger.Debug("document parsed",
				"uri", d.uri,
				"version", next.Version,
				"problems", len(next.Problems),
				"state", next.State.String())
			return
		}
	}
}

// Snapshot returns the current parse result.
func (d *Document) Snapshot() *Snapshot { return d.snap.Load() }

// URI returns the document URI.
func (d *Document) URI() string { return d.uri }

// Store returns the document's metadata store.
func (d *Document) Store() MetaStore { return d.store }

// State returns Parsing while an update is in flight, otherwise the state
// of the current snapshot.
func (d *Document) State() State {
	if d.parsing.Load() > 0 {
		return Parsing
	}
	return d.Snapshot().State
}

// Text returns the current text.
func (d *Document) Text() string { return d.Snapshot().Text }

// Version returns the number of committed parses.
func (d *Document) Version() uint64 { return d.Snapshot().Version }

// Namespace returns the current namespace.
func (d *Document) Namespace() *namespace.Namespace { return d.Snapshot().Namespace }

// Bindings returns the document's bindings in source order.
func (d *Document) Bindings() []*Binding { return d.Snapshot().Bindings }

// Comments returns the document's comments.
func (d *Document) Comments() []lexer.Comment { return d.Snapshot().Comments }

// Imports returns the document's import statements.
func (d *Document) Imports() []*Import { return d.Snapshot().Imports }

// FrontMatter returns the raw front matter text.
func (d *Document) FrontMatter() string { return d.Snapshot().FrontMatter }

// Problems returns the top-level problems.
func (d *Document) Problems() []ir.Problem { return d.Snapshot().Problems }

// BindingProblems returns the problems found inside binding bodies.
func (d *Document) BindingProblems() []ir.Problem { return d.Snapshot().BindingProblems() }

// AllProblems returns top-level problems followed by binding problems.
func (d *Document) AllProblems() []ir.Problem { return d.Snapshot().AllProblems() }

// Error returns the fatal error of the current snapshot, or nil.
func (d *Document) Error() error { return d.Snapshot().Error() }
