package document

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/metastore"
	"github.com/roach88/dotrain/internal/resolver"
	"github.com/roach88/dotrain/internal/testutil"
)

const testURI = "file:///test.rain"

func newStore(t *testing.T, sources ...resolver.Source) *metastore.Store {
	t.Helper()
	return metastore.New(metastore.Options{Sources: sources})
}

// putDotrain stores text as a dotrain payload and returns its hash.
func putDotrain(s *metastore.Store, text string) ir.Hash {
	return s.Put(testutil.DotrainPayload(text))
}

// forgedStore serves payloads under hashes they do not hash to, which is
// the only way to build import cycles out of content-addressed documents.
type forgedStore struct {
	*metastore.Store
	mu     sync.Mutex
	forged map[ir.Hash][]byte
}

func newForgedStore(t *testing.T) *forgedStore {
	return &forgedStore{Store: newStore(t), forged: make(map[ir.Hash][]byte)}
}

func (f *forgedStore) forge(name string, payload []byte) ir.Hash {
	h := ir.ContentHash([]byte("forged:" + name))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forged[h] = payload
	return h
}

func (f *forgedStore) Get(h ir.Hash) ([]byte, bool) {
	f.mu.Lock()
	p, ok := f.forged[h]
	f.mu.Unlock()
	if ok {
		return p, true
	}
	return f.Store.Get(h)
}

func (f *forgedStore) Update(ctx context.Context, h ir.Hash) ([]byte, error) {
	if p, ok := f.Get(h); ok {
		return p, nil
	}
	return f.Store.Update(ctx, h)
}

// gatedStore blocks remote resolution until the gate is closed.
type gatedStore struct {
	*metastore.Store
	gate    chan struct{}
	started chan struct{}
}

func newGatedStore(t *testing.T, sources ...resolver.Source) *gatedStore {
	return &gatedStore{
		Store:   newStore(t, sources...),
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
}

func (g *gatedStore) Update(ctx context.Context, h ir.Hash) ([]byte, error) {
	select {
	case g.started <- struct{}{}:
	default:
	}
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Store.Update(ctx, h)
}

// pausedStore holds SetDotrain for one text until release is closed.
type pausedStore struct {
	*metastore.Store
	text    string
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newPausedStore(t *testing.T, text string) *pausedStore {
	return &pausedStore{
		Store:   newStore(t),
		text:    text,
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *pausedStore) SetDotrain(text, uri string, keepOld bool) ir.Hash {
	if text == p.text {
		p.once.Do(func() { close(p.reached) })
		<-p.release
	}
	return p.Store.SetDotrain(text, uri, keepOld)
}

// wordsStore returns a store holding a words payload for the given names.
func wordsStore(t *testing.T, names ...string) (*metastore.Store, ir.Hash) {
	t.Helper()
	s := newStore(t)
	return s, s.Put(testutil.WordsPayload(names...))
}

// importLine renders an import statement.
func importLine(path string, h ir.Hash, configs ...string) string {
	parts := append([]string{"@" + path, h.String()}, configs...)
	return strings.Join(parts, " ")
}

// chain stores a document chain of the given number of import hops and
// returns the root text. Every document imports the next at the root, so
// the namespace stays flat; the leaf defines "#leaf 1".
func chain(s *metastore.Store, hops int) string {
	text := "#leaf 1"
	for i := 0; i < hops; i++ {
		h := putDotrain(s, text)
		text = importLine("", h) + fmt.Sprintf("\n#v%d 1", i)
	}
	return text
}

func codes(problems []ir.Problem) []ir.ErrorCode {
	out := []ir.ErrorCode{}
	for _, p := range problems {
		out = append(out, p.Code)
	}
	return out
}

var addDeployer = &meta.Deployer{
	Bytecode: []byte{0x60, 0x80},
	Words: []meta.Word{
		testutil.Word("add"),
		testutil.BoundedWord("sub", 2, 0),
		testutil.BoundedWord("read", 1, 1),
	},
}
