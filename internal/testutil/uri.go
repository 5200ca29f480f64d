package testutil

import (
	"fmt"
	"sync"
)

// SequentialURIs generates untitled document URIs from a resettable counter.
//
// The same test run with a fresh generator produces the same URIs, which
// keeps golden snapshots stable.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialURIs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialURIs creates a generator. The first call to Generate returns
// "<prefix>1"; an empty prefix defaults to "untitled:test-".
func NewSequentialURIs(prefix string) *SequentialURIs {
	if prefix == "" {
		prefix = "untitled:test-"
	}
	return &SequentialURIs{prefix: prefix}
}

// Generate returns the next URI.
func (g *SequentialURIs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s%d", g.prefix, g.seq)
}

// Current returns how many URIs have been generated.
func (g *SequentialURIs) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next Generate returns "<prefix>1".
func (g *SequentialURIs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedURI returns the same URI every time.
//
// Thread-safety: stateless.
type FixedURI string

// Generate implements document.URIGenerator.
func (u FixedURI) Generate() string {
	if u == "" {
		return "untitled:test-default"
	}
	return string(u)
}
