package metastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/resolver"
)

var (
	// ErrNotFound reports that a hash is neither cached nor resolvable.
	ErrNotFound = resolver.ErrNotFound

	// ErrHashMismatch reports a payload that does not hash to its claimed key.
	ErrHashMismatch = errors.New("payload does not match hash")
)

// DefaultFetchTimeout bounds one shared remote resolution.
const DefaultFetchTimeout = 30 * time.Second

// Options configures a Store. The default endpoint list is opt-in.
type Options struct {
	// IncludeDefaultEndpoints adds resolver.DefaultEndpoints to Endpoints.
	IncludeDefaultEndpoints bool
	// Endpoints are subgraph URLs queried on a cache miss.
	Endpoints []string
	// Sources are extra non-subgraph sources, such as a local registry.
	Sources []resolver.Source
	// Subgraph configures the HTTP sources built for each endpoint. Zero
	// backoff bounds fall back to resolver.DefaultSubgraphOptions.
	Subgraph resolver.SubgraphOptions
	// FetchTimeout bounds a single shared resolution; DefaultFetchTimeout when zero.
	FetchTimeout time.Duration
	// Logger receives cache events; discarded when nil.
	Logger *slog.Logger
}

// Store is the hash-addressed metadata cache. Safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	cache         map[ir.Hash][]byte
	deployers     map[ir.Hash]*meta.Deployer // by bytecode hash
	deployerIndex map[ir.Hash]ir.Hash        // meta hash -> bytecode hash
	dotrains      map[string]ir.Hash         // uri -> document hash
	subgraphs     []string
	sources       []resolver.Source
	subgraphSrcs  map[string]resolver.Source

	group        singleflight.Group
	subgraphOpts resolver.SubgraphOptions
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// New creates an empty Store.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	s := &Store{
		cache:         make(map[ir.Hash][]byte),
		deployers:     make(map[ir.Hash]*meta.Deployer),
		deployerIndex: make(map[ir.Hash]ir.Hash),
		dotrains:      make(map[string]ir.Hash),
		subgraphSrcs:  make(map[string]resolver.Source),
		sources:       slices.Clone(opts.Sources),
		subgraphOpts:  opts.Subgraph,
		fetchTimeout:  timeout,
		logger:        logger,
	}
	if opts.IncludeDefaultEndpoints {
		s.AddSubgraphs(resolver.DefaultEndpoints...)
	}
	s.AddSubgraphs(opts.Endpoints...)
	return s
}

// Get returns the cached payload for hash without any I/O.
// The returned slice is shared and must not be modified.
func (s *Store) Get(hash ir.Hash) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.cache[hash]
	return p, ok
}

// GetMeta is an alias of Get used by editor services.
func (s *Store) GetMeta(hash ir.Hash) ([]byte, bool) {
	return s.Get(hash)
}

// Update returns the payload for hash, resolving it remotely on a miss and
// caching the result. Concurrent calls for the same hash share one
// resolution. Abandoning ctx returns early without cancelling the shared
// fetch, which other callers may still be waiting on.
func (s *Store) Update(ctx context.Context, hash ir.Hash) ([]byte, error) {
	if p, ok := s.Get(hash); ok {
		s.logger.Debug("meta cache hit", "hash", hash.String())
		return p, nil
	}

	ch := s.group.DoChan(hash.String(), func() (any, error) {
		if p, ok := s.Get(hash); ok {
			return p, nil
		}
		s.logger.Debug("meta cache miss, resolving", "hash", hash.String())

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		payload, err := s.resolver().Resolve(fetchCtx, hash)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("resolve %s: %w", hash, ErrNotFound)
			}
			return nil, err
		}
		s.insert(hash, payload)
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// UpdateCheck returns the cached payload, or resolves it like Update.
func (s *Store) UpdateCheck(ctx context.Context, hash ir.Hash) ([]byte, error) {
	if p, ok := s.Get(hash); ok {
		return p, nil
	}
	return s.Update(ctx, hash)
}

// UpdateWith inserts payload under hash after verifying that hash is the
// payload's content hash. An existing entry is kept as is.
func (s *Store) UpdateWith(hash ir.Hash, payload []byte) error {
	if got := ir.ContentHash(payload); got != hash {
		return fmt.Errorf("update %s: %w (content hash %s)", hash, ErrHashMismatch, got)
	}
	s.insert(hash, payload)
	return nil
}

// Put stores payload under its own content hash and returns the hash.
func (s *Store) Put(payload []byte) ir.Hash {
	hash := ir.ContentHash(payload)
	s.insert(hash, payload)
	return hash
}

func (s *Store) insert(hash ir.Hash, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[hash]; !ok {
		s.cache[hash] = slices.Clone(payload)
	}
}

// AddSubgraphs appends endpoint URLs for future resolutions, skipping
// duplicates and empty strings.
func (s *Store) AddSubgraphs(urls ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, url := range urls {
		if url == "" || slices.Contains(s.subgraphs, url) {
			continue
		}
		s.subgraphs = append(s.subgraphs, url)
		s.subgraphSrcs[url] = resolver.NewSubgraphSource(url, s.subgraphOpts)
	}
}

// Subgraphs returns the configured endpoint URLs in insertion order.
func (s *Store) Subgraphs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.subgraphs)
}

// AddSources appends extra sources for future resolutions.
func (s *Store) AddSources(sources ...resolver.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, sources...)
}

// resolver snapshots the current sources: extra sources first, then subgraphs.
func (s *Store) resolver() *resolver.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sources := slices.Clone(s.sources)
	for _, url := range s.subgraphs {
		sources = append(sources, s.subgraphSrcs[url])
	}
	return resolver.New(s.logger, sources...)
}

// Merge unions other's entries, deployer records, document bindings and
// subgraphs into s. On a key collision the entry already in s is kept.
func (s *Store) Merge(other *Store) {
	if other == nil || other == s {
		return
	}

	other.mu.RLock()
	cache := make(map[ir.Hash][]byte, len(other.cache))
	for k, v := range other.cache {
		cache[k] = v
	}
	deployers := make(map[ir.Hash]*meta.Deployer, len(other.deployers))
	for k, v := range other.deployers {
		deployers[k] = v
	}
	index := make(map[ir.Hash]ir.Hash, len(other.deployerIndex))
	for k, v := range other.deployerIndex {
		index[k] = v
	}
	dotrains := make(map[string]ir.Hash, len(other.dotrains))
	for k, v := range other.dotrains {
		dotrains[k] = v
	}
	subgraphs := slices.Clone(other.subgraphs)
	other.mu.RUnlock()

	s.mu.Lock()
	for k, v := range cache {
		if _, ok := s.cache[k]; !ok {
			s.cache[k] = v
		}
	}
	for k, v := range deployers {
		if _, ok := s.deployers[k]; !ok {
			s.deployers[k] = v
		}
	}
	for k, v := range index {
		if _, ok := s.deployerIndex[k]; !ok {
			s.deployerIndex[k] = v
		}
	}
	for k, v := range dotrains {
		if _, ok := s.dotrains[k]; !ok {
			s.dotrains[k] = v
		}
	}
	s.mu.Unlock()

	s.AddSubgraphs(subgraphs...)
}

// Len returns the number of cached payloads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Hashes returns every cached hash in byte order.
func (s *Store) Hashes() []ir.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ir.Hash, 0, len(s.cache))
	for h := range s.cache {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b ir.Hash) int { return slices.Compare(a[:], b[:]) })
	return out
}
