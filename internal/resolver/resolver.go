package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/dotrain/internal/ir"
)

// ErrNotFound reports that no source produced a payload for a hash.
var ErrNotFound = errors.New("meta not found")

// Source is one place payloads can be fetched from.
// Fetch returns ErrNotFound when the source does not know the hash.
type Source interface {
	Name() string
	Fetch(ctx context.Context, hash ir.Hash) ([]byte, error)
}

// Resolver queries a set of sources for payloads.
// Safe for concurrent use; the source list is fixed at construction.
type Resolver struct {
	sources []Source
	logger  *slog.Logger
}

// New creates a Resolver over sources. A nil logger discards output.
func New(logger *slog.Logger, sources ...Source) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{sources: sources, logger: logger}
}

// Sources returns the configured sources.
func (r *Resolver) Sources() []Source {
	return r.sources
}

// Resolve queries all sources concurrently and returns the first payload
// that hashes to hash. Remaining queries are cancelled once one succeeds.
// Returns ErrNotFound if no source produced a matching payload, or the
// context error if ctx ended first.
func (r *Resolver) Resolve(ctx context.Context, hash ir.Hash) ([]byte, error) {
	if len(r.sources) == 0 {
		return nil, ErrNotFound
	}

	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once   sync.Once
		result []byte
		winner string
	)

	var g errgroup.Group
	for _, src := range r.sources {
		g.Go(func() error {
			payload, err := src.Fetch(queryCtx, hash)
			if err != nil {
				if !errors.Is(err, ErrNotFound) && queryCtx.Err() == nil {
					r.logger.Warn("meta source failed",
						"source", src.Name(),
						"hash", hash.String(),
						"error", err,
					)
				}
				return nil
			}
			if got := ir.ContentHash(payload); got != hash {
				r.logger.Warn("meta source returned mismatching payload",
					"source", src.Name(),
					"hash", hash.String(),
					"got", got.String(),
				)
				return nil
			}
			once.Do(func() {
				result = payload
				winner = src.Name()
				cancel()
			})
			return nil
		})
	}
	_ = g.Wait()

	if result != nil {
		r.logger.Info("meta resolved", "hash", hash.String(), "source", winner, "bytes", len(result))
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}
