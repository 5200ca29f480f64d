package testutil

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/resolver"
)

// MapSource is an in-memory resolver.Source for tests. It counts fetches
// and can be slowed down or made to fail.
type MapSource struct {
	name string

	mu       sync.RWMutex
	payloads map[ir.Hash][]byte
	delay    time.Duration
	err      error

	calls atomic.Int64
}

// NewMapSource creates an empty source.
func NewMapSource(name string) *MapSource {
	return &MapSource{name: name, payloads: make(map[ir.Hash][]byte)}
}

// Name implements resolver.Source.
func (s *MapSource) Name() string { return s.name }

// Add stores payload under its content hash and returns the hash.
func (s *MapSource) Add(payload []byte) ir.Hash {
	h := ir.ContentHash(payload)
	s.AddAs(h, payload)
	return h
}

// AddAs stores payload under an arbitrary hash, which lets tests serve
// payloads that do not match their key.
func (s *MapSource) AddAs(h ir.Hash, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[h] = payload
}

// SetDelay makes every fetch wait d (or until the context ends).
func (s *MapSource) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetError makes every fetch fail with err; nil restores normal behavior.
func (s *MapSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns the number of fetches served so far.
func (s *MapSource) Calls() int64 { return s.calls.Load() }

// Fetch implements resolver.Source.
func (s *MapSource) Fetch(ctx context.Context, h ir.Hash) ([]byte, error) {
	s.calls.Inc()

	s.mu.RLock()
	delay, failure := s.delay, s.err
	payload, ok := s.payloads[h]
	s.mu.RUnlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, resolver.ErrNotFound
	}
	return payload, nil
}
