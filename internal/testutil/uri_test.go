package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialURIs_Increments(t *testing.T) {
	gen := NewSequentialURIs("")

	assert.Equal(t, "untitled:test-1", gen.Generate())
	assert.Equal(t, "untitled:test-2", gen.Generate())
	assert.Equal(t, int64(2), gen.Current())
}

func TestSequentialURIs_Reset(t *testing.T) {
	gen := NewSequentialURIs("file:///doc-")
	gen.Generate()
	gen.Generate()

	gen.Reset()

	assert.Equal(t, int64(0), gen.Current())
	assert.Equal(t, "file:///doc-1", gen.Generate())
}

func TestSequentialURIs_ConcurrentUnique(t *testing.T) {
	gen := NewSequentialURIs("")

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				uri := gen.Generate()
				mu.Lock()
				seen[uri] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
	assert.Equal(t, int64(1000), gen.Current())
}

func TestFixedURI(t *testing.T) {
	assert.Equal(t, "untitled:a", FixedURI("untitled:a").Generate())
	assert.Equal(t, "untitled:test-default", FixedURI("").Generate())
}
