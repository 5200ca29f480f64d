package resolver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dotrain/internal/ir"
)

func fastOptions(client *http.Client) SubgraphOptions {
	return SubgraphOptions{Client: client, Retries: 2, MinBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func subgraphHandler(t *testing.T, entries map[string][]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Contains(t, req.Query, "metaV1S")

		items := []map[string]string{}
		if p, ok := entries[req.Variables["hash"]]; ok {
			items = append(items, map[string]string{"meta": "0x" + hex.EncodeToString(p)})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"metaV1S": items}})
	}
}

func TestSubgraphSource_Fetch(t *testing.T) {
	payload := []byte("payload")
	hash := ir.ContentHash(payload)

	ts := httptest.NewServer(subgraphHandler(t, map[string][]byte{hash.String(): payload}))
	defer ts.Close()

	src := NewSubgraphSource(ts.URL, fastOptions(ts.Client()))
	assert.Equal(t, ts.URL, src.Name())

	got, err := src.Fetch(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = src.Fetch(context.Background(), ir.ContentHash([]byte("unknown")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubgraphSource_RetriesTransientFailures(t *testing.T) {
	payload := []byte("payload")
	hash := ir.ContentHash(payload)

	var calls atomic.Int32
	inner := subgraphHandler(t, map[string][]byte{hash.String(): payload})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		inner(w, r)
	}))
	defer ts.Close()

	src := NewSubgraphSource(ts.URL, fastOptions(ts.Client()))
	got, err := src.Fetch(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSubgraphSource_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	src := NewSubgraphSource(ts.URL, fastOptions(ts.Client()))
	_, err := src.Fetch(context.Background(), ir.ContentHash([]byte("x")))
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSubgraphSource_GraphQLErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"indexing error"}]}`))
	}))
	defer ts.Close()

	src := NewSubgraphSource(ts.URL, fastOptions(ts.Client()))
	_, err := src.Fetch(context.Background(), ir.ContentHash([]byte("x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexing error")
}

func TestResolve_ThroughSubgraph(t *testing.T) {
	payload := []byte("payload")
	hash := ir.ContentHash(payload)

	ts := httptest.NewServer(subgraphHandler(t, map[string][]byte{hash.String(): payload}))
	defer ts.Close()

	r := New(nil, NewSubgraphSource(ts.URL, fastOptions(ts.Client())))
	got, err := r.Resolve(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
