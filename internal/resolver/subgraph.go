package resolver

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/roach88/dotrain/internal/ir"
)

// DefaultEndpoints are the public meta subgraphs. They are only queried
// when a cache is built with IncludeDefaultEndpoints set.
var DefaultEndpoints = []string{
	"https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-arbitrum-one/0.9/gn",
	"https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-base/0.9/gn",
	"https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-flare/0.8/gn",
	"https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-polygon/0.8/gn",
}

const metaQuery = `query ($hash: Bytes!) { metaV1S(first: 1, where: { metaHash: $hash }) { meta } }`

// maxResponseBytes bounds how much of a subgraph response is read.
const maxResponseBytes = 8 << 20

// SubgraphOptions configures a SubgraphSource.
type SubgraphOptions struct {
	// Client is the HTTP client; http.DefaultClient when nil.
	Client *http.Client
	// Retries is the number of retries after a transient failure.
	Retries int
	// MinBackoff and MaxBackoff bound the delay between retries.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultSubgraphOptions returns the options used when none are given.
func DefaultSubgraphOptions() SubgraphOptions {
	return SubgraphOptions{
		Retries:    2,
		MinBackoff: 100 * time.Millisecond,
		MaxBackoff: 2 * time.Second,
	}
}

// SubgraphSource queries a GraphQL meta subgraph for payloads.
type SubgraphSource struct {
	url       string
	client    *http.Client
	retryable failsafe.Executor[any]
}

// transientError marks failures worth retrying: network errors, 5xx and 429.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// NewSubgraphSource creates a source for the subgraph at url.
func NewSubgraphSource(url string, opts SubgraphOptions) *SubgraphSource {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = DefaultSubgraphOptions().MinBackoff
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = opts.MinBackoff
	}

	return &SubgraphSource{
		url:    url,
		client: client,
		retryable: failsafe.With(retrypolicy.NewBuilder[any]().
			HandleIf(func(_ any, err error) bool {
				var te *transientError
				return errors.As(err, &te)
			}).
			WithBackoff(opts.MinBackoff, opts.MaxBackoff).
			WithMaxRetries(opts.Retries).
			Build()),
	}
}

// Name implements Source.
func (s *SubgraphSource) Name() string {
	return s.url
}

type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		MetaV1S []struct {
			Meta string `json:"meta"`
		} `json:"metaV1S"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Fetch implements Source.
func (s *SubgraphSource) Fetch(ctx context.Context, hash ir.Hash) ([]byte, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:     metaQuery,
		Variables: map[string]string{"hash": hash.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: encode query: %w", s.url, err)
	}

	var payload []byte
	err = s.retryable.WithContext(ctx).Run(func() error {
		var runErr error
		payload, runErr = s.query(ctx, body)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *SubgraphSource) query(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: build request: %w", s.url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{fmt.Errorf("subgraph %s: %w", s.url, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &transientError{fmt.Errorf("subgraph %s: status %d", s.url, resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph %s: status %d", s.url, resp.StatusCode)
	}

	var decoded graphQLResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("subgraph %s: decode response: %w", s.url, err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("subgraph %s: %s", s.url, decoded.Errors[0].Message)
	}
	if len(decoded.Data.MetaV1S) == 0 {
		return nil, ErrNotFound
	}

	raw := decoded.Data.MetaV1S[0].Meta
	if !strings.HasPrefix(raw, "0x") {
		return nil, fmt.Errorf("subgraph %s: meta is not 0x-prefixed hex", s.url)
	}
	payload, err := hex.DecodeString(raw[2:])
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: decode meta: %w", s.url, err)
	}
	return payload, nil
}
