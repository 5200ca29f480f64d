package harness

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/dotrain/internal/document"
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/metastore"
	"github.com/roach88/dotrain/internal/resolver"
	"github.com/roach88/dotrain/internal/testutil"
)

// scenarioTimeout bounds one async scenario parse.
const scenarioTimeout = 10 * time.Second

// Harness holds the state of one scenario run.
type Harness struct {
	store  *metastore.Store
	remote *testutil.MapSource
	hashes map[string]ir.Hash
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh cache. Document URIs are derived from
// the scenario name so reports are reproducible.
func Run(scenario *Scenario) (*Result, error) {
	remote := testutil.NewMapSource("remote")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		store:  metastore.New(metastore.Options{Sources: []resolver.Source{remote}, Logger: logger}),
		remote: remote,
		hashes: make(map[string]ir.Hash),
		logger: logger,
	}

	result := NewResult()
	for i, p := range scenario.Payloads {
		if err := h.addPayload(p); err != nil {
			return nil, fmt.Errorf("payloads[%d]: %w", i, err)
		}
	}

	text := h.substitute(scenario.Document)
	uri := "scenario:///" + scenario.Name + ".rain"
	var doc *document.Document
	if scenario.Async {
		ctx, cancel := context.WithTimeout(context.Background(), scenarioTimeout)
		defer cancel()
		var err error
		doc, err = document.CreateAsync(ctx, text, uri, h.store, document.WithLogger(h.logger))
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
	} else {
		doc = document.Create(text, uri, h.store, document.WithLogger(h.logger))
	}

	snap := doc.Snapshot()
	for name, hash := range h.hashes {
		result.Hashes[name] = hash
	}
	result.Snapshot = snap
	result.Report = Render(snap, h.names())

	actx := &AssertionContext{Snapshot: snap, Substitute: h.substitute}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) addPayload(p PayloadSpec) error {
	payload, err := h.encode(p)
	if err != nil {
		return err
	}
	switch p.Source {
	case SourceRemote:
		h.hashes[p.Name] = h.remote.Add(payload)
	case SourceNone:
		h.hashes[p.Name] = ir.ContentHash(payload)
	default:
		h.hashes[p.Name] = h.store.Put(payload)
	}
	return nil
}

func (h *Harness) encode(p PayloadSpec) ([]byte, error) {
	switch {
	case len(p.Words) > 0:
		return meta.Encode(&meta.Words{Words: words(p.Words)})
	case p.Deployer != nil:
		bytecode, err := hex.DecodeString(strings.TrimPrefix(p.Deployer.Bytecode, "0x"))
		if err != nil {
			return nil, fmt.Errorf("deployer bytecode: %w", err)
		}
		return meta.Encode(&meta.Deployer{Bytecode: bytecode, Words: words(p.Deployer.Words)})
	case p.Dotrain != "":
		return meta.EncodeDotrain(h.substitute(p.Dotrain)), nil
	default:
		return []byte(h.substitute(p.Raw)), nil
	}
}

func words(specs []WordSpec) []meta.Word {
	out := make([]meta.Word, len(specs))
	for i, w := range specs {
		desc := w.Description
		if desc == "" {
			desc = w.Name
		}
		out[i] = meta.Word{Name: w.Name, Description: desc, Inputs: w.Inputs, OperandArgs: w.OperandArgs}
	}
	return out
}

// substitute replaces {{name}} placeholders with payload hashes. Unknown
// names are left as they are.
func (h *Harness) substitute(text string) string {
	for name, hash := range h.hashes {
		text = strings.ReplaceAll(text, "{{"+name+"}}", hash.String())
	}
	return text
}

func (h *Harness) names() map[ir.Hash]string {
	out := make(map[ir.Hash]string, len(h.hashes))
	for name, hash := range h.hashes {
		out[hash] = name
	}
	return out
}
