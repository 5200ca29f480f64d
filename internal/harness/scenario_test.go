package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	src := `
name: ok
description: "a valid scenario"
payloads:
  - name: dep
    deployer:
      bytecode: "0x60"
      words:
        - name: add
          inputs: 2
          operand_args: 0
document: "#x 1"
async: true
assertions:
  - type: no_problems
`
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "ok", s.Name)
	assert.True(t, s.Async)
	require.Len(t, s.Payloads, 1)
	require.NotNil(t, s.Payloads[0].Deployer)
	w := s.Payloads[0].Deployer.Words[0]
	require.NotNil(t, w.Inputs)
	require.NotNil(t, w.OperandArgs)
	assert.Equal(t, 2, *w.Inputs)
	assert.Equal(t, 0, *w.OperandArgs)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", "name: x\ndescription: d\ndocument: d\nassertion: []", "failed to parse YAML"},
		{"missing name", "description: d\ndocument: d", "name is required"},
		{"missing description", "name: x\ndocument: d", "description is required"},
		{"missing document", "name: x\ndescription: d", "document is required"},
		{"unnamed payload", "name: x\ndescription: d\ndocument: d\npayloads: [{raw: r}]", "payloads[0]: name is required"},
		{"duplicate payload", "name: x\ndescription: d\ndocument: d\npayloads: [{name: a, raw: r}, {name: a, raw: r}]", "duplicate payload name"},
		{"two bodies", "name: x\ndescription: d\ndocument: d\npayloads: [{name: a, raw: r, dotrain: t}]", "exactly one of"},
		{"no body", "name: x\ndescription: d\ndocument: d\npayloads: [{name: a}]", "exactly one of"},
		{"bad source", "name: x\ndescription: d\ndocument: d\npayloads: [{name: a, raw: r, source: disk}]", "unknown source"},
		{"untyped assertion", "name: x\ndescription: d\ndocument: d\nassertions: [{code: X}]", "type is required"},
		{"unknown assertion", "name: x\ndescription: d\ndocument: d\nassertions: [{type: magic}]", "unknown assertion type"},
		{"unknown code", "name: x\ndescription: d\ndocument: d\nassertions: [{type: problem, code: Nope}]", "unknown error code"},
		{"state without state", "name: x\ndescription: d\ndocument: d\nassertions: [{type: state}]", "state is required"},
		{"binding without name", "name: x\ndescription: d\ndocument: d\nassertions: [{type: binding}]", "name is required for binding"},
		{"namespace without path", "name: x\ndescription: d\ndocument: d\nassertions: [{type: namespace}]", "path is required"},
		{"compose without entrypoints", "name: x\ndescription: d\ndocument: d\nassertions: [{type: compose, order: [a]}]", "entrypoints are required"},
		{"compose without outcome", "name: x\ndescription: d\ndocument: d\nassertions: [{type: compose, entrypoints: [a]}]", "order or code is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\ndescription: d\ndocument: \"#x 1\"\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "#x 1", s.Document)
}
