package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const composeBody = "#fee 1\n#rate _: add(fee 2);\n#main _: sub(rate fee);\n#unused 9"

func TestCompose_Text(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.doc(t, "prog.rain", composeBody)

	out, _, err := ws.run(t, "compose", path, "main")
	require.NoError(t, err)
	assert.Equal(t, "#fee 1\n\n#rate\n_: add(fee 2);\n\n#main\n_: sub(rate fee);\n", out)
}

func TestCompose_JSON(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.doc(t, "prog.rain", composeBody)

	out, _, err := ws.run(t, "--format", "json", "compose", path, "main")
	require.NoError(t, err)

	var resp struct {
		Data ComposeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"main"}, resp.Data.Entrypoints)

	var names []string
	for _, b := range resp.Data.Bindings {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"fee", "rate", "main"}, names)
	assert.Equal(t, []string{"fee", "rate"}, resp.Data.Bindings[2].Dependencies)
}

func TestCompose_OutputFile(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.doc(t, "prog.rain", composeBody)
	target := filepath.Join(ws.dir, "out", "prog.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))

	out, _, err := ws.run(t, "compose", "-o", target, path, "rate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Composed 2 binding(s)")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "#fee 1\n\n#rate\n_: add(fee 2);\n", string(data))
}

func TestCompose_UndefinedEntrypoint(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.doc(t, "prog.rain", composeBody)

	out, _, err := ws.run(t, "--format", "json", "compose", path, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCompose, resp.Error.Code)
	assert.Equal(t, map[string]any{"code": "UndefinedBinding", "position": []any{float64(0), float64(0)}}, resp.Error.Details)
}

func TestCompose_RequiresEntrypoint(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.doc(t, "prog.rain", composeBody)

	_, _, err := ws.run(t, "compose", path)
	require.Error(t, err)
}
