package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/store"
	"github.com/roach88/dotrain/internal/testutil"
)

// workspace is a temp directory with a config pointing at a registry that
// already holds a words payload for add and sub.
type workspace struct {
	dir      string
	config   string
	registry string
	words    ir.Hash
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:      dir,
		config:   filepath.Join(dir, "rain.cue"),
		registry: filepath.Join(dir, "meta.db"),
	}

	s, err := store.Open(ws.registry)
	require.NoError(t, err)
	ws.words, err = s.Put(context.Background(), testutil.WordsPayload("add", "sub"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	ws.write(t, "rain.cue", "registry: \""+ws.registry+"\"\n")
	return ws
}

// write creates a file in the workspace and returns its path.
func (ws *workspace) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(ws.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// doc writes a .rain file that imports the words payload at the root.
func (ws *workspace) doc(t *testing.T, name, body string) string {
	t.Helper()
	return ws.write(t, name, "@ "+ws.words.String()+"\n"+body)
}

// run executes the root command with the workspace config.
func (ws *workspace) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--config", ws.config}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}
