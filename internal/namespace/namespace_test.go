package namespace

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
)

var testOrigin = ir.ContentHash([]byte("origin"))

func words(names ...string) []meta.Word {
	out := make([]meta.Word, len(names))
	for i, n := range names {
		out[i] = meta.Word{Name: n}
	}
	return out
}

func localBinding(name, content string) *Binding {
	return &Binding{Name: name, Type: Expression, Content: content}
}

func requireCode(t *testing.T, err error, code ir.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, code, nerr.Code, "message: %s", nerr.Message)
}

func TestEmpty(t *testing.T) {
	ns := Empty()

	assert.Equal(t, 1, ns.Len())
	assert.Equal(t, 0, ns.Depth())
	assert.Empty(t, ns.Children(Root))
	assert.Equal(t, Branch, ns.Get(Root).Kind)
}

func TestSplitPath(t *testing.T) {
	segs, err := SplitPath(".a.b-2.c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b-2", "c"}, segs)

	segs, err = SplitPath("")
	require.NoError(t, err)
	assert.Empty(t, segs)

	for _, bad := range []string{"A", "a..b", "1a", "a.", ".a.B"} {
		_, err := SplitPath(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuilder_SpliceWords(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Splice([]string{"ops", "math"}, FromWords(words("add", "sub")), testOrigin))
	ns := b.Build()

	id, ok := ns.LookupPath(".ops.math.add")
	require.True(t, ok)
	n := ns.Get(id)
	assert.Equal(t, WordElement, n.Kind)
	assert.Equal(t, "add", n.Word.Name)
	assert.Equal(t, testOrigin, n.Origin)
	assert.Equal(t, []string{"ops", "math", "add"}, ns.Path(id))
	assert.Equal(t, 3, ns.Depth())
}

func TestBuilder_SpliceMergesBranches(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Splice([]string{"ops"}, FromWords(words("add")), testOrigin))
	require.NoError(t, b.Splice([]string{"ops"}, FromWords(words("sub")), testOrigin))
	ns := b.Build()

	ops, ok := ns.LookupPath("ops")
	require.True(t, ok)
	var names []string
	for _, c := range ns.Children(ops) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"add", "sub"}, names)
}

func TestBuilder_SpliceCollision(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Splice(nil, FromWords(words("add", "mul")), testOrigin))
	before := b.Build()

	err := b.Splice(nil, FromWords(words("sub", "add")), testOrigin)

	requireCode(t, err, ir.CollidingNamespaceNodes)
	_, ok := b.Build().LookupPath("sub")
	assert.False(t, ok, "failed splice must not leave partial members")
	assert.Equal(t, before.Len(), b.Build().Len())
}

func TestBuilder_SpliceOccupied(t *testing.T) {
	b := NewBuilder(0)
	_, err := b.AddBinding(localBinding("x", "_: 1;"))
	require.NoError(t, err)

	requireCode(t, b.Splice([]string{"x"}, FromWords(words("add")), testOrigin), ir.NamespaceOccupied)
	requireCode(t, b.Splice([]string{"x", "y"}, FromWords(words("add")), testOrigin), ir.NamespaceOccupied)
}

func TestBuilder_DepthBoundary(t *testing.T) {
	const max = 4
	sub := FromWords(words("w"))

	b := NewBuilder(max)
	require.NoError(t, b.Splice([]string{"a", "b", "c"}, sub, testOrigin), "depth == max succeeds")

	err := b.Splice([]string{"a", "b", "c", "d"}, sub, testOrigin)
	requireCode(t, err, ir.DeepNamespace)

	_, err = b.AddDeployer([]string{"p", "q", "r", "s", "t"}, &meta.Deployer{Bytecode: []byte{1}}, testOrigin)
	requireCode(t, err, ir.DeepNamespace)
}

func TestBuilder_DefaultMaxDepth(t *testing.T) {
	path := strings.Split(strings.Repeat("n.", DefaultMaxDepth-1), ".")
	path = path[:DefaultMaxDepth-1]

	b := NewBuilder(0)
	require.NoError(t, b.Splice(path, FromWords(words("w")), testOrigin))
	assert.Equal(t, DefaultMaxDepth, b.Build().Depth())

	requireCode(t, b.Splice(append(path, "m"), FromWords(words("w")), testOrigin), ir.DeepNamespace)
}

func TestBuilder_AddBindingDuplicate(t *testing.T) {
	b := NewBuilder(0)
	_, err := b.AddBinding(localBinding("main", "_: 1;"))
	require.NoError(t, err)

	_, err = b.AddBinding(localBinding("main", "_: 2;"))
	requireCode(t, err, ir.DuplicateIdentifier)
}

func TestBuilder_RootDeployer(t *testing.T) {
	d := &meta.Deployer{Bytecode: []byte{1}, Words: words("add")}
	b := NewBuilder(0)

	id, err := b.AddDeployer(nil, d, testOrigin)
	require.NoError(t, err)
	assert.Equal(t, Root, id)

	_, err = b.AddDeployer(nil, d, testOrigin)
	requireCode(t, err, ir.MultipleWords)

	got, ok := b.Build().Deployer(Root)
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.True(t, b.Build().HasWords(Root))
}

func TestBuilder_DeployerElement(t *testing.T) {
	d := &meta.Deployer{Bytecode: []byte{1}, Words: words("add")}
	b := NewBuilder(0)

	id, err := b.AddDeployer([]string{"dep"}, d, testOrigin)
	require.NoError(t, err)
	ns := b.Build()
	assert.Equal(t, DeployerElement, ns.Get(id).Kind)

	_, err = b.AddDeployer([]string{"dep"}, d, testOrigin)
	requireCode(t, err, ir.NamespaceOccupied)
}

func TestBuilder_SpliceCarriesScopes(t *testing.T) {
	inner := NewBuilder(0)
	_, err := inner.AddBinding(localBinding("x", "_: 1;"))
	require.NoError(t, err)

	b := NewBuilder(0)
	require.NoError(t, b.Splice([]string{"lib", "v1"}, inner.Build(), testOrigin))
	ns := b.Build()

	x, ok := ns.LookupPath("lib.v1.x")
	require.True(t, ok)
	mount, ok := ns.LookupPath("lib.v1")
	require.True(t, ok)
	assert.Equal(t, mount, ns.Get(x).Scope)
}

func TestBuild_IsolatedFromBuilder(t *testing.T) {
	b := NewBuilder(0)
	_, err := b.AddBinding(localBinding("a", "_: 1;"))
	require.NoError(t, err)
	snapshot := b.Build()

	_, err = b.AddBinding(localBinding("b", "_: 2;"))
	require.NoError(t, err)

	_, ok := snapshot.LookupPath("b")
	assert.False(t, ok)
	_, ok = b.Build().LookupPath("b")
	assert.True(t, ok)
}

func TestWalk_SortedDepthFirst(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Splice([]string{"z"}, FromWords(words("b", "a")), testOrigin))
	_, err := b.AddBinding(localBinding("m", "_: 1;"))
	require.NoError(t, err)

	var got []string
	b.Build().Walk(func(path []string, n Node) bool {
		got = append(got, JoinPath(path)+":"+n.Kind.String())
		return true
	})

	assert.Equal(t, []string{"m:binding", "z:branch", "z.a:word", "z.b:word"}, got)
}

func TestApply(t *testing.T) {
	inner := NewBuilder(0)
	for _, name := range []string{"a", "b", "c"} {
		_, err := inner.AddBinding(localBinding(name, "_: 1;"))
		require.NoError(t, err)
	}
	ns := inner.Build()

	out, err := ns.Apply([]Config{
		{Kind: Rename, Old: "a", New: "renamed"},
		{Kind: Elide, Old: "b"},
		{Kind: Rebind, Old: "c", Value: "42"},
	})
	require.NoError(t, err)

	_, ok := out.LookupPath("a")
	assert.False(t, ok)
	id, ok := out.LookupPath("renamed")
	require.True(t, ok)
	assert.Equal(t, "renamed", out.Get(id).Binding.Name)

	id, _ = out.LookupPath("b")
	assert.Equal(t, Elided, out.Get(id).Binding.Type)
	assert.Equal(t, ElidedByImport, out.Get(id).Binding.Message)

	id, _ = out.LookupPath("c")
	assert.Equal(t, Constant, out.Get(id).Binding.Type)
	assert.Equal(t, "42", out.Get(id).Binding.Value)

	_, ok = ns.LookupPath("a")
	assert.True(t, ok, "Apply must not modify the receiver")
}

func TestApply_Errors(t *testing.T) {
	inner := NewBuilder(0)
	_, err := inner.AddBinding(localBinding("a", "_: 1;"))
	require.NoError(t, err)
	_, err = inner.AddBinding(localBinding("b", "_: 1;"))
	require.NoError(t, err)
	require.NoError(t, inner.Splice(nil, FromWords(words("add")), testOrigin))
	ns := inner.Build()

	tests := []struct {
		name    string
		configs []Config
		code    ir.ErrorCode
		index   int
	}{
		{"unknown member", []Config{{Kind: Elide, Old: "zz"}}, ir.UndefinedNamespaceMember, 0},
		{"duplicate alias", []Config{{Kind: Rename, Old: "a", New: "x"}, {Kind: Rename, Old: "b", New: "x"}}, ir.DuplicateAlias, 1},
		{"bad name", []Config{{Kind: Rename, Old: "a", New: "Bad"}}, ir.InvalidWordPattern, 0},
		{"rebind word", []Config{{Kind: Rebind, Old: "add", Value: "1"}}, ir.UnexpectedRebinding, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ns.Apply(tt.configs)
			requireCode(t, err, tt.code)
			var nerr *Error
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, tt.index, nerr.Config)
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	inner := NewBuilder(0)
	_, err := inner.AddBinding(&Binding{Name: "main", Type: Expression, Content: "_: add(x 1);", Dependencies: []string{"x"}})
	require.NoError(t, err)
	_, err = inner.AddBinding(&Binding{Name: "x", Type: Constant, Content: "1", Value: "1"})
	require.NoError(t, err)
	require.NoError(t, inner.Splice([]string{"ops"}, FromWords(words("add")), testOrigin))
	_, err = inner.AddDeployer(nil, &meta.Deployer{Bytecode: []byte{7}, Words: words("add")}, testOrigin)
	require.NoError(t, err)
	ns := inner.Build()

	data, err := Encode(ns)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	if diff := cmp.Diff(ns.Export(Root), decoded.Export(Root)); diff != "" {
		t.Errorf("namespace mismatch (-want +got):\n%s", diff)
	}

	id, ok := decoded.LookupPath("main")
	require.True(t, ok)
	assert.True(t, decoded.Get(id).Binding.Imported())
	assert.Equal(t, Root, decoded.Get(id).Scope)
}

func TestDecode_WrongKind(t *testing.T) {
	_, err := Decode(meta.EncodeDotrain("#a 1"))
	assert.Error(t, err)
}
