package meta

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dotrain/internal/ir"
)

func sampleWords() *Words {
	return &Words{Words: []Word{
		{Name: "add", Description: "adds inputs", Inputs: IntPtr(8)},
		{Name: "mul"},
		{Name: "read-memory", OperandArgs: IntPtr(2)},
	}}
}

func TestEncodeDecodeDotrain(t *testing.T) {
	data := EncodeDotrain("#x 1")
	assert.Equal(t, MagicDotrain, binary.BigEndian.Uint64(data))
	assert.Equal(t, DotrainHash("#x 1"), ir.ContentHash(data))

	p, err := Decode(data)
	require.NoError(t, err)
	require.IsType(t, &Dotrain{}, p)
	assert.Equal(t, "#x 1", p.(*Dotrain).Text)
	assert.Equal(t, KindDotrain, KindOf(data))
}

func TestEncodeDecodeWords(t *testing.T) {
	data, err := Encode(sampleWords())
	require.NoError(t, err)
	assert.Equal(t, KindWords, KindOf(data))

	p, err := Decode(data)
	require.NoError(t, err)
	words, ok := p.(*Words)
	require.True(t, ok)
	assert.Equal(t, sampleWords(), words)

	w, ok := words.Lookup("add")
	require.True(t, ok)
	assert.Equal(t, 8, *w.Inputs)
	_, ok = words.Lookup("sub")
	assert.False(t, ok)
}

func TestEncodeDecodeDeployer(t *testing.T) {
	d := &Deployer{Bytecode: []byte{0x60, 0x80, 0x60, 0x40}, Words: sampleWords().Words}
	data := MustEncode(d)

	p, err := Decode(data)
	require.NoError(t, err)
	got, ok := p.(*Deployer)
	require.True(t, ok)
	assert.Equal(t, d.Bytecode, got.Bytecode)
	assert.Equal(t, ir.ContentHash(d.Bytecode), got.BytecodeHash())
	assert.NotEqual(t, ir.ContentHash(data), got.BytecodeHash(), "deployer hash differs from meta hash")
}

func TestDecodeUnknownMagicIsRaw(t *testing.T) {
	for _, data := range [][]byte{nil, {1, 2, 3}, []byte("0123456789abcdef")} {
		p, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, KindRaw, p.Kind())
	}
}

func TestDecodeCorrupt(t *testing.T) {
	withMagic := func(magic uint64, body string) []byte {
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, magic)
		return append(out, body...)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", withMagic(MagicWords, "{words")},
		{"unknown field", withMagic(MagicWords, `{"extra":1,"words":[{"word":"add"}]}`)},
		{"empty words", withMagic(MagicWords, `{"words":[]}`)},
		{"bad word", withMagic(MagicWords, `{"words":[{"word":"Add"}]}`)},
		{"duplicate word", withMagic(MagicWords, `{"words":[{"word":"add"},{"word":"add"}]}`)},
		{"non canonical", withMagic(MagicWords, `{ "words":[{"word":"add"}]}`)},
		{"negative bound", withMagic(MagicWords, `{"words":[{"inputs":-1,"word":"add"}]}`)},
		{"empty bytecode", withMagic(MagicDeployer, `{"bytecode":"0x","words":[{"word":"add"}]}`)},
		{"bad bytecode", withMagic(MagicDeployer, `{"bytecode":"zz","words":[{"word":"add"}]}`)},
		{"namespace version", withMagic(MagicNamespace, `{"root":{"children":{},"kind":"branch"},"version":"9"}`)},
		{"namespace leaf root", withMagic(MagicNamespace, `{"root":{"kind":"word","word":{"word":"a"}},"version":"1"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
		})
	}
}

func TestNamespaceRoundTrip(t *testing.T) {
	ns := &Namespace{Root: &Node{Kind: NodeBranch, Children: map[string]*Node{
		"main": {Kind: NodeBinding, Binding: &BindingRecord{
			Type:         BindingExpression,
			Content:      "_: add(x 1);",
			Dependencies: []string{"x"},
		}},
		"x":    {Kind: NodeBinding, Binding: &BindingRecord{Type: BindingConstant, Content: "1", Value: "1"}},
		"todo": {Kind: NodeBinding, Binding: &BindingRecord{Type: BindingElided, Content: "! later", Message: "later"}},
		"ops": {Kind: NodeBranch, Deployer: &Deployer{Bytecode: []byte{2}, Words: []Word{{Name: "mul"}}}, Children: map[string]*Node{
			"add": {Kind: NodeWord, Word: &Word{Name: "add"}},
		}},
		"dep": {Kind: NodeDeployer, Deployer: &Deployer{Bytecode: []byte{1}, Words: []Word{{Name: "sub"}}}},
	}}}

	data, err := Encode(ns)
	require.NoError(t, err)

	p, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ns, p)

	again, err := Encode(p)
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding is deterministic")
}

func TestKindString(t *testing.T) {
	for _, k := range []Kind{KindRaw, KindDotrain, KindWords, KindDeployer, KindNamespace} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("cbor")
	assert.Error(t, err)
}
