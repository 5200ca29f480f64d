package meta

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/dotrain/internal/ir"
)

// Word describes one opcode available to expressions.
// Inputs and OperandArgs are optional upper bounds; nil means unchecked.
type Word struct {
	Name        string
	Description string
	Inputs      *int
	OperandArgs *int
}

// Words is an authoring meta: a named word table.
type Words struct {
	Words []Word
}

// Kind implements Payload.
func (*Words) Kind() Kind { return KindWords }

// Deployer describes a deployable artifact: bytecode plus the words it
// understands. It is addressed by the hash of its bytecode, which differs
// from the hash of the meta payload that describes it.
type Deployer struct {
	Bytecode []byte
	Words    []Word
}

// Kind implements Payload.
func (*Deployer) Kind() Kind { return KindDeployer }

// BytecodeHash returns the hash the deployer is indexed by.
func (d *Deployer) BytecodeHash() ir.Hash {
	return ir.ContentHash(d.Bytecode)
}

// Lookup finds a word by name.
func (d *Deployer) Lookup(name string) (Word, bool) {
	return lookupWord(d.Words, name)
}

// Lookup finds a word by name.
func (w *Words) Lookup(name string) (Word, bool) {
	return lookupWord(w.Words, name)
}

func lookupWord(words []Word, name string) (Word, bool) {
	for _, w := range words {
		if w.Name == name {
			return w, true
		}
	}
	return Word{}, false
}

// IntPtr is a helper for optional word bounds.
func IntPtr(n int) *int { return &n }

type wireWord struct {
	Word        string `json:"word"`
	Description string `json:"description"`
	Inputs      *int   `json:"inputs"`
	OperandArgs *int   `json:"operand_args"`
}

type wireWords struct {
	Words []wireWord `json:"words"`
}

type wireDeployer struct {
	Bytecode string     `json:"bytecode"`
	Words    []wireWord `json:"words"`
}

func (w Word) canonical() ir.Object {
	obj := ir.NewObject(ir.O("word", ir.Str(w.Name)))
	if w.Description != "" {
		obj["description"] = ir.Str(w.Description)
	}
	if w.Inputs != nil {
		obj["inputs"] = ir.Int(*w.Inputs)
	}
	if w.OperandArgs != nil {
		obj["operand_args"] = ir.Int(*w.OperandArgs)
	}
	return obj
}

func canonicalWords(words []Word) ir.List {
	list := make(ir.List, len(words))
	for i, w := range words {
		list[i] = w.canonical()
	}
	return list
}

func (w *Words) canonical() ir.Object {
	return ir.NewObject(ir.O("words", canonicalWords(w.Words)))
}

func (d *Deployer) canonical() ir.Object {
	return ir.NewObject(
		ir.O("bytecode", ir.Str("0x"+hex.EncodeToString(d.Bytecode))),
		ir.O("words", canonicalWords(d.Words)),
	)
}

func decodeWords(body []byte) (*Words, error) {
	var wire wireWords
	if err := strictUnmarshal(body, &wire); err != nil {
		return nil, err
	}
	words, err := convertWords(wire.Words)
	if err != nil {
		return nil, err
	}
	out := &Words{Words: words}
	if err := checkCanonical(body, out.canonical()); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeDeployer(body []byte) (*Deployer, error) {
	var wire wireDeployer
	if err := strictUnmarshal(body, &wire); err != nil {
		return nil, err
	}
	bytecode, err := decodeHexBytes(wire.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("%w: bytecode: %v", ErrCorrupt, err)
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%w: deployer has empty bytecode", ErrCorrupt)
	}
	words, err := convertWords(wire.Words)
	if err != nil {
		return nil, err
	}
	out := &Deployer{Bytecode: bytecode, Words: words}
	if err := checkCanonical(body, out.canonical()); err != nil {
		return nil, err
	}
	return out, nil
}

func convertWords(wire []wireWord) ([]Word, error) {
	if len(wire) == 0 {
		return nil, fmt.Errorf("%w: empty word list", ErrCorrupt)
	}
	seen := make(map[string]bool, len(wire))
	words := make([]Word, len(wire))
	for i, w := range wire {
		if err := ValidateWord(w.Word); err != nil {
			return nil, fmt.Errorf("%w: words[%d]: %v", ErrCorrupt, i, err)
		}
		if seen[w.Word] {
			return nil, fmt.Errorf("%w: duplicate word %q", ErrCorrupt, w.Word)
		}
		seen[w.Word] = true
		if w.Inputs != nil && *w.Inputs < 0 || w.OperandArgs != nil && *w.OperandArgs < 0 {
			return nil, fmt.Errorf("%w: word %q has a negative bound", ErrCorrupt, w.Word)
		}
		words[i] = Word{Name: w.Word, Description: w.Description, Inputs: w.Inputs, OperandArgs: w.OperandArgs}
	}
	return words, nil
}

// ValidateWord checks a name against NamePattern.
func ValidateWord(name string) error {
	if !NamePattern.MatchString(name) {
		return fmt.Errorf("invalid word pattern %q", name)
	}
	return nil
}

func strictUnmarshal(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after body", ErrCorrupt)
	}
	return nil
}

func checkCanonical(body []byte, obj ir.Object) error {
	want, err := ir.MarshalCanonical(obj)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !bytes.Equal(body, want) {
		return fmt.Errorf("%w: body is not in canonical form", ErrCorrupt)
	}
	return nil
}

func decodeHexBytes(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("missing 0x prefix")
	}
	return hex.DecodeString(s[2:])
}
