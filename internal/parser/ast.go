package parser

import (
	"math/big"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/namespace"
)

// Node is an expression syntax node.
type Node interface {
	Range() ir.Offsets
}

// Literal is a numeric literal. Value is nil when the literal is invalid.
type Literal struct {
	Text     string
	Value    *big.Int
	Position ir.Offsets
}

// Alias is a name on the left-hand side of a line. "_" discards a value.
type Alias struct {
	Name     string
	Position ir.Offsets
}

// Identifier is a reference on the right-hand side.
type Identifier struct {
	Name     string
	Position ir.Offsets
	// Alias is set when the name refers to an alias of an earlier line.
	Alias bool
	// Target is the referenced binding, or namespace.None.
	Target namespace.NodeID
	// Dependency is the referenced binding path relative to the scope.
	Dependency string
}

// Opcode is a word application.
type Opcode struct {
	Name         string
	NamePosition ir.Offsets
	Operands     []*Literal
	Inputs       []Node
	// Word is the resolved word; nil when resolution failed.
	Word     *meta.Word
	Position ir.Offsets
}

// Line is one "lhs : rhs" line.
type Line struct {
	LHS      []*Alias
	RHS      []Node
	Position ir.Offsets
}

// Source is a ','-separated run of lines.
type Source struct {
	Lines    []*Line
	Position ir.Offsets
}

// Expression is a parsed expression body.
type Expression struct {
	Sources  []*Source
	Position ir.Offsets
}

func (n *Literal) Range() ir.Offsets    { return n.Position }
func (n *Alias) Range() ir.Offsets      { return n.Position }
func (n *Identifier) Range() ir.Offsets { return n.Position }
func (n *Opcode) Range() ir.Offsets     { return n.Position }
func (n *Line) Range() ir.Offsets       { return n.Position }
func (n *Source) Range() ir.Offsets     { return n.Position }
func (n *Expression) Range() ir.Offsets { return n.Position }

// Walk visits n and its descendants in source order. Returning false from
// fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Expression:
		for _, s := range v.Sources {
			Walk(s, fn)
		}
	case *Source:
		for _, l := range v.Lines {
			Walk(l, fn)
		}
	case *Line:
		for _, a := range v.LHS {
			Walk(a, fn)
		}
		for _, r := range v.RHS {
			Walk(r, fn)
		}
	case *Opcode:
		for _, o := range v.Operands {
			Walk(o, fn)
		}
		for _, in := range v.Inputs {
			Walk(in, fn)
		}
	}
}
