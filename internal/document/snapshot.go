package document

import (
	"slices"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/lexer"
	"github.com/roach88/dotrain/internal/namespace"
	"github.com/roach88/dotrain/internal/parser"
)

// State is the lifecycle state of a document.
type State int

const (
	// Unparsed is the state before the first parse commits.
	Unparsed State = iota
	// Parsing is reported while a parse is in flight.
	Parsing
	// Parsed means the last committed parse built a namespace. The
	// document may still carry problems.
	Parsed
	// Failed means the last committed parse hit a fatal condition.
	Failed
)

func (s State) String() string {
	switch s {
	case Unparsed:
		return "unparsed"
	case Parsing:
		return "parsing"
	case Parsed:
		return "parsed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Binding is a binding statement of the document.
type Binding struct {
	Name         string
	NamePosition ir.Offsets
	// Position is the statement range.
	Position      ir.Offsets
	Type          namespace.BindingType
	Content       string
	ContentOffset int
	Value         string
	Message       string
	Expression    *parser.Expression
	Dependencies  []string
	Problems      []ir.Problem
	// Node is the binding's namespace element, or namespace.None when the
	// name was taken.
	Node namespace.NodeID
}

// Snapshot is one immutable parse result. Nothing reachable from a
// published snapshot is modified.
type Snapshot struct {
	Text    string
	URI     string
	Hash    ir.Hash
	Version uint64
	State   State

	// Fatal is set when the parse could not build a namespace. All
	// collections are then empty.
	Fatal *ir.Problem

	FrontMatter      string
	FrontMatterRange ir.Offsets
	// FrontMatterData is the decoded YAML front matter, nil when absent.
	FrontMatterData map[string]any
	BodyOffset      int

	Namespace *namespace.Namespace
	Bindings  []*Binding
	Comments  []lexer.Comment
	Imports   []*Import
	// Problems are the top-level problems, ordered by position.
	Problems []ir.Problem
}

func emptySnapshot(uri string) *Snapshot {
	return &Snapshot{URI: uri, State: Unparsed, Namespace: namespace.Empty()}
}

// Error returns the fatal problem as an error, or nil.
func (s *Snapshot) Error() error {
	if s.Fatal == nil {
		return nil
	}
	return s.Fatal
}

// Binding returns the document binding named name.
func (s *Snapshot) Binding(name string) (*Binding, bool) {
	for _, b := range s.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// BindingProblems returns every binding's problems, ordered by position.
func (s *Snapshot) BindingProblems() []ir.Problem {
	var out []ir.Problem
	for _, b := range s.Bindings {
		out = append(out, b.Problems...)
	}
	ir.SortProblems(out)
	return out
}

// AllProblems returns the top-level problems followed by the binding
// problems.
func (s *Snapshot) AllProblems() []ir.Problem {
	return append(slices.Clone(s.Problems), s.BindingProblems()...)
}
