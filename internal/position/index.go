package position

import (
	"slices"
	"sort"

	"github.com/roach88/dotrain/internal/document"
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/namespace"
	"github.com/roach88/dotrain/internal/parser"
)

// Kind classifies an indexed range.
type Kind int

const (
	KindComment Kind = iota
	KindFrontMatter
	KindImport
	KindImportPath
	KindImportHash
	KindImportConfig
	KindBinding
	KindBindingName
	KindExpression
	KindSource
	KindLine
	KindAlias
	KindOpcode
	KindOpcodeName
	KindIdentifier
	KindLiteral
)

var kindNames = [...]string{
	KindComment:      "comment",
	KindFrontMatter:  "front-matter",
	KindImport:       "import",
	KindImportPath:   "import-path",
	KindImportHash:   "import-hash",
	KindImportConfig: "import-config",
	KindBinding:      "binding",
	KindBindingName:  "binding-name",
	KindExpression:   "expression",
	KindSource:       "source",
	KindLine:         "line",
	KindAlias:        "alias",
	KindOpcode:       "opcode",
	KindOpcodeName:   "opcode-name",
	KindIdentifier:   "identifier",
	KindLiteral:      "literal",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one indexed range.
type Node struct {
	Kind  Kind
	Range ir.Offsets
	// Depth is the nesting level; statements and comments are 0.
	Depth int

	// Binding is the enclosing binding statement, if any.
	Binding *document.Binding
	// Import is the enclosing import statement, if any.
	Import *document.Import
	// Config is the import config for ImportConfig nodes.
	Config *document.ImportConfig
	// Syntax is the expression node for expression kinds.
	Syntax parser.Node
	// Word is the resolved word of an Opcode or OpcodeName.
	Word *meta.Word
	// Target is the binding an Identifier resolves to, or namespace.None.
	Target namespace.NodeID
}

// Index is a position index over one snapshot.
type Index struct {
	snap  *document.Snapshot
	nodes []Node
	lines []int
}

// Build indexes s. The index is immutable and tied to s.Version.
func Build(s *document.Snapshot) *Index {
	ix := &Index{snap: s, lines: lineStarts(s.Text)}

	for _, c := range s.Comments {
		ix.add(Node{Kind: KindComment, Range: c.Position})
	}
	if s.FrontMatter != "" {
		ix.add(Node{Kind: KindFrontMatter, Range: s.FrontMatterRange})
	}
	for _, imp := range s.Imports {
		ix.addImport(imp)
	}
	for _, b := range s.Bindings {
		ix.addBinding(b)
	}

	slices.SortStableFunc(ix.nodes, func(a, b Node) int {
		return a.Range.Start() - b.Range.Start()
	})
	return ix
}

func (ix *Index) add(n Node) {
	if n.Kind != KindIdentifier {
		n.Target = namespace.None
	}
	ix.nodes = append(ix.nodes, n)
}

func (ix *Index) addImport(imp *document.Import) {
	ix.add(Node{Kind: KindImport, Range: imp.Position, Import: imp})
	if len(imp.Path) > 0 {
		ix.add(Node{Kind: KindImportPath, Range: imp.PathPosition, Depth: 1, Import: imp})
	}
	if !imp.Hash.IsZero() {
		ix.add(Node{Kind: KindImportHash, Range: imp.HashPosition, Depth: 1, Import: imp})
	}
	for i := range imp.Configs {
		ix.add(Node{Kind: KindImportConfig, Range: imp.Configs[i].Position, Depth: 1, Import: imp, Config: &imp.Configs[i]})
	}
}

func (ix *Index) addBinding(b *document.Binding) {
	ix.add(Node{Kind: KindBinding, Range: b.Position, Binding: b})
	ix.add(Node{Kind: KindBindingName, Range: b.NamePosition, Depth: 1, Binding: b})
	if b.Expression == nil {
		return
	}

	depth := 1
	var visit func(parser.Node)
	visit = func(sn parser.Node) {
		n := Node{Range: sn.Range(), Depth: depth, Binding: b, Syntax: sn}
		switch v := sn.(type) {
		case *parser.Expression:
			n.Kind = KindExpression
		case *parser.Source:
			n.Kind = KindSource
		case *parser.Line:
			n.Kind = KindLine
		case *parser.Alias:
			n.Kind = KindAlias
		case *parser.Literal:
			n.Kind = KindLiteral
		case *parser.Identifier:
			n.Kind = KindIdentifier
			n.Target = v.Target
		case *parser.Opcode:
			n.Kind = KindOpcode
			n.Word = v.Word
		}
		ix.add(n)

		depth++
		defer func() { depth-- }()
		if op, ok := sn.(*parser.Opcode); ok {
			ix.add(Node{Kind: KindOpcodeName, Range: op.NamePosition, Depth: depth, Binding: b, Syntax: sn, Word: op.Word})
		}
		parser.Walk(sn, func(child parser.Node) bool {
			if child != sn {
				visit(child)
				return false
			}
			return true
		})
	}
	visit(b.Expression)
}

// Version returns the version of the indexed snapshot.
func (ix *Index) Version() uint64 { return ix.snap.Version }

// Snapshot returns the indexed snapshot.
func (ix *Index) Snapshot() *document.Snapshot { return ix.snap }

// Nodes returns every indexed range ordered by start offset.
func (ix *Index) Nodes() []Node { return ix.nodes }

// NodeAt returns the smallest node whose range contains offset. Among
// ranges of equal size the deepest wins.
func (ix *Index) NodeAt(offset int) (Node, bool) {
	var (
		best  Node
		found bool
	)
	// Nodes are sorted by start, so nothing past offset can contain it.
	end := sort.Search(len(ix.nodes), func(i int) bool {
		return ix.nodes[i].Range.Start() > offset
	})
	for _, n := range ix.nodes[:end] {
		if !n.Range.Contains(offset) {
			continue
		}
		if !found || n.Range.Len() < best.Range.Len() ||
			(n.Range.Len() == best.Range.Len() && n.Depth > best.Depth) {
			best, found = n, true
		}
	}
	return best, found
}

// BindingAt returns the binding statement containing offset.
func (ix *Index) BindingAt(offset int) (*document.Binding, bool) {
	for _, b := range ix.snap.Bindings {
		if b.Position.Contains(offset) {
			return b, true
		}
	}
	return nil, false
}

// ImportAt returns the import statement containing offset.
func (ix *Index) ImportAt(offset int) (*document.Import, bool) {
	for _, imp := range ix.snap.Imports {
		if imp.Position.Contains(offset) {
			return imp, true
		}
	}
	return nil, false
}

// Target returns the namespace element an Identifier node resolves to.
func (ix *Index) Target(n Node) (namespace.Node, bool) {
	if n.Kind != KindIdentifier || n.Target == namespace.None || ix.snap.Namespace == nil {
		return namespace.Node{}, false
	}
	return ix.snap.Namespace.Get(n.Target), true
}
