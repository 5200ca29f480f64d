package namespace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
)

// NodeID addresses a node in a Namespace arena.
type NodeID int32

const (
	// Root is the ID of the root branch.
	Root NodeID = 0
	// None marks a missing node.
	None NodeID = -1
)

// Kind classifies a node.
type Kind uint8

const (
	Branch Kind = iota
	BindingElement
	WordElement
	DeployerElement
)

var kindNames = [...]string{
	Branch:          "branch",
	BindingElement:  "binding",
	WordElement:     "word",
	DeployerElement: "deployer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// BindingType is the classification of a binding body.
type BindingType uint8

const (
	Expression BindingType = iota
	Constant
	Elided
)

func (t BindingType) String() string {
	switch t {
	case Expression:
		return meta.BindingExpression
	case Constant:
		return meta.BindingConstant
	case Elided:
		return meta.BindingElided
	default:
		return fmt.Sprintf("BindingType(%d)", int(t))
	}
}

// Binding is a named binding element.
type Binding struct {
	Name    string
	Type    BindingType
	Content string
	// ContentOffset is the document offset of Content, or -1 when the
	// binding was imported and has no position in the current document.
	ContentOffset int
	// Position is the statement range in the defining document.
	Position     ir.Offsets
	Value        string
	Message      string
	Dependencies []string
}

// Imported reports whether the binding came from an import.
func (b *Binding) Imported() bool { return b.ContentOffset < 0 }

type node struct {
	kind     Kind
	name     string
	parent   NodeID
	children map[string]NodeID
	binding  *Binding
	word     *meta.Word
	deployer *meta.Deployer
	scope    NodeID
	origin   ir.Hash
}

// Node is a read-only view of one node.
type Node struct {
	ID     NodeID
	Kind   Kind
	Name   string
	Parent NodeID
	// Binding, Word and Deployer are set according to Kind. A branch may
	// carry a Deployer that its words default to.
	Binding  *Binding
	Word     *meta.Word
	Deployer *meta.Deployer
	// Scope is the branch a binding's references resolve against.
	Scope NodeID
	// Origin is the hash of the import that introduced the node; zero for
	// nodes defined by the document itself.
	Origin ir.Hash
}

// IsElement reports whether the node is not a branch.
func (n Node) IsElement() bool { return n.Kind != Branch }

// Child is a named child reference.
type Child struct {
	Name string
	ID   NodeID
}

// Namespace is an immutable namespace tree.
type Namespace struct {
	nodes []node
}

// Empty returns a namespace holding only an empty root branch.
func Empty() *Namespace {
	return &Namespace{nodes: []node{newBranch("", None)}}
}

func newBranch(name string, parent NodeID) node {
	return node{kind: Branch, name: name, parent: parent, children: map[string]NodeID{}, scope: None}
}

// Len returns the number of nodes, root included.
func (ns *Namespace) Len() int { return len(ns.nodes) }

// Get returns the node with the given ID. It panics on an invalid ID.
func (ns *Namespace) Get(id NodeID) Node {
	n := &ns.nodes[id]
	return Node{
		ID:       id,
		Kind:     n.kind,
		Name:     n.name,
		Parent:   n.parent,
		Binding:  n.binding,
		Word:     n.word,
		Deployer: n.deployer,
		Scope:    n.scope,
		Origin:   n.origin,
	}
}

// Children returns a branch's children ordered by name.
func (ns *Namespace) Children(id NodeID) []Child {
	n := &ns.nodes[id]
	out := make([]Child, 0, len(n.children))
	for name, child := range n.children {
		out = append(out, Child{Name: name, ID: child})
	}
	slices.SortFunc(out, func(a, b Child) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Child returns the named child of a branch.
func (ns *Namespace) Child(id NodeID, name string) (NodeID, bool) {
	n := &ns.nodes[id]
	if n.kind != Branch {
		return None, false
	}
	child, ok := n.children[name]
	return child, ok
}

// Lookup walks path from the branch from. An empty path returns from.
func (ns *Namespace) Lookup(from NodeID, path []string) (NodeID, bool) {
	cur := from
	for _, seg := range path {
		next, ok := ns.Child(cur, seg)
		if !ok {
			return None, false
		}
		cur = next
	}
	return cur, true
}

// LookupPath resolves a dotted path from the root. A leading dot is
// optional.
func (ns *Namespace) LookupPath(path string) (NodeID, bool) {
	segs, err := SplitPath(path)
	if err != nil {
		return None, false
	}
	return ns.Lookup(Root, segs)
}

// Path returns the segments leading from the root to id.
func (ns *Namespace) Path(id NodeID) []string {
	var segs []string
	for cur := id; cur != Root && cur != None; cur = ns.nodes[cur].parent {
		segs = append(segs, ns.nodes[cur].name)
	}
	slices.Reverse(segs)
	return segs
}

// Depth returns the number of segments on the longest path, 0 for an
// empty namespace.
func (ns *Namespace) Depth() int {
	return ns.depthBelow(Root)
}

func (ns *Namespace) depthBelow(id NodeID) int {
	deepest := 0
	for _, child := range ns.nodes[id].children {
		d := 1
		if ns.nodes[child].kind == Branch {
			d += ns.depthBelow(child)
		}
		deepest = max(deepest, d)
	}
	return deepest
}

// Walk visits every node below the root in depth-first, name-sorted
// order. Returning false from fn skips the node's subtree.
func (ns *Namespace) Walk(fn func(path []string, n Node) bool) {
	var visit func(id NodeID, path []string)
	visit = func(id NodeID, path []string) {
		for _, c := range ns.Children(id) {
			p := append(slices.Clip(path), c.Name)
			if !fn(p, ns.Get(c.ID)) {
				continue
			}
			if ns.nodes[c.ID].kind == Branch {
				visit(c.ID, p)
			}
		}
	}
	visit(Root, nil)
}

// Deployer returns the default deployer of a branch.
func (ns *Namespace) Deployer(branch NodeID) (*meta.Deployer, bool) {
	n := &ns.nodes[branch]
	if n.kind != Branch || n.deployer == nil {
		return nil, false
	}
	return n.deployer, true
}

// HasWords reports whether branch holds any word element or deployer.
func (ns *Namespace) HasWords(branch NodeID) bool {
	n := &ns.nodes[branch]
	if n.deployer != nil {
		return true
	}
	for _, child := range n.children {
		switch ns.nodes[child].kind {
		case WordElement, DeployerElement:
			return true
		}
	}
	return false
}

// SplitPath splits a dotted path into segments, validating each against
// meta.NamePattern. A single leading dot is allowed; an empty path (or a
// lone dot) yields no segments.
func SplitPath(path string) ([]string, error) {
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, ".")
	for _, seg := range segs {
		if !meta.NamePattern.MatchString(seg) {
			return nil, fmt.Errorf("invalid path segment %q", seg)
		}
	}
	return segs, nil
}

// JoinPath is the inverse of SplitPath without the leading dot.
func JoinPath(segs []string) string {
	return strings.Join(segs, ".")
}
