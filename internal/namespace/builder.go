package namespace

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
)

// DefaultMaxDepth bounds the number of segments on any namespace path.
const DefaultMaxDepth = 32

// Error is a failed namespace change. Nothing is modified when a Builder
// method returns one.
type Error struct {
	Code    ir.ErrorCode
	Message string
	// Config is the index of the import config that failed, or -1.
	Config int
}

func (e *Error) Error() string { return e.Message }

func newError(code ir.ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Config: -1}
}

// Builder accumulates changes to a private copy of a namespace arena.
type Builder struct {
	nodes    []node
	maxDepth int
}

// NewBuilder starts from an empty namespace. A non-positive maxDepth
// selects DefaultMaxDepth.
func NewBuilder(maxDepth int) *Builder {
	return Empty().Builder(maxDepth)
}

// Builder returns a Builder seeded with a copy of ns.
func (ns *Namespace) Builder(maxDepth int) *Builder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Builder{nodes: cloneNodes(ns.nodes), maxDepth: maxDepth}
}

// Build freezes the current state. The Builder stays usable and later
// changes do not affect the returned Namespace.
func (b *Builder) Build() *Namespace {
	return &Namespace{nodes: cloneNodes(b.nodes)}
}

// MaxDepth returns the configured depth bound.
func (b *Builder) MaxDepth() int { return b.maxDepth }

func cloneNodes(nodes []node) []node {
	out := slices.Clone(nodes)
	for i := range out {
		if out[i].children != nil {
			out[i].children = maps.Clone(out[i].children)
		}
	}
	return out
}

// view exposes the read helpers over the builder's arena without copying.
func (b *Builder) view() *Namespace {
	return &Namespace{nodes: b.nodes}
}

func (b *Builder) add(n node) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, n)
	if n.parent != None {
		b.nodes[n.parent].children[n.name] = id
	}
	return id
}

// AddBinding adds a binding element under the root. Its references
// resolve against the root.
func (b *Builder) AddBinding(bind *Binding) (NodeID, error) {
	if _, ok := b.nodes[Root].children[bind.Name]; ok {
		return None, newError(ir.DuplicateIdentifier, "duplicate identifier %q", bind.Name)
	}
	return b.add(node{kind: BindingElement, name: bind.Name, parent: Root, binding: bind, scope: Root}), nil
}

// AddDeployer places a deployer element at path. An empty path makes it
// the root's default deployer, of which there can be only one.
func (b *Builder) AddDeployer(path []string, d *meta.Deployer, origin ir.Hash) (NodeID, error) {
	if len(path) == 0 {
		if b.nodes[Root].deployer != nil {
			return None, newError(ir.MultipleWords, "multiple words sets at the root namespace")
		}
		b.nodes[Root].deployer = d
		return Root, nil
	}
	if len(path) > b.maxDepth {
		return None, newError(ir.DeepNamespace, "namespace too deep: %d segments exceed %d", len(path), b.maxDepth)
	}
	parentPath, leaf := path[:len(path)-1], path[len(path)-1]
	if err := b.checkPath(path); err != nil {
		return None, err
	}
	if id, ok := b.view().Lookup(Root, path); ok {
		kind := b.nodes[id].kind
		return None, newError(ir.NamespaceOccupied, "namespace %q is occupied by a %s", JoinPath(path), kind)
	}
	parent := b.ensure(parentPath, origin)
	return b.add(node{kind: DeployerElement, name: leaf, parent: parent, deployer: d, scope: None, origin: origin}), nil
}

// Splice merges the tree of sub into the branch at path, creating missing
// branches. Branches present on both sides merge recursively; any other
// name clash fails with CollidingNamespaceNodes and leaves the builder
// unchanged.
func (b *Builder) Splice(path []string, sub *Namespace, origin ir.Hash) error {
	if err := b.checkPath(path); err != nil {
		return err
	}
	if depth := len(path) + sub.Depth(); depth > b.maxDepth {
		return newError(ir.DeepNamespace, "namespace too deep: %d segments exceed %d", depth, b.maxDepth)
	}
	if target, ok := b.view().Lookup(Root, path); ok {
		if err := b.checkMerge(target, sub, Root); err != nil {
			return err
		}
	}

	target := b.ensure(path, origin)
	b.copyInto(target, sub, Root, origin, map[NodeID]NodeID{Root: target})
	return nil
}

// checkPath fails when an element sits on path, including at its end.
func (b *Builder) checkPath(path []string) error {
	cur := Root
	for i, seg := range path {
		next, ok := b.nodes[cur].children[seg]
		if !ok {
			return nil
		}
		if b.nodes[next].kind != Branch {
			return newError(ir.NamespaceOccupied, "namespace %q is occupied by a %s", JoinPath(path[:i+1]), b.nodes[next].kind)
		}
		cur = next
	}
	return nil
}

func (b *Builder) checkMerge(dst NodeID, sub *Namespace, src NodeID) error {
	if sub.nodes[src].deployer != nil && b.nodes[dst].deployer != nil {
		return newError(ir.MultipleWords, "multiple words sets at namespace %q", JoinPath(b.view().Path(dst)))
	}
	for _, c := range sub.Children(src) {
		existing, ok := b.nodes[dst].children[c.Name]
		if !ok {
			continue
		}
		if b.nodes[existing].kind != Branch || sub.nodes[c.ID].kind != Branch {
			path := append(b.view().Path(dst), c.Name)
			return newError(ir.CollidingNamespaceNodes, "namespace member %q collides with an existing member", JoinPath(path))
		}
		if err := b.checkMerge(existing, sub, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) ensure(path []string, origin ir.Hash) NodeID {
	cur := Root
	for _, seg := range path {
		next, ok := b.nodes[cur].children[seg]
		if !ok {
			n := newBranch(seg, cur)
			n.origin = origin
			next = b.add(n)
		}
		cur = next
	}
	return cur
}

// copyInto copies src's subtree from sub under dst. mapping tracks where
// each copied branch of sub landed so binding scopes can be carried over;
// a scope is always an ancestor, so it is mapped before it is needed.
func (b *Builder) copyInto(dst NodeID, sub *Namespace, src NodeID, origin ir.Hash, mapping map[NodeID]NodeID) {
	if d := sub.nodes[src].deployer; d != nil {
		b.nodes[dst].deployer = d
	}
	for _, c := range sub.Children(src) {
		sn := sub.nodes[c.ID]
		if existing, ok := b.nodes[dst].children[c.Name]; ok {
			mapping[c.ID] = existing
			b.copyInto(existing, sub, c.ID, origin, mapping)
			continue
		}

		n := node{
			kind:     sn.kind,
			name:     c.Name,
			parent:   dst,
			binding:  sn.binding,
			word:     sn.word,
			deployer: sn.deployer,
			scope:    None,
			origin:   sn.origin,
		}
		if n.origin.IsZero() {
			n.origin = origin
		}
		if sn.kind == BindingElement {
			scope, ok := mapping[sn.scope]
			if !ok {
				scope = mapping[Root]
			}
			n.scope = scope
		}
		if sn.kind == Branch {
			n.children = map[string]NodeID{}
			n.deployer = nil
		}
		id := b.add(n)
		if sn.kind == Branch {
			mapping[c.ID] = id
			b.copyInto(id, sub, c.ID, origin, mapping)
		}
	}
}
