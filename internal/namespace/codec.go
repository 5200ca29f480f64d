package namespace

import (
	"fmt"
	"slices"

	"github.com/roach88/dotrain/internal/meta"
)

// Export converts the subtree at branch into its payload form. Positions,
// scopes and origins are not exported.
func (ns *Namespace) Export(branch NodeID) *meta.Namespace {
	return &meta.Namespace{Root: ns.exportNode(branch)}
}

func (ns *Namespace) exportNode(id NodeID) *meta.Node {
	n := &ns.nodes[id]
	switch n.kind {
	case BindingElement:
		return &meta.Node{Kind: meta.NodeBinding, Binding: &meta.BindingRecord{
			Type:         n.binding.Type.String(),
			Content:      n.binding.Content,
			Value:        n.binding.Value,
			Message:      n.binding.Message,
			Dependencies: slices.Clone(n.binding.Dependencies),
		}}
	case WordElement:
		w := *n.word
		return &meta.Node{Kind: meta.NodeWord, Word: &w}
	case DeployerElement:
		return &meta.Node{Kind: meta.NodeDeployer, Deployer: n.deployer}
	default:
		out := &meta.Node{Kind: meta.NodeBranch, Children: make(map[string]*meta.Node, len(n.children)), Deployer: n.deployer}
		for name, child := range n.children {
			out.Children[name] = ns.exportNode(child)
		}
		return out
	}
}

// FromMeta builds a namespace from its payload form. Every binding is
// marked imported and resolves against the new root.
func FromMeta(m *meta.Namespace) *Namespace {
	b := NewBuilder(0)
	if m.Root != nil {
		b.nodes[Root].deployer = m.Root.Deployer
		b.importChildren(Root, m.Root)
	}
	return b.Build()
}

func (b *Builder) importChildren(parent NodeID, m *meta.Node) {
	names := make([]string, 0, len(m.Children))
	for name := range m.Children {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		child := m.Children[name]
		n := node{name: name, parent: parent, scope: None}
		switch child.Kind {
		case meta.NodeBinding:
			n.kind = BindingElement
			n.scope = Root
			n.binding = &Binding{
				Name:          name,
				Type:          bindingType(child.Binding.Type),
				Content:       child.Binding.Content,
				ContentOffset: -1,
				Value:         child.Binding.Value,
				Message:       child.Binding.Message,
				Dependencies:  slices.Clone(child.Binding.Dependencies),
			}
		case meta.NodeWord:
			w := *child.Word
			n.kind = WordElement
			n.word = &w
		case meta.NodeDeployer:
			n.kind = DeployerElement
			n.deployer = child.Deployer
		default:
			n.kind = Branch
			n.children = map[string]NodeID{}
			n.deployer = child.Deployer
		}
		id := b.add(n)
		if n.kind == Branch {
			b.importChildren(id, child)
		}
	}
}

func bindingType(s string) BindingType {
	switch s {
	case meta.BindingConstant:
		return Constant
	case meta.BindingElided:
		return Elided
	default:
		return Expression
	}
}

// Encode serializes the whole namespace as a Namespace payload.
func Encode(ns *Namespace) ([]byte, error) {
	return meta.Encode(ns.Export(Root))
}

// Decode parses a Namespace payload.
func Decode(data []byte) (*Namespace, error) {
	p, err := meta.Decode(data)
	if err != nil {
		return nil, err
	}
	m, ok := p.(*meta.Namespace)
	if !ok {
		return nil, fmt.Errorf("decode namespace: payload is %s", p.Kind())
	}
	return FromMeta(m), nil
}
