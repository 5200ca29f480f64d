package meta

import (
	"fmt"
	"slices"

	"github.com/roach88/dotrain/internal/ir"
)

// NodeKind tags an exported namespace node.
type NodeKind string

const (
	NodeBranch   NodeKind = "branch"
	NodeBinding  NodeKind = "binding"
	NodeWord     NodeKind = "word"
	NodeDeployer NodeKind = "deployer"
)

// Binding content types in an exported namespace.
const (
	BindingExpression = "expression"
	BindingConstant   = "constant"
	BindingElided     = "elided"
)

// Namespace is an exported namespace tree.
type Namespace struct {
	Root *Node
}

// Kind implements Payload.
func (*Namespace) Kind() Kind { return KindNamespace }

// Node is one exported namespace node. Children, Binding, Word or Deployer
// is meaningful, selected by Kind. A branch may also carry the Deployer its
// words default to.
type Node struct {
	Kind     NodeKind
	Children map[string]*Node
	Binding  *BindingRecord
	Word     *Word
	Deployer *Deployer
}

// BindingRecord is the exported form of a binding.
type BindingRecord struct {
	Type         string
	Content      string
	Value        string
	Message      string
	Dependencies []string
}

type wireNode struct {
	Kind     string               `json:"kind"`
	Children map[string]*wireNode `json:"children"`
	Binding  *wireBinding         `json:"binding"`
	Word     *wireWord            `json:"word"`
	Deployer *wireDeployer        `json:"deployer"`
}

type wireBinding struct {
	Type         string   `json:"type"`
	Content      string   `json:"content"`
	Value        string   `json:"value"`
	Message      string   `json:"message"`
	Dependencies []string `json:"dependencies"`
}

type wireNamespace struct {
	Version string    `json:"version"`
	Root    *wireNode `json:"root"`
}

func (n *Namespace) canonical() (ir.Object, error) {
	if n.Root == nil || n.Root.Kind != NodeBranch {
		return nil, fmt.Errorf("encode: namespace root must be a branch")
	}
	root, err := n.Root.canonical()
	if err != nil {
		return nil, err
	}
	return ir.NewObject(ir.O("version", ir.Str(ir.FormatVersion)), ir.O("root", root)), nil
}

func (n *Node) canonical() (ir.Object, error) {
	obj := ir.NewObject(ir.O("kind", ir.Str(string(n.Kind))))
	switch n.Kind {
	case NodeBranch:
		children := make(ir.Object, len(n.Children))
		for name, child := range n.Children {
			c, err := child.canonical()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			children[name] = c
		}
		obj["children"] = children
		if n.Deployer != nil {
			obj["deployer"] = n.Deployer.canonical()
		}
	case NodeBinding:
		if n.Binding == nil {
			return nil, fmt.Errorf("encode: binding node without binding")
		}
		obj["binding"] = n.Binding.canonical()
	case NodeWord:
		if n.Word == nil {
			return nil, fmt.Errorf("encode: word node without word")
		}
		obj["word"] = n.Word.canonical()
	case NodeDeployer:
		if n.Deployer == nil {
			return nil, fmt.Errorf("encode: deployer node without deployer")
		}
		obj["deployer"] = n.Deployer.canonical()
	default:
		return nil, fmt.Errorf("encode: unknown node kind %q", n.Kind)
	}
	return obj, nil
}

func (b *BindingRecord) canonical() ir.Object {
	obj := ir.NewObject(ir.O("type", ir.Str(b.Type)), ir.O("content", ir.Str(b.Content)))
	if b.Value != "" {
		obj["value"] = ir.Str(b.Value)
	}
	if b.Message != "" {
		obj["message"] = ir.Str(b.Message)
	}
	if len(b.Dependencies) > 0 {
		obj["dependencies"] = ir.Strs(b.Dependencies)
	}
	return obj
}

func decodeNamespace(body []byte) (*Namespace, error) {
	var wire wireNamespace
	if err := strictUnmarshal(body, &wire); err != nil {
		return nil, err
	}
	if wire.Version != ir.FormatVersion {
		return nil, fmt.Errorf("%w: unsupported namespace version %q", ErrCorrupt, wire.Version)
	}
	if wire.Root == nil || NodeKind(wire.Root.Kind) != NodeBranch {
		return nil, fmt.Errorf("%w: namespace root must be a branch", ErrCorrupt)
	}
	root, err := convertNode(wire.Root)
	if err != nil {
		return nil, err
	}
	out := &Namespace{Root: root}
	obj, err := out.canonical()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := checkCanonical(body, obj); err != nil {
		return nil, err
	}
	return out, nil
}

func convertNode(w *wireNode) (*Node, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: null namespace node", ErrCorrupt)
	}
	n := &Node{Kind: NodeKind(w.Kind)}
	switch n.Kind {
	case NodeBranch:
		n.Children = make(map[string]*Node, len(w.Children))
		for name, child := range w.Children {
			if !NamePattern.MatchString(name) {
				return nil, fmt.Errorf("%w: invalid namespace segment %q", ErrCorrupt, name)
			}
			c, err := convertNode(child)
			if err != nil {
				return nil, err
			}
			n.Children[name] = c
		}
		if w.Deployer != nil {
			d, err := convertDeployer(w.Deployer)
			if err != nil {
				return nil, err
			}
			n.Deployer = d
		}
	case NodeBinding:
		if w.Binding == nil {
			return nil, fmt.Errorf("%w: binding node without binding", ErrCorrupt)
		}
		switch w.Binding.Type {
		case BindingExpression, BindingConstant, BindingElided:
		default:
			return nil, fmt.Errorf("%w: unknown binding type %q", ErrCorrupt, w.Binding.Type)
		}
		deps := slices.Clone(w.Binding.Dependencies)
		n.Binding = &BindingRecord{
			Type:         w.Binding.Type,
			Content:      w.Binding.Content,
			Value:        w.Binding.Value,
			Message:      w.Binding.Message,
			Dependencies: deps,
		}
	case NodeWord:
		if w.Word == nil {
			return nil, fmt.Errorf("%w: word node without word", ErrCorrupt)
		}
		words, err := convertWords([]wireWord{*w.Word})
		if err != nil {
			return nil, err
		}
		n.Word = &words[0]
	case NodeDeployer:
		if w.Deployer == nil {
			return nil, fmt.Errorf("%w: deployer node without deployer", ErrCorrupt)
		}
		d, err := convertDeployer(w.Deployer)
		if err != nil {
			return nil, err
		}
		n.Deployer = d
	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", ErrCorrupt, w.Kind)
	}
	return n, nil
}

func convertDeployer(w *wireDeployer) (*Deployer, error) {
	bytecode, err := decodeHexBytes(w.Bytecode)
	if err != nil || len(bytecode) == 0 {
		return nil, fmt.Errorf("%w: deployer bytecode", ErrCorrupt)
	}
	words, err := convertWords(w.Words)
	if err != nil {
		return nil, err
	}
	return &Deployer{Bytecode: bytecode, Words: words}, nil
}
