package parser

import (
	"fmt"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/namespace"
)

// Scope is the namespace context a binding body resolves against.
type Scope struct {
	Namespace *namespace.Namespace
	// Branch is the branch paths are resolved from.
	Branch namespace.NodeID
	// Self is the binding's own name within Branch.
	Self string
}

// resolution is the outcome of a failed lookup.
type resolution struct {
	code ir.ErrorCode
	msg  string
}

// ResolveWord finds the word a path names: a word element at the path, a
// word of a deployer element ("dep.word"), or for single segments a word
// of the branch's default deployer.
func (s Scope) ResolveWord(path []string) (*meta.Word, error) {
	w, res := s.resolveWord(path)
	if res != nil {
		return nil, &ir.Problem{Code: res.code, Message: res.msg}
	}
	return w, nil
}

func (s Scope) resolveWord(path []string) (*meta.Word, *resolution) {
	ns := s.Namespace
	name := namespace.JoinPath(path)

	if id, ok := ns.Lookup(s.Branch, path); ok {
		n := ns.Get(id)
		if n.Kind == namespace.WordElement {
			return n.Word, nil
		}
		return nil, &resolution{ir.UndefinedWord, fmt.Sprintf("%q is a %s, not a word", name, n.Kind)}
	}

	if len(path) > 1 {
		prefix := path[:len(path)-1]
		id, ok := ns.Lookup(s.Branch, prefix)
		if !ok {
			return nil, &resolution{ir.UndefinedNamespaceMember, fmt.Sprintf("undefined namespace member %q", namespace.JoinPath(prefix))}
		}
		n := ns.Get(id)
		if n.Kind == namespace.DeployerElement {
			if w, ok := n.Deployer.Lookup(path[len(path)-1]); ok {
				return &w, nil
			}
		}
		return nil, &resolution{ir.UndefinedWord, fmt.Sprintf("undefined word %q", name)}
	}

	if d, ok := ns.Deployer(s.Branch); ok {
		if w, ok := d.Lookup(name); ok {
			return &w, nil
		}
	}
	if !ns.HasWords(s.Branch) {
		return nil, &resolution{ir.UndefinedDeployer, fmt.Sprintf("cannot resolve word %q: no words or deployer in scope", name)}
	}
	return nil, &resolution{ir.UndefinedWord, fmt.Sprintf("undefined word %q", name)}
}

// resolveIdentifier finds the binding a path names.
func (s Scope) resolveIdentifier(path []string) (namespace.NodeID, *resolution) {
	ns := s.Namespace
	name := namespace.JoinPath(path)

	if len(path) == 1 && path[0] == s.Self {
		return namespace.None, &resolution{ir.InvalidSelfReference, fmt.Sprintf("binding %q references itself", name)}
	}

	id, ok := ns.Lookup(s.Branch, path)
	if !ok {
		if len(path) == 1 {
			return namespace.None, &resolution{ir.UndefinedIdentifier, fmt.Sprintf("undefined identifier %q", name)}
		}
		return namespace.None, &resolution{ir.UndefinedNamespaceMember, fmt.Sprintf("undefined namespace member %q", name)}
	}

	switch n := ns.Get(id); n.Kind {
	case namespace.BindingElement:
		return id, nil
	case namespace.WordElement:
		return namespace.None, &resolution{ir.ExpectedOpeningParen, fmt.Sprintf("word %q must be applied with '('", name)}
	default:
		return namespace.None, &resolution{ir.InvalidNamespaceReference, fmt.Sprintf("%q refers to a %s, not a binding", name, n.Kind)}
	}
}
