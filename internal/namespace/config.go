package namespace

import (
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
)

// ConfigKind is the kind of an import config.
type ConfigKind uint8

const (
	// Rename moves a member to a new name.
	Rename ConfigKind = iota
	// Elide replaces a binding with an elided placeholder.
	Elide
	// Rebind replaces a binding with a constant.
	Rebind
)

// Config adjusts one top-level member of an imported namespace.
type Config struct {
	Kind  ConfigKind
	Old   string
	New   string
	Value string
}

// ElidedByImport is the message of bindings elided by an import config.
const ElidedByImport = "elided by import"

// Apply returns a copy of ns with configs applied in order to the root's
// members. A failing config is reported through Error.Config.
func (ns *Namespace) Apply(configs []Config) (*Namespace, error) {
	if len(configs) == 0 {
		return ns, nil
	}
	b := ns.Builder(0)
	root := &b.nodes[Root]
	for i, c := range configs {
		id, ok := root.children[c.Old]
		if !ok {
			return nil, configError(i, ir.UndefinedNamespaceMember, "undefined namespace member %q", c.Old)
		}
		n := &b.nodes[id]

		switch c.Kind {
		case Rename:
			if !meta.NamePattern.MatchString(c.New) {
				return nil, configError(i, ir.InvalidWordPattern, "invalid name pattern %q", c.New)
			}
			if c.New == c.Old {
				continue
			}
			if _, taken := root.children[c.New]; taken {
				return nil, configError(i, ir.DuplicateAlias, "duplicate alias %q", c.New)
			}
			delete(root.children, c.Old)
			root.children[c.New] = id
			n.name = c.New
			if n.binding != nil {
				renamed := *n.binding
				renamed.Name = c.New
				n.binding = &renamed
			}

		case Elide, Rebind:
			if n.kind != BindingElement {
				return nil, configError(i, ir.UnexpectedRebinding, "cannot rebind %s %q", n.kind, c.Old)
			}
			replaced := &Binding{
				Name:          n.binding.Name,
				ContentOffset: -1,
				Position:      n.binding.Position,
			}
			if c.Kind == Elide {
				replaced.Type = Elided
				replaced.Content = "! " + ElidedByImport
				replaced.Message = ElidedByImport
			} else {
				replaced.Type = Constant
				replaced.Content = c.Value
				replaced.Value = c.Value
			}
			n.binding = replaced
		}
	}
	return b.Build(), nil
}

func configError(i int, code ir.ErrorCode, format string, args ...any) *Error {
	err := newError(code, format, args...)
	err.Config = i
	return err
}

// FromWords builds a namespace whose root holds one word element per word.
func FromWords(words []meta.Word) *Namespace {
	b := NewBuilder(0)
	for i := range words {
		w := words[i]
		b.add(node{kind: WordElement, name: w.Name, parent: Root, word: &w, scope: None})
	}
	return b.Build()
}
