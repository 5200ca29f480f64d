package compiler

import (
	"strings"

	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/namespace"
	"github.com/roach88/dotrain/internal/parser"
)

// Binding is one binding of a composed program. Name and Dependencies are
// absolute namespace paths.
type Binding struct {
	Name         string
	Type         namespace.BindingType
	Content      string
	Value        string
	Expression   *parser.Expression
	Dependencies []string
}

// Program is the input handed to a Compiler.
type Program struct {
	Entrypoints []string
	// Bindings holds every binding reachable from the entrypoints, each
	// after all of its dependencies.
	Bindings []Binding
	// Deployer is the root deployer the program targets, if any.
	Deployer *meta.Deployer
	// Words is the word table available at the root.
	Words []meta.Word
}

// Binding returns the program binding named name.
func (p *Program) Binding(name string) (*Binding, bool) {
	for i := range p.Bindings {
		if p.Bindings[i].Name == name {
			return &p.Bindings[i], true
		}
	}
	return nil, false
}

// Word looks up name in the program's word table.
func (p *Program) Word(name string) (meta.Word, bool) {
	for _, w := range p.Words {
		if w.Name == name {
			return w, true
		}
	}
	return meta.Word{}, false
}

// Text renders the program as a flat document: one binding statement per
// binding, dependencies first.
func (p *Program) Text() string {
	var b strings.Builder
	for i, bind := range p.Bindings {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("#")
		b.WriteString(bind.Name)
		switch bind.Type {
		case namespace.Constant:
			b.WriteString(" ")
			b.WriteString(bind.Value)
		default:
			b.WriteString("\n")
			b.WriteString(bind.Content)
		}
	}
	return b.String()
}
