package document

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/dotrain/internal/compiler"
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/namespace"
	"github.com/roach88/dotrain/internal/parser"
)

// Compose builds the compiler input for entrypoints from the current
// snapshot.
func (d *Document) Compose(entrypoints ...string) (*compiler.Program, error) {
	return d.Snapshot().Compose(entrypoints...)
}

// Compile composes entrypoints and hands the program to c. A compiler
// rejection is returned as an *ir.Problem with code RuntimeError.
func (d *Document) Compile(ctx context.Context, c compiler.Compiler, entrypoints ...string) ([]byte, error) {
	p, err := d.Compose(entrypoints...)
	if err != nil {
		return nil, err
	}
	out, err := c.Compile(ctx, p)
	if err != nil {
		var serr *compiler.StructuredError
		if errors.As(err, &serr) {
			return nil, &ir.Problem{Code: ir.RuntimeError, Message: serr.Error()}
		}
		return nil, fmt.Errorf("compile: %w", err)
	}
	return out, nil
}

// Compose builds the compiler input for entrypoints: every binding they
// reach in dependency order plus the root word table. Failures are
// returned as *ir.Problem.
func (s *Snapshot) Compose(entrypoints ...string) (*compiler.Program, error) {
	if s.Fatal != nil {
		return nil, s.Fatal
	}
	c := &composer{snap: s, ns: s.Namespace, graph: compiler.NewGraph(), bindings: make(map[string]*compiler.Binding)}

	for _, name := range entrypoints {
		id, ok := c.ns.LookupPath(name)
		if !ok || c.ns.Get(id).Kind != namespace.BindingElement {
			return nil, &ir.Problem{Code: ir.UndefinedBinding, Message: fmt.Sprintf("undefined entrypoint %q", name)}
		}
		if err := c.visit(id); err != nil {
			return nil, err
		}
	}

	order, err := c.graph.Order(entrypoints...)
	if err != nil {
		var cerr *compiler.CycleError
		if errors.As(err, &cerr) {
			return nil, &ir.Problem{Code: ir.CircularDependency, Message: cerr.Error()}
		}
		return nil, err
	}

	p := &compiler.Program{Entrypoints: slices.Clone(entrypoints)}
	for _, name := range order {
		p.Bindings = append(p.Bindings, *c.bindings[name])
	}

	d, hasDeployer := c.ns.Deployer(namespace.Root)
	if hasDeployer {
		p.Deployer = d
		p.Words = slices.Clone(d.Words)
	}
	for _, child := range c.ns.Children(namespace.Root) {
		if n := c.ns.Get(child.ID); n.Kind == namespace.WordElement {
			p.Words = append(p.Words, *n.Word)
		}
	}
	if len(p.Words) == 0 {
		return nil, &ir.Problem{Code: ir.UndefinedDeployer, Message: "no deployer or words at the root namespace"}
	}
	return p, nil
}

type composer struct {
	snap     *Snapshot
	ns       *namespace.Namespace
	graph    *compiler.Graph
	bindings map[string]*compiler.Binding
}

// visit adds the binding at id and everything it depends on.
func (c *composer) visit(id namespace.NodeID) error {
	n := c.ns.Get(id)
	name := namespace.JoinPath(c.ns.Path(id))
	if _, done := c.bindings[name]; done {
		return nil
	}
	b := n.Binding
	if b.Type == namespace.Elided {
		msg := b.Message
		if msg == "" {
			msg = "elided binding"
		}
		return &ir.Problem{Code: ir.ElidedBinding, Message: fmt.Sprintf("%q: %s", name, msg), Position: c.position(name)}
	}

	out := &compiler.Binding{Name: name, Type: b.Type, Content: b.Content, Value: b.Value}
	c.bindings[name] = out
	c.graph.AddNode(name)
	if b.Type != namespace.Expression {
		return nil
	}

	expr, err := c.expression(name, n)
	if err != nil {
		return err
	}
	out.Expression = expr

	scope := c.ns.Path(n.Scope)
	for _, dep := range b.Dependencies {
		rel, err := namespace.SplitPath(dep)
		if err != nil {
			return &ir.Problem{Code: ir.InvalidWordPattern, Message: err.Error(), Position: c.position(name)}
		}
		path := append(slices.Clone(scope), rel...)
		target, ok := c.ns.Lookup(namespace.Root, path)
		if !ok || c.ns.Get(target).Kind != namespace.BindingElement {
			return &ir.Problem{Code: ir.UndefinedBinding, Message: fmt.Sprintf("%q depends on undefined binding %q", name, dep), Position: c.position(name)}
		}
		abs := namespace.JoinPath(path)
		out.Dependencies = append(out.Dependencies, abs)
		c.graph.AddEdge(name, abs)
		if err := c.visit(target); err != nil {
			return err
		}
	}
	return nil
}

// expression returns the parsed expression of a binding. The document's
// own bindings reuse their parse; imported bindings are parsed against
// their scope.
func (c *composer) expression(name string, n namespace.Node) (*parser.Expression, error) {
	if n.Origin.IsZero() {
		if b, ok := c.snap.Binding(name); ok && b.Node == n.ID {
			if len(b.Problems) > 0 {
				p := b.Problems[0]
				return nil, &p
			}
			return b.Expression, nil
		}
	}
	r := parser.ParseContent(n.Name, n.Binding.Content, 0, parser.Scope{Namespace: c.ns, Branch: n.Scope, Self: n.Name})
	if len(r.Problems) > 0 {
		p := r.Problems[0]
		p.Message = fmt.Sprintf("%q: %s", name, p.Message)
		p.Position = ir.Offsets{}
		return nil, &p
	}
	return r.Expression, nil
}

func (c *composer) position(name string) ir.Offsets {
	if b, ok := c.snap.Binding(name); ok {
		return b.NamePosition
	}
	return ir.Offsets{}
}
