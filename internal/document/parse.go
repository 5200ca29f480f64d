package document

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/dotrain/internal/compiler"
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/lexer"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/namespace"
	"github.com/roach88/dotrain/internal/parser"
)

// session is one parse of a document and, recursively, of the documents
// it imports.
type session struct {
	ctx   context.Context
	async bool
	store MetaStore
	opts  *options
}

// parse builds a snapshot of text. stack holds the hashes of the documents
// currently being parsed, outermost first; text's own hash is pushed by the
// caller. The only error returned is the session's context error.
func (s *session) parse(text string, stack []ir.Hash) (*Snapshot, error) {
	snap := &Snapshot{
		Text:      text,
		Hash:      meta.DotrainHash(text),
		State:     Parsed,
		Namespace: namespace.Empty(),
	}
	if strings.TrimSpace(text) == "" {
		return fatal(snap, ir.EmptyDocument, "empty document", ir.Offsets{0, len(text)}), nil
	}

	split := lexer.SplitFrontMatter(text)
	data, err := lexer.ParseFrontMatter(split.FrontMatter)
	if err != nil {
		return fatal(snap, ir.InvalidFrontMatter, "invalid front matter: "+err.Error(), split.FrontMatterRange), nil
	}

	scan := lexer.Scan(split.Body, split.BodyOffset)
	problems := slices.Clone(scan.Problems)
	b := namespace.NewBuilder(s.opts.maxNamespaceDepth)

	var imports, usable []*Import
	var bindingStmts []lexer.Statement
	for _, stmt := range scan.Statements {
		if stmt.Kind == lexer.BindingStatement {
			bindingStmts = append(bindingStmts, stmt)
			continue
		}
		imp, ps := parseImport(stmt)
		imports = append(imports, imp)
		problems = append(problems, ps...)
		if len(ps) > 0 {
			continue
		}
		if slices.ContainsFunc(usable, func(o *Import) bool { return o.Hash == imp.Hash && slices.Equal(o.Path, imp.Path) }) {
			problems = append(problems, ir.NewProblem(ir.DuplicateImport, "duplicate import "+imp.Hash.String()+" at "+imp.Name(), imp.Position))
			continue
		}
		usable = append(usable, imp)
	}

	if s.async {
		if err := s.prefetch(usable, stack); err != nil {
			return nil, err
		}
	}
	for _, imp := range usable {
		p, err := s.resolveImport(b, imp, stack)
		if err != nil {
			return nil, err
		}
		if p != nil {
			problems = append(problems, *p)
		}
	}

	bindings, bindingProblems := s.parseBindings(b, bindingStmts)
	problems = append(problems, bindingProblems...)
	problems = append(problems, cycleProblems(bindings)...)
	ir.SortProblems(problems)

	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	snap.FrontMatter = split.FrontMatter
	snap.FrontMatterRange = split.FrontMatterRange
	snap.FrontMatterData = data
	snap.BodyOffset = split.BodyOffset
	snap.Namespace = b.Build()
	snap.Bindings = bindings
	snap.Comments = scan.Comments
	snap.Imports = imports
	snap.Problems = problems
	return snap, nil
}

func fatal(snap *Snapshot, code ir.ErrorCode, msg string, pos ir.Offsets) *Snapshot {
	p := ir.NewProblem(code, msg, pos)
	snap.State = Failed
	snap.Fatal = &p
	return snap
}

// prefetch resolves the payloads of imports concurrently so the sequential
// pass below only reads the cache. Fetch failures surface later as
// UndefinedMeta; only cancellation aborts.
func (s *session) prefetch(imports []*Import, stack []ir.Hash) error {
	if len(stack) > s.opts.maxImportDepth {
		return nil
	}
	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(s.opts.concurrency)
	seen := make(map[ir.Hash]bool)
	for _, imp := range imports {
		h := imp.Hash
		if seen[h] || slices.Contains(stack, h) {
			continue
		}
		seen[h] = true
		if _, ok := s.store.Get(h); ok {
			continue
		}
		g.Go(func() error {
			if _, err := s.store.Update(ctx, h); err != nil {
				if s.ctx.Err() != nil {
					return s.ctx.Err()
				}
				s.opts.logger.Debug("import prefetch failed", "hash", h.String(), "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return s.ctx.Err()
}

// resolveImport splices one import into b. A failed import yields a
// problem at the statement and leaves b unchanged.
func (s *session) resolveImport(b *namespace.Builder, imp *Import, stack []ir.Hash) (*ir.Problem, error) {
	fail := func(code ir.ErrorCode, format string, args ...any) (*ir.Problem, error) {
		p := ir.NewProblem(code, fmt.Sprintf(format, args...), imp.Position)
		s.opts.logger.Debug("import failed", "hash", imp.Hash.String(), "path", imp.Name(), "code", code.String())
		return &p, nil
	}

	if slices.Contains(stack, imp.Hash) {
		return fail(ir.CircularDependency, "circular dependency on %s", imp.Hash)
	}
	if len(stack) > s.opts.maxImportDepth {
		return fail(ir.DeepImport, "import chain deeper than %d", s.opts.maxImportDepth)
	}

	payload, ok := s.store.Get(imp.Hash)
	if !ok {
		return fail(ir.UndefinedMeta, "cannot find any meta for %s", imp.Hash)
	}
	decoded, err := meta.Decode(payload)
	if err != nil {
		return fail(ir.CorruptMeta, "corrupt meta %s: %v", imp.Hash, err)
	}
	imp.Kind = decoded.Kind()

	var sub *namespace.Namespace
	switch v := decoded.(type) {
	case *meta.Raw:
		return fail(ir.InconsumableMeta, "meta %s cannot be imported", imp.Hash)
	case *meta.Deployer:
		if len(imp.Configs) > 0 {
			return fail(ir.SingletonWords, "deployer %s cannot be renamed, elided or rebound", imp.Hash)
		}
		d := s.store.PutDeployer(imp.Hash, v)
		if _, err := b.AddDeployer(imp.Path, d, imp.Hash); err != nil {
			return s.namespaceProblem(imp, err)
		}
		imp.Resolved = true
		return nil, nil
	case *meta.Words:
		sub = namespace.FromWords(v.Words)
	case *meta.Namespace:
		sub = namespace.FromMeta(v)
	case *meta.Dotrain:
		nested, err := s.parse(v.Text, append(slices.Clone(stack), imp.Hash))
		if err != nil {
			return nil, err
		}
		imp.Document = nested
		if nested.Fatal != nil {
			return fail(nested.Fatal.Code, "imported document %s: %s", imp.Hash, nested.Fatal.Message)
		}
		if len(nested.Problems) > 0 {
			return fail(nested.Problems[0].Code, "imported document %s: %s", imp.Hash, nested.Problems[0].Message)
		}
		sub = nested.Namespace
	default:
		return fail(ir.InconsumableMeta, "meta %s of kind %s cannot be imported", imp.Hash, decoded.Kind())
	}

	configs := make([]namespace.Config, len(imp.Configs))
	for i, c := range imp.Configs {
		configs[i] = c.Config
	}
	sub, err = sub.Apply(configs)
	if err != nil {
		return s.namespaceProblem(imp, err)
	}
	if err := b.Splice(imp.Path, sub, imp.Hash); err != nil {
		return s.namespaceProblem(imp, err)
	}
	imp.Resolved = true
	s.opts.logger.Debug("import resolved", "hash", imp.Hash.String(), "path", imp.Name(), "kind", imp.Kind.String())
	return nil, nil
}

func (s *session) namespaceProblem(imp *Import, err error) (*ir.Problem, error) {
	var nerr *namespace.Error
	if !errors.As(err, &nerr) {
		return nil, err
	}
	pos := imp.Position
	if nerr.Config >= 0 && nerr.Config < len(imp.Configs) {
		pos = imp.Configs[nerr.Config].Position
	}
	p := ir.NewProblem(nerr.Code, nerr.Message, pos)
	return &p, nil
}

// parseBindings adds every binding to b first, so bindings may reference
// each other in any order, then parses each expression against the
// finished namespace.
func (s *session) parseBindings(b *namespace.Builder, stmts []lexer.Statement) ([]*Binding, []ir.Problem) {
	type pending struct {
		header  parser.Header
		binding *Binding
		element *namespace.Binding
	}
	var (
		problems []ir.Problem
		todo     []pending
	)
	for _, stmt := range stmts {
		h, ps := parser.SplitStatement(stmt)
		problems = append(problems, ps...)
		if !h.Valid {
			continue
		}
		r := parser.ClassifyHeader(h)
		element := r.Binding(h.Name, stmt.Position)
		bind := &Binding{Name: h.Name, NamePosition: h.NamePosition, Position: stmt.Position, Node: namespace.None}
		if id, err := b.AddBinding(element); err != nil {
			problems = append(problems, ir.NewProblem(ir.DuplicateIdentifier, err.Error(), h.NamePosition))
			element = nil
		} else {
			bind.Node = id
		}
		todo = append(todo, pending{header: h, binding: bind, element: element})
	}

	ns := b.Build()
	bindings := make([]*Binding, 0, len(todo))
	for _, t := range todo {
		r := parser.Parse(t.header, parser.Scope{Namespace: ns, Branch: namespace.Root, Self: t.header.Name})
		bind := t.binding
		bind.Type = r.Type
		bind.Content = r.Content
		bind.ContentOffset = r.ContentOffset
		bind.Value = r.Value
		bind.Message = r.Message
		bind.Expression = r.Expression
		bind.Dependencies = r.Dependencies
		bind.Problems = r.Problems
		// The element is shared with b and not yet published.
		if t.element != nil {
			t.element.Dependencies = slices.Clone(r.Dependencies)
		}
		bindings = append(bindings, bind)
	}
	return bindings, problems
}

// cycleProblems reports one CircularDependency per cycle among the
// document's own bindings. Self references are reported by the parser.
func cycleProblems(bindings []*Binding) []ir.Problem {
	own := make(map[string]*Binding)
	for _, b := range bindings {
		if b.Node != namespace.None {
			own[b.Name] = b
		}
	}
	g := compiler.NewGraph()
	for name, b := range own {
		g.AddNode(name)
		for _, dep := range b.Dependencies {
			if _, ok := own[dep]; ok && dep != name {
				g.AddEdge(name, dep)
			}
		}
	}

	var problems []ir.Problem
	for _, c := range g.Cycles() {
		first := own[c.Members[0]]
		problems = append(problems, ir.NewProblem(ir.CircularDependency, "circular dependency: "+c.String(), first.NamePosition))
	}
	return problems
}
