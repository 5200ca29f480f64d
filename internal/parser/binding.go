package parser

import (
	"errors"
	"slices"
	"strings"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/lexer"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/namespace"
)

// Header is a binding statement split into name and body.
type Header struct {
	Name         string
	NamePosition ir.Offsets
	Body         string
	BodyOffset   int
	// Valid is false when the name is missing or malformed.
	Valid bool
}

// SplitStatement splits a '#' statement into its name and body.
func SplitStatement(stmt lexer.Statement) (Header, []ir.Problem) {
	text := stmt.Text[1:]
	start := stmt.Position.Start() + 1

	end := strings.IndexAny(text, " \t\r\n")
	if end < 0 {
		end = len(text)
	}
	h := Header{
		Name:         text[:end],
		NamePosition: ir.Offsets{start, start + end},
		Body:         text[end:],
		BodyOffset:   start + end,
	}
	switch {
	case h.Name == "":
		return h, []ir.Problem{ir.NewProblem(ir.ExpectedName, "expected binding name", ir.Offsets{stmt.Position.Start(), start})}
	case !meta.NamePattern.MatchString(h.Name):
		return h, []ir.Problem{ir.NewProblem(ir.InvalidWordPattern, "invalid binding name "+quote(h.Name), h.NamePosition)}
	}
	h.Valid = true
	return h, nil
}

// Result is a parsed binding body.
type Result struct {
	Type    namespace.BindingType
	Content string
	// ContentOffset is the document offset of Content.
	ContentOffset int
	Value         string
	Message       string
	Expression    *Expression
	Dependencies  []string
	Problems      []ir.Problem
}

// Binding builds the namespace element for a parsed binding.
func (r *Result) Binding(name string, position ir.Offsets) *namespace.Binding {
	return &namespace.Binding{
		Name:          name,
		Type:          r.Type,
		Content:       r.Content,
		ContentOffset: r.ContentOffset,
		Position:      position,
		Value:         r.Value,
		Message:       r.Message,
		Dependencies:  slices.Clone(r.Dependencies),
	}
}

// Classify decides the body type without parsing an expression.
func Classify(body string) namespace.BindingType {
	trimmed := strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(trimmed, "!"):
		return namespace.Elided
	case trimmed != "" && !strings.ContainsAny(trimmed, " \t\r\n") && trimmed[0] >= '0' && trimmed[0] <= '9':
		return namespace.Constant
	default:
		return namespace.Expression
	}
}

// classify fills in everything but the expression tree: the type, the
// trimmed content, constant values and elision messages.
func classify(h Header) Result {
	lead := len(h.Body) - len(strings.TrimLeft(h.Body, " \t\r\n"))
	content := strings.TrimSpace(h.Body)
	r := Result{
		Type:          Classify(h.Body),
		Content:       content,
		ContentOffset: h.BodyOffset + lead,
	}
	pos := ir.Offsets{r.ContentOffset, r.ContentOffset + len(content)}

	switch r.Type {
	case namespace.Elided:
		r.Message = strings.TrimSpace(content[1:])
	case namespace.Constant:
		r.Value = content
		if _, err := ParseLiteral(content); err != nil {
			r.Problems = append(r.Problems, literalProblem(err, content, pos))
		}
	default:
		if content == "" {
			r.Problems = append(r.Problems, ir.NewProblem(ir.InvalidEmptyBinding, "invalid empty binding "+quote(h.Name), h.NamePosition))
		}
	}
	return r
}

// ClassifyHeader classifies a binding without resolving its expression.
// Document assembly uses it to add every binding to the namespace before
// any expression is parsed.
func ClassifyHeader(h Header) Result {
	return classify(h)
}

// Parse classifies a binding body and, for expressions, parses and
// resolves it against scope.
func Parse(h Header, scope Scope) Result {
	r := classify(h)
	if r.Type != namespace.Expression || r.Content == "" {
		return r
	}

	toks := lexer.ScanExpression(r.Content, r.ContentOffset)
	p := newParser(toks, scope)
	r.Expression = p.parseExpression()
	r.Dependencies = p.dependencies()
	r.Problems = append(r.Problems, p.problems...)
	ir.SortProblems(r.Problems)
	return r
}

// ParseContent parses an already classified expression body at offset.
// Imported bindings, which have no statement in the current document, are
// parsed this way.
func ParseContent(name, content string, offset int, scope Scope) Result {
	return Parse(Header{Name: name, Body: content, BodyOffset: offset, Valid: true}, scope)
}

func literalProblem(err error, text string, pos ir.Offsets) ir.Problem {
	if errors.Is(err, ErrOutOfRange) {
		return ir.NewProblem(ir.OutOfRangeValue, "value out of range "+quote(text), pos)
	}
	return ir.NewProblem(ir.UnexpectedToken, "invalid literal "+quote(text), pos)
}

func quote(s string) string {
	return `"` + s + `"`
}
