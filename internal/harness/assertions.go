package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/dotrain/internal/document"
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/namespace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Problems []ir.Problem
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Problems) > 0 {
		fmt.Fprintf(&buf, "\nProblems:\n")
		for i, p := range e.Problems {
			fmt.Fprintf(&buf, "  [%d] %s [%d,%d): %s\n", i+1, p.Code, p.Position[0], p.Position[1], p.Message)
		}
	}
	return buf.String()
}

// AssertionContext is what assertions are evaluated against.
type AssertionContext struct {
	Snapshot *document.Snapshot
	// Substitute replaces {{name}} placeholders; identity when nil.
	Substitute func(string) string
}

func (c *AssertionContext) substitute(s string) string {
	if c.Substitute == nil {
		return s
	}
	return c.Substitute(s)
}

// EvaluateAssertions evaluates all assertions against the snapshot.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertState:
			err = assertState(actx.Snapshot, a)
		case AssertNoProblems:
			err = assertNoProblems(actx.Snapshot)
		case AssertProblem:
			err = assertProblem(actx, a)
		case AssertBinding:
			err = assertBinding(actx.Snapshot, a)
		case AssertNamespace:
			err = assertNamespace(actx.Snapshot, a)
		case AssertCompose:
			err = assertCompose(actx.Snapshot, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertState(s *document.Snapshot, a Assertion) error {
	if s.State.String() != a.State {
		return &AssertionError{Type: AssertState, Expected: a.State, Actual: s.State.String(), Problems: s.AllProblems()}
	}
	return nil
}

func assertNoProblems(s *document.Snapshot) error {
	all := s.AllProblems()
	if s.Fatal != nil {
		all = append([]ir.Problem{*s.Fatal}, all...)
	}
	if len(all) > 0 {
		return &AssertionError{Type: AssertNoProblems, Expected: "no problems", Actual: fmt.Sprintf("%d problems", len(all)), Problems: all}
	}
	return nil
}

// assertProblem looks for a problem with the code whose range covers the
// first occurrence of At in the document.
func assertProblem(actx *AssertionContext, a Assertion) error {
	s := actx.Snapshot
	code, _ := ir.ParseErrorCode(a.Code)

	var candidates []ir.Problem
	switch {
	case s.Fatal != nil:
		candidates = []ir.Problem{*s.Fatal}
	case a.Binding != "":
		b, ok := s.Binding(a.Binding)
		if !ok {
			return &AssertionError{Type: AssertProblem, Expected: fmt.Sprintf("binding %q", a.Binding), Actual: "no such binding"}
		}
		candidates = b.Problems
	default:
		candidates = s.AllProblems()
	}

	at := ir.Offsets{-1, -1}
	if a.At != "" {
		text := actx.substitute(a.At)
		i := strings.Index(s.Text, text)
		if i < 0 {
			return fmt.Errorf("assertion problem: %q does not occur in the document", a.At)
		}
		at = ir.Offsets{i, i + len(text)}
	}

	for _, p := range candidates {
		if p.Code != code {
			continue
		}
		if at[0] < 0 || (p.Position.Start() <= at.Start() && at.End() <= p.Position.End()) {
			return nil
		}
	}
	expected := a.Code
	if a.At != "" {
		expected += fmt.Sprintf(" covering %q", a.At)
	}
	return &AssertionError{Type: AssertProblem, Expected: expected, Actual: "no matching problem", Problems: candidates}
}

func assertBinding(s *document.Snapshot, a Assertion) error {
	id, ok := s.Namespace.LookupPath(a.Name)
	if !ok {
		return &AssertionError{Type: AssertBinding, Expected: fmt.Sprintf("binding %q", a.Name), Actual: "not found"}
	}
	n := s.Namespace.Get(id)
	if n.Kind != namespace.BindingElement {
		return &AssertionError{Type: AssertBinding, Expected: fmt.Sprintf("binding %q", a.Name), Actual: n.Kind.String()}
	}
	b := n.Binding
	if a.BindingType != "" && b.Type.String() != a.BindingType {
		return &AssertionError{Type: AssertBinding, Expected: fmt.Sprintf("%q of type %s", a.Name, a.BindingType), Actual: b.Type.String()}
	}
	if a.Value != "" && b.Value != a.Value {
		return &AssertionError{Type: AssertBinding, Expected: fmt.Sprintf("%q = %s", a.Name, a.Value), Actual: b.Value}
	}
	if a.Dependencies != nil && !slices.Equal(b.Dependencies, a.Dependencies) {
		return &AssertionError{Type: AssertBinding, Expected: fmt.Sprintf("%q depends on %v", a.Name, a.Dependencies), Actual: fmt.Sprint(b.Dependencies)}
	}
	return nil
}

func assertNamespace(s *document.Snapshot, a Assertion) error {
	id, ok := s.Namespace.LookupPath(a.Path)
	if !ok {
		return &AssertionError{Type: AssertNamespace, Expected: fmt.Sprintf("node at %s", a.Path), Actual: "not found"}
	}
	if kind := s.Namespace.Get(id).Kind.String(); a.Kind != "" && kind != a.Kind {
		return &AssertionError{Type: AssertNamespace, Expected: fmt.Sprintf("%s at %s", a.Kind, a.Path), Actual: kind}
	}
	return nil
}

func assertCompose(s *document.Snapshot, a Assertion) error {
	p, err := s.Compose(a.Entrypoints...)
	if a.Code != "" {
		var problem *ir.Problem
		if !errors.As(err, &problem) {
			return &AssertionError{Type: AssertCompose, Expected: "failure " + a.Code, Actual: fmt.Sprintf("%v", err)}
		}
		if problem.Code.String() != a.Code {
			return &AssertionError{Type: AssertCompose, Expected: "failure " + a.Code, Actual: problem.Code.String()}
		}
		return nil
	}
	if err != nil {
		return &AssertionError{Type: AssertCompose, Expected: fmt.Sprint(a.Order), Actual: err.Error()}
	}
	var order []string
	for _, b := range p.Bindings {
		order = append(order, b.Name)
	}
	if !slices.Equal(order, a.Order) {
		return &AssertionError{Type: AssertCompose, Expected: fmt.Sprint(a.Order), Actual: fmt.Sprint(order)}
	}
	return nil
}
