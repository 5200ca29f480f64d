package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dotrain/internal/document"
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/namespace"
)

// Render writes a stable text report of a snapshot: state, imports,
// namespace and problems. Hashes found in names are printed as {{name}}.
// Problems are shown by the text they cover rather than their offsets or
// messages.
func Render(s *document.Snapshot, names map[ir.Hash]string) string {
	var b strings.Builder
	hash := func(h ir.Hash) string {
		if name, ok := names[h]; ok {
			return "{{" + name + "}}"
		}
		return h.String()
	}
	snippet := func(pos ir.Offsets) string {
		start, end := max(0, pos.Start()), min(len(s.Text), pos.End())
		if start > end {
			return `""`
		}
		text := s.Text[start:end]
		for h, name := range names {
			text = strings.ReplaceAll(text, h.String(), "{{"+name+"}}")
		}
		return fmt.Sprintf("%q", text)
	}

	fmt.Fprintf(&b, "state: %s\n", s.State)
	if s.Fatal != nil {
		fmt.Fprintf(&b, "fatal: %s %s\n", s.Fatal.Code, snippet(s.Fatal.Position))
		return b.String()
	}

	if len(s.Imports) > 0 {
		b.WriteString("imports:\n")
		for _, imp := range s.Imports {
			status := "unresolved"
			if imp.Resolved {
				status = imp.Kind.String()
			}
			fmt.Fprintf(&b, "  %s %s %s\n", imp.Name(), hash(imp.Hash), status)
		}
	}

	b.WriteString("namespace:\n")
	ns := s.Namespace
	if d, ok := ns.Deployer(namespace.Root); ok {
		fmt.Fprintf(&b, "  . deployer (%d words)\n", len(d.Words))
	}
	ns.Walk(func(path []string, n namespace.Node) bool {
		fmt.Fprintf(&b, "  .%s %s%s\n", namespace.JoinPath(path), n.Kind, describe(ns, n))
		return true
	})

	problems := s.Problems
	if len(problems) == 0 && len(s.BindingProblems()) == 0 {
		b.WriteString("problems: none\n")
		return b.String()
	}
	b.WriteString("problems:\n")
	for _, p := range problems {
		fmt.Fprintf(&b, "  %s %s\n", p.Code, snippet(p.Position))
	}
	for _, bind := range s.Bindings {
		for _, p := range bind.Problems {
			fmt.Fprintf(&b, "  %s: %s %s\n", bind.Name, p.Code, snippet(p.Position))
		}
	}
	return b.String()
}

func describe(ns *namespace.Namespace, n namespace.Node) string {
	switch n.Kind {
	case namespace.Branch:
		if _, ok := ns.Deployer(n.ID); ok {
			return " deployer"
		}
	case namespace.BindingElement:
		b := n.Binding
		switch b.Type {
		case namespace.Constant:
			return " constant " + b.Value
		case namespace.Elided:
			return fmt.Sprintf(" elided %q", b.Message)
		default:
			if len(b.Dependencies) == 0 {
				return " expression"
			}
			return " expression [" + strings.Join(b.Dependencies, " ") + "]"
		}
	case namespace.DeployerElement:
		return fmt.Sprintf(" (%d words)", len(n.Deployer.Words))
	}
	return ""
}

// RunWithGolden executes a scenario, fails the test on assertion errors,
// and compares its report with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares a result's report with a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, GoldenData(scenarioName, result))
}

// GoldenData is the golden file content for a scenario result.
func GoldenData(scenarioName string, result *Result) []byte {
	return []byte("scenario: " + scenarioName + "\n" + result.Report)
}
