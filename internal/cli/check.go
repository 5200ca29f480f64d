package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/dotrain/internal/document"
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/position"
)

// ProblemReport is one problem with its line and column.
type ProblemReport struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Line and Character are one-based; Character counts UTF-16 units.
	Line      int    `json:"line"`
	Character int    `json:"character"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Binding   string `json:"binding,omitempty"`
}

// CheckResult is the check command's payload.
type CheckResult struct {
	File     string          `json:"file"`
	Hash     string          `json:"hash"`
	State    string          `json:"state"`
	Problems []ProblemReport `json:"problems"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.rain>",
		Short: "Parse a document and report its problems",
		Long: `Parse a .rain document, resolve its imports and report every problem
with its line and column.

Exit codes:
  0 - No problems
  1 - The document has problems
  2 - Command error (missing file, bad config, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	e, err := openEnv(opts, cmd.ErrOrStderr())
	if err != nil {
		return loadFailure(f, err)
	}
	defer e.Close()

	doc, err := e.parse(cmd.Context(), path)
	if err != nil {
		return loadFailure(f, err)
	}
	snap := doc.Snapshot()
	result := CheckResult{
		File:     path,
		Hash:     snap.Hash.String(),
		State:    snap.State.String(),
		Problems: problemReports(snap),
	}
	f.VerboseLog("%s: %d import(s), %d binding(s)", path, len(snap.Imports), len(snap.Bindings))

	if len(result.Problems) == 0 {
		if f.JSON() {
			return f.Success(result)
		}
		fmt.Fprintf(f.Writer, "✓ %s\n", path)
		return nil
	}

	code := ErrCodeProblems
	if snap.Fatal != nil {
		code = ErrCodeFatal
	}
	msg := fmt.Sprintf("%d problem(s)", len(result.Problems))
	if f.JSON() {
		if err := f.Failure(code, msg, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	fmt.Fprintf(f.Writer, "✗ %s: %s\n", path, msg)
	for _, p := range result.Problems {
		where := ""
		if p.Binding != "" {
			where = " (#" + p.Binding + ")"
		}
		fmt.Fprintf(f.Writer, "  %d:%d %s%s: %s\n", p.Line, p.Character, p.Code, where, p.Message)
	}
	return NewExitError(ExitFailure, msg)
}

// problemReports flattens the snapshot's problems in document order.
func problemReports(snap *document.Snapshot) []ProblemReport {
	ix := position.Build(snap)
	out := make([]ProblemReport, 0)
	add := func(p ir.Problem, binding string) {
		pos := ix.OffsetToPosition(p.Position.Start())
		out = append(out, ProblemReport{
			Code:      p.Code.String(),
			Message:   p.Message,
			Line:      pos.Line + 1,
			Character: pos.Character + 1,
			Start:     p.Position.Start(),
			End:       p.Position.End(),
			Binding:   binding,
		})
	}

	if snap.Fatal != nil {
		add(*snap.Fatal, "")
		return out
	}
	for _, p := range snap.Problems {
		add(p, "")
	}
	for _, b := range snap.Bindings {
		for _, p := range b.Problems {
			add(p, b.Name)
		}
	}
	slices.SortStableFunc(out, func(a, b ProblemReport) int { return a.Start - b.Start })
	return out
}
