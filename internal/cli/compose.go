package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dotrain/internal/compiler"
	"github.com/roach88/dotrain/internal/ir"
)

// ComposeOptions holds flags for the compose command.
type ComposeOptions struct {
	*RootOptions
	Output string // write the composed text here instead of stdout
}

// ComposedBinding is one binding of a composed program.
type ComposedBinding struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Content      string   `json:"content,omitempty"`
	Value        string   `json:"value,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// ComposeResult is the compose command's payload.
type ComposeResult struct {
	Entrypoints []string          `json:"entrypoints"`
	Bindings    []ComposedBinding `json:"bindings"`
	Text        string            `json:"text"`
}

// NewComposeCommand creates the compose command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compose <file.rain> <entrypoint>...",
		Short: "Compose the bindings reachable from entrypoints",
		Long: `Compose a document into a flat program: every binding reachable from
the entrypoints, each after its dependencies.

Entrypoints are namespace paths such as "main" or "lib.fee".`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func runCompose(opts *ComposeOptions, path string, entrypoints []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	e, err := openEnv(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return loadFailure(f, err)
	}
	defer e.Close()

	doc, err := e.parse(cmd.Context(), path)
	if err != nil {
		return loadFailure(f, err)
	}

	prog, err := doc.Compose(entrypoints...)
	if err != nil {
		var p *ir.Problem
		if errors.As(err, &p) {
			_ = f.Error(ErrCodeCompose, p.Message, map[string]any{"code": p.Code.String(), "position": p.Position})
		} else {
			_ = f.Error(ErrCodeCompose, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "compose failed", err)
	}

	result := composeResult(prog)
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Text+"\n"), 0644); err != nil {
			_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write output", err)
		}
		f.VerboseLog("wrote %d binding(s) to %s", len(result.Bindings), opts.Output)
		if f.JSON() {
			return f.Success(result)
		}
		fmt.Fprintf(f.Writer, "✓ Composed %d binding(s) to %s\n", len(result.Bindings), opts.Output)
		return nil
	}

	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintln(f.Writer, result.Text)
	return nil
}

func composeResult(prog *compiler.Program) ComposeResult {
	out := ComposeResult{
		Entrypoints: prog.Entrypoints,
		Bindings:    make([]ComposedBinding, 0, len(prog.Bindings)),
		Text:        prog.Text(),
	}
	for _, b := range prog.Bindings {
		out.Bindings = append(out.Bindings, ComposedBinding{
			Name:         b.Name,
			Type:         b.Type.String(),
			Content:      b.Content,
			Value:        b.Value,
			Dependencies: b.Dependencies,
		})
	}
	return out
}
