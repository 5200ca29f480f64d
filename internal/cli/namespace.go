package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dotrain/internal/namespace"
)

// NamespaceOptions holds flags for the namespace command.
type NamespaceOptions struct {
	*RootOptions
	Export string // write the namespace payload to this file
}

// NamespaceEntry is one node of a listed namespace.
type NamespaceEntry struct {
	Path         string   `json:"path"`
	Kind         string   `json:"kind"`
	Type         string   `json:"type,omitempty"`
	Value        string   `json:"value,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Words        int      `json:"words,omitempty"`
	Origin       string   `json:"origin,omitempty"`
}

// NewNamespaceCommand creates the namespace command.
func NewNamespaceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NamespaceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "namespace <file.rain>",
		Short: "List the namespace a document builds",
		Long: `Parse a .rain document and list every node of its namespace,
imported nodes included.

With --export the namespace is also written as a namespace payload that
can be added to the registry and imported by hash.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNamespace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Export, "export", "o", "", "write the namespace payload to a file")

	return cmd
}

func runNamespace(opts *NamespaceOptions, path string, cmd *cobra.Command) error {
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
	snap := doc.Snapshot()
	if snap.Fatal != nil {
		_ = f.Error(ErrCodeFatal, snap.Fatal.Message, nil)
		return NewExitError(ExitFailure, snap.Fatal.Message)
	}

	ns := snap.Namespace
	if opts.Export != "" {
		data, err := namespace.Encode(ns)
		if err != nil {
			_ = f.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, "encode namespace", err)
		}
		if err := os.WriteFile(opts.Export, data, 0644); err != nil {
			_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write namespace", err)
		}
		f.VerboseLog("namespace written to %s", opts.Export)
	}

	entries := namespaceEntries(ns)
	if f.JSON() {
		return f.Success(entries)
	}
	for _, en := range entries {
		fmt.Fprintf(f.Writer, ".%s %s", en.Path, en.Kind)
		switch {
		case en.Type == namespace.Constant.String():
			fmt.Fprintf(f.Writer, " = %s", en.Value)
		case en.Type != "":
			fmt.Fprintf(f.Writer, " %s", en.Type)
		case en.Words > 0:
			fmt.Fprintf(f.Writer, " (%d words)", en.Words)
		}
		if en.Origin != "" {
			fmt.Fprintf(f.Writer, " from %s", en.Origin)
		}
		fmt.Fprintln(f.Writer)
	}
	return nil
}

func namespaceEntries(ns *namespace.Namespace) []NamespaceEntry {
	entries := make([]NamespaceEntry, 0, ns.Len())
	ns.Walk(func(path []string, n namespace.Node) bool {
		en := NamespaceEntry{Path: namespace.JoinPath(path), Kind: n.Kind.String()}
		if !n.Origin.IsZero() {
			en.Origin = n.Origin.String()
		}
		switch n.Kind {
		case namespace.BindingElement:
			en.Type = n.Binding.Type.String()
			en.Value = n.Binding.Value
			en.Dependencies = n.Binding.Dependencies
		case namespace.DeployerElement:
			en.Words = len(n.Deployer.Words)
		case namespace.Branch:
			if n.Deployer != nil {
				en.Words = len(n.Deployer.Words)
			}
		}
		entries = append(entries, en)
		return true
	})
	return entries
}
