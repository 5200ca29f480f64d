package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/dotrain/internal/config"
	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/resolver"
)

// MetaOptions holds flags shared by the meta subcommands.
type MetaOptions struct {
	*RootOptions
	Registry string // overrides the configured registry path
}

// MetaEntry describes one payload.
type MetaEntry struct {
	Hash  string   `json:"hash"`
	Kind  string   `json:"kind"`
	Size  int      `json:"size"`
	Words []string `json:"words,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// NewMetaCommand creates the meta command and its subcommands.
func NewMetaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MetaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Manage payloads in the local registry",
		Long: `Add, fetch and list the hash-addressed payloads that documents import.

The registry is the sqlite database named by the config's registry field
or by --registry.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Registry, "registry", "", "registry database path")

	cmd.AddCommand(newMetaAddCommand(opts))
	cmd.AddCommand(newMetaGetCommand(opts))
	cmd.AddCommand(newMetaListCommand(opts))
	return cmd
}

func (o *MetaOptions) override(cfg *config.Config) {
	if o.Registry != "" {
		cfg.Registry = o.Registry
	}
}

// openRegistryEnv is openEnv for commands that need a registry.
func (o *MetaOptions) openRegistryEnv(cmd *cobra.Command) (*env, error) {
	e, err := openEnv(o.RootOptions, cmd.ErrOrStderr(), o.override)
	if err != nil {
		return nil, err
	}
	if e.registry == nil {
		return nil, &LoadError{Code: ErrCodeRegistry, Message: "no registry configured (set registry in the config or pass --registry)"}
	}
	return e, nil
}

func newMetaAddCommand(opts *MetaOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "Add files to the registry",
		Long: `Add files to the registry and print their hashes.

.rain files are encoded as dotrain payloads. Other files must already be
encoded payloads unless --raw is given, in which case they are stored as
is.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
			e, err := opts.openRegistryEnv(cmd)
			if err != nil {
				return loadFailure(f, err)
			}
			defer e.Close()

			added := make([]MetaEntry, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return loadFailure(f, &LoadError{Code: ErrCodeNotFound, Message: "read " + path, Err: err})
				}
				if filepath.Ext(path) == ".rain" && !raw {
					data = meta.EncodeDotrain(string(data))
				}
				hash, err := e.registry.Put(cmd.Context(), data)
				if err != nil {
					_ = f.Error(ErrCodeRegistry, err.Error(), map[string]string{"file": path})
					return WrapExitError(ExitFailure, "add "+path, err)
				}
				e.logger.Debug("payload added", "file", path, "hash", hash)
				added = append(added, describePayload(hash, data))
			}

			if f.JSON() {
				return f.Success(added)
			}
			for i, en := range added {
				fmt.Fprintf(f.Writer, "%s %s %s\n", en.Hash, en.Kind, args[i])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "store files byte for byte")
	return cmd
}

func newMetaGetCommand(opts *MetaOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "get <hash>",
		Short: "Resolve a hash and describe its payload",
		Long: `Resolve a hash through the registry and the configured subgraphs and
describe the payload. With --output the raw payload is written to a file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
			hash, err := ir.ParseHash(args[0])
			if err != nil {
				_ = f.Error(ErrCodeInvalidHash, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid hash", err)
			}
			e, err := openEnv(opts.RootOptions, cmd.ErrOrStderr(), opts.override)
			if err != nil {
				return loadFailure(f, err)
			}
			defer e.Close()

			data, err := e.cache.Update(cmd.Context(), hash)
			if err != nil {
				code := ErrCodeResolve
				if !errors.Is(err, resolver.ErrNotFound) {
					code = ErrCodeGeneric
				}
				_ = f.Error(code, err.Error(), nil)
				return WrapExitError(ExitFailure, "resolve "+hash.String(), err)
			}
			if out != "" {
				if err := os.WriteFile(out, data, 0644); err != nil {
					_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
					return WrapExitError(ExitCommandError, "write payload", err)
				}
			}

			en := describePayload(hash, data)
			if f.JSON() {
				return f.Success(en)
			}
			fmt.Fprintf(f.Writer, "%s %s %d bytes\n", en.Hash, en.Kind, en.Size)
			for _, w := range en.Words {
				fmt.Fprintf(f.Writer, "  %s\n", w)
			}
			if en.Text != "" {
				fmt.Fprintln(f.Writer, en.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the payload to a file")
	return cmd
}

func newMetaListCommand(opts *MetaOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the registry's payloads",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
			e, err := opts.openRegistryEnv(cmd)
			if err != nil {
				return loadFailure(f, err)
			}
			defer e.Close()

			entries, err := e.registry.List(cmd.Context())
			if err != nil {
				_ = f.Error(ErrCodeRegistry, err.Error(), nil)
				return WrapExitError(ExitFailure, "list registry", err)
			}
			list := make([]MetaEntry, 0, len(entries))
			for _, en := range entries {
				list = append(list, MetaEntry{Hash: en.Hash.String(), Kind: en.Kind.String(), Size: len(en.Payload)})
			}

			if f.JSON() {
				return f.Success(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(f.Writer, "No payloads.")
				return nil
			}
			for _, en := range list {
				fmt.Fprintf(f.Writer, "%s %s %d\n", en.Hash, en.Kind, en.Size)
			}
			return nil
		},
	}
}

// describePayload summarizes a payload; undecodable bytes are reported as raw.
func describePayload(hash ir.Hash, data []byte) MetaEntry {
	en := MetaEntry{Hash: hash.String(), Kind: meta.KindRaw.String(), Size: len(data)}
	p, err := meta.Decode(data)
	if err != nil {
		return en
	}
	en.Kind = p.Kind().String()
	switch p := p.(type) {
	case *meta.Dotrain:
		en.Text = p.Text
	case *meta.Words:
		en.Words = wordNames(p.Words)
	case *meta.Deployer:
		en.Words = wordNames(p.Words)
	}
	return en
}

func wordNames(words []meta.Word) []string {
	names := make([]string, len(words))
	for i, w := range words {
		names[i] = w.Name
	}
	return names
}
