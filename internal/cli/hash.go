package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
)

// HashOptions holds flags for the hash command.
type HashOptions struct {
	*RootOptions
	Payload bool // hash the file as an encoded payload
}

// HashResult is the hash command's payload.
type HashResult struct {
	File string `json:"file"`
	Hash string `json:"hash"`
	Kind string `json:"kind"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the content hash a document is imported by",
		Long: `Print the hash other documents use to import a file.

By default the file is treated as .rain text and hashed as a dotrain
payload. With --payload the file is an already encoded payload and is
hashed as is.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Payload, "payload", false, "hash an encoded payload file")

	return cmd
}

func runHash(opts *HashOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	data, err := os.ReadFile(path)
	if err != nil {
		return loadFailure(f, &LoadError{Code: ErrCodeNotFound, Message: "read " + path, Err: err})
	}

	result := HashResult{File: path}
	if opts.Payload {
		p, err := meta.Decode(data)
		if err != nil {
			_ = f.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, "decode payload", err)
		}
		result.Hash = ir.ContentHash(data).String()
		result.Kind = p.Kind().String()
	} else {
		result.Hash = meta.DotrainHash(string(data)).String()
		result.Kind = meta.KindDotrain.String()
	}

	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintln(f.Writer, result.Hash)
	f.VerboseLog("%s: %s payload", path, result.Kind)
	return nil
}
