package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dotrain/internal/ir"
)

// VersionInfo is the version command's payload.
type VersionInfo struct {
	Version       string `json:"version"`
	FormatVersion string `json:"format_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tool version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			info := VersionInfo{Version: ir.Version, FormatVersion: ir.FormatVersion}
			if f.JSON() {
				return f.Success(info)
			}
			fmt.Fprintf(f.Writer, "rain %s (namespace format %s)\n", info.Version, info.FormatVersion)
			return nil
		},
	}
}
