// Package cli provides the command-line interface for drover.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddVersionCommand adds the version command to the root command.
func AddVersionCommand(parent *cobra.Command, info BuildInfo) {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), formatVersion(info))
			return err
		},
	}
	parent.AddCommand(cmd)
}
