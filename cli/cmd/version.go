package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewVersionCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for the CodeRunr Editor CLI.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "CodeRunr Editor CLI v%s\n", version)
			fmt.Fprintln(cmd.OutOrStdout(), "Compatible with Piston API v2")
		},
	}

	return cmd
}
