package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the CLI
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coderunr-editor",
		Short:         "CodeRunr Editor CLI - Run code through a Piston-compatible service",
		Long:          `A command line front-end for the CodeRunr Editor: run files, browse languages and drive editor sessions.`,
		Version:       fmt.Sprintf("%s (%s) built at %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("url", "u", DefaultExecutionURL, "Execution service URL")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", FormatAuto, "Output format (auto, json, yaml)")

	rootCmd.AddCommand(
		NewRunCommand(),
		NewLanguagesCommand(),
		NewSnippetCommand(),
		NewReplCommand(),
		NewAttachCommand(),
		NewVersionCommand(version),
	)

	return rootCmd
}
