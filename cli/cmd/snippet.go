package cmd

import (
	"fmt"

	"github.com/coderunr/editor/internal/language"
	"github.com/spf13/cobra"
)

func NewSnippetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippet <language>",
		Short: "Print the starter snippet for a language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snippet, ok := language.Snippet(args[0])
			if !ok {
				return fmt.Errorf("unsupported language %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), snippet)
			return nil
		},
	}

	return cmd
}
