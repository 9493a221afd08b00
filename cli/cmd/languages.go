package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/coderunr/editor/internal/executor"
	"github.com/coderunr/editor/internal/language"
	"github.com/coderunr/editor/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// LanguageStatus is a language entry with its availability on the service
type LanguageStatus struct {
	types.LanguageInfo `yaml:",inline"`
	Available          *bool `json:"available,omitempty" yaml:"available,omitempty"`
}

func NewLanguagesCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:     "languages",
		Aliases: []string{"ls", "list"},
		Short:   "List the supported languages and their pinned versions",
		Long: `List every enabled language with the version sent to the execution service.

Examples:
  # List languages
  coderunr-editor languages

  # Verify the pinned versions against the execution service
  coderunr-editor languages --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			statuses := make([]LanguageStatus, 0)
			for _, lang := range language.All() {
				statuses = append(statuses, LanguageStatus{LanguageInfo: lang.Info(false)})
			}

			if check {
				url, _ := cmd.Flags().GetString("url")
				client := executor.NewHTTPClient(url, 30*time.Second, newLogger(cmd))

				runtimes, err := client.Runtimes(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to fetch runtimes: %w", err)
				}
				markAvailability(statuses, language.CheckRuntimes(runtimes))
			}

			if format != FormatAuto {
				return writeStructured(cmd.OutOrStdout(), format, statuses)
			}
			return printLanguages(cmd.OutOrStdout(), statuses)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check pinned versions against the execution service runtimes")

	return cmd
}

func markAvailability(statuses []LanguageStatus, missing []language.Language) {
	absent := make(map[string]bool, len(missing))
	for _, lang := range missing {
		absent[lang.ID] = true
	}
	for i := range statuses {
		available := !absent[statuses[i].ID]
		statuses[i].Available = &available
	}
}

func printLanguages(out io.Writer, statuses []LanguageStatus) error {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	bold.Fprintf(out, "Supported languages (%d):\n\n", len(statuses))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  LANGUAGE\tVERSION\tSTATUS")
	fmt.Fprintln(w, "  --------\t-------\t------")
	for _, s := range statuses {
		status := "-"
		if s.Available != nil {
			if *s.Available {
				status = green.Sprint("available")
			} else {
				status = red.Sprint("missing")
			}
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", s.ID, s.Version, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	missing := make([]string, 0)
	for _, s := range statuses {
		if s.Available != nil && !*s.Available {
			missing = append(missing, s.ID)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintln(out)
		red.Fprintf(out, "Not offered by the execution service: %s\n", strings.Join(missing, ", "))
	}
	return nil
}
