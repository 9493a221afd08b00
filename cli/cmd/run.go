package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/coderunr/editor/internal/controller"
	"github.com/coderunr/editor/internal/display"
	"github.com/coderunr/editor/internal/executor"
	"github.com/coderunr/editor/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ErrProgramFailed is returned when the program wrote to stderr
var ErrProgramFailed = errors.New("program reported an error")

func NewRunCommand() *cobra.Command {
	var (
		readStdin bool
		stdinText string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:     "run <language> <file>",
		Aliases: []string{"execute", "exec"},
		Short:   "Run a source file with its pinned language version",
		Long: `Run a source file through the execution service and show the output panel.

Examples:
  # Run a Python script
  coderunr-editor run python script.py

  # Pipe input to the program
  echo "Aegon" | coderunr-editor run javascript hello.js -i

  # Print the panel as JSON
  coderunr-editor run java Main.java --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			source, err := readSource(args[1])
			if err != nil {
				return err
			}

			stdin := stdinText
			if readStdin {
				input, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				stdin = string(input)
			}

			url, _ := cmd.Flags().GetString("url")
			logger := newLogger(cmd)
			client := executor.NewHTTPClient(url, timeout, logger)

			return runOnce(cmd, client, format, types.RunRequest{
				Language:   args[0],
				SourceCode: source,
				Stdin:      stdin,
			})
		},
	}

	cmd.Flags().BoolVarP(&readStdin, "stdin", "i", false, "Read program input from stdin")
	cmd.Flags().StringVar(&stdinText, "stdin-text", "", "Program input")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Execution request timeout")

	return cmd
}

// runOnce submits a single request and prints the resulting panel
func runOnce(cmd *cobra.Command, client executor.Client, format string, request types.RunRequest) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	ctrl := controller.New(client, controller.NotifierFunc(func(n types.Notification) {
		writeNotification(errOut, n)
	}), controller.WithLogger(newLogger(cmd)))

	if format == FormatAuto {
		unsubscribe := ctrl.Subscribe(func(state types.RunState) {
			if state.IsLoading {
				color.New(color.Faint).Fprintln(errOut, "Running...")
			}
		})
		defer unsubscribe()
	}

	err := ctrl.Submit(cmd.Context(), request)
	if errors.Is(err, controller.ErrUnsupportedLanguage) {
		return err
	}

	view := display.Project(ctrl.State())
	if writeErr := writeView(out, format, view); writeErr != nil {
		return writeErr
	}
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if view.Tone == display.ToneError {
		return ErrProgramFailed
	}
	return nil
}
