package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/coderunr/editor/internal/display"
	"github.com/coderunr/editor/internal/types"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DefaultExecutionURL is the public Piston endpoint
const DefaultExecutionURL = "https://emkc.org/api/v2/piston"

// Output formats accepted by --output
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want auto, json or yaml)", format)
	}
}

// writeStructured encodes v as JSON or YAML
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(v)
	}
	return fmt.Errorf("unsupported structured format %q", format)
}

// writeView prints a projected output panel in the requested format
func writeView(w io.Writer, format string, view display.View) error {
	if format != FormatAuto {
		return writeStructured(w, format, view)
	}
	_, err := fmt.Fprintln(w, display.RenderTerminal(view))
	return err
}

// writeNotification prints a toast-style message
func writeNotification(w io.Writer, n types.Notification) {
	label := color.New(color.FgRed, color.Bold)
	if n.Status != types.StatusError {
		label = color.New(color.FgCyan, color.Bold)
	}
	label.Fprint(w, n.Title)
	fmt.Fprintf(w, " %s\n", n.Description)
}

// newLogger builds the CLI logger; it stays quiet unless --verbose is set
func newLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func readSource(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return string(content), nil
}
