package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/coderunr/editor/cli/cmd"
)

var (
	version = "1.0.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := cmd.NewRootCommand(version, commit, date).Execute(); err != nil {
		// The panel already shows the program's own error output
		if !errors.Is(err, cmd.ErrProgramFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
