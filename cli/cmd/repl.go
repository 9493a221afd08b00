package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/coderunr/editor/internal/display"
	"github.com/coderunr/editor/internal/executor"
	"github.com/coderunr/editor/internal/keyboard"
	"github.com/coderunr/editor/internal/session"
	"github.com/coderunr/editor/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func NewReplCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "repl <language> [file]",
		Short: "Edit and run code interactively",
		Long: `Start an interactive editor session. Typed lines are appended to the
source buffer; press F9 or enter /run to run it.

Commands:
  /run            Run the buffer
  /input <text>   Set program input (\n for newlines)
  /lang <id>      Switch language and load its snippet
  /load <file>    Replace the buffer with a file
  /show           Print the buffer
  /clear          Empty the buffer
  /help           Show this help
  /quit           Exit`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			logger := newLogger(cmd)

			sess, err := session.New("repl", executor.NewHTTPClient(url, timeout, logger), session.Options{
				Language: args[0],
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			defer sess.Close()

			if len(args) == 2 {
				source, err := readSource(args[1])
				if err != nil {
					return err
				}
				sess.Buffer.SetSource(source)
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "\033[36mcode>\033[0m ",
				HistoryFile:     os.TempDir() + "/coderunr_editor_history",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdin:           readline.NewCancelableStdin(keyboard.NewReader(os.Stdin, sess.Keys)),
			})
			if err != nil {
				return fmt.Errorf("readline: %w", err)
			}
			defer rl.Close()

			r := newRepl(sess, rl.Stdout())
			detach := r.attach()
			defer detach()

			fmt.Fprintf(rl.Stdout(), "Editing %s. Press F9 or enter /run to run, /help for commands.\n\n",
				sess.Buffer.Contents().Language)

			for {
				line, err := rl.Readline()
				if err != nil {
					if err == readline.ErrInterrupt || err == io.EOF {
						fmt.Fprintln(rl.Stdout(), "Goodbye!")
						return nil
					}
					return err
				}
				if r.handleLine(line) {
					return nil
				}
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Execution request timeout")

	return cmd
}

// repl drives a session from line input
type repl struct {
	sess *session.Session
	out  io.Writer

	mutex   sync.Mutex
	loading bool
}

func newRepl(sess *session.Session, out io.Writer) *repl {
	return &repl{sess: sess, out: out}
}

// attach mounts the F9 shortcut and starts printing results and notifications
func (r *repl) attach() (detach func()) {
	unmount := r.sess.Mount()
	unsubscribeState := r.sess.Controller.Subscribe(r.onState)
	unsubscribeNotes := r.sess.Notifications(func(n types.Notification) {
		writeNotification(r.out, n)
	})

	return func() {
		unsubscribeNotes()
		unsubscribeState()
		unmount()
	}
}

// onState prints the panel once the last pending run has finished
func (r *repl) onState(state types.RunState) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	wasLoading := r.loading
	r.loading = state.IsLoading

	view := display.Project(state)
	switch {
	case state.IsLoading && !wasLoading:
		color.New(color.Faint).Fprintln(r.out, display.RenderRunControl(view))
	case !state.IsLoading && wasLoading && view.HasResult:
		fmt.Fprintln(r.out, display.RenderTerminal(view))
	}
}

// handleLine applies one line of input and reports whether to quit
func (r *repl) handleLine(line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.appendSource(line)
		return false
	}

	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		fmt.Fprintln(r.out, "Goodbye!")
		return true
	case "/run":
		r.sess.Trigger()
	case "/input":
		r.sess.Buffer.SetStdin(strings.ReplaceAll(arg, `\n`, "\n"))
		fmt.Fprintln(r.out, "Input set.")
	case "/lang":
		if err := r.sess.Buffer.SetLanguage(arg); err != nil {
			color.New(color.FgRed).Fprintf(r.out, "error: %s\n", err)
			return false
		}
		fmt.Fprintf(r.out, "Switched to %s.\n", arg)
	case "/load":
		source, err := readSource(arg)
		if err != nil {
			color.New(color.FgRed).Fprintf(r.out, "error: %s\n", err)
			return false
		}
		r.sess.Buffer.SetSource(source)
		fmt.Fprintf(r.out, "Loaded %s.\n", arg)
	case "/show":
		contents := r.sess.Buffer.Contents()
		color.New(color.Bold).Fprintf(r.out, "%s:\n", contents.Language)
		for _, l := range strings.Split(contents.Source, "\n") {
			fmt.Fprintf(r.out, "  \033[90m│ %s\033[0m\n", l)
		}
	case "/clear":
		r.sess.Buffer.SetSource("")
		fmt.Fprintln(r.out, "Buffer cleared.")
	case "/help":
		fmt.Fprintln(r.out, "Commands: /run /input <text> /lang <id> /load <file> /show /clear /quit")
		fmt.Fprintln(r.out, "Other lines are appended to the buffer. F9 runs it.")
	default:
		fmt.Fprintf(r.out, "Unknown command: %s (try /help)\n", fields[0])
	}
	return false
}

func (r *repl) appendSource(line string) {
	source := r.sess.Buffer.Contents().Source
	if source != "" && !strings.HasSuffix(source, "\n") {
		source += "\n"
	}
	r.sess.Buffer.SetSource(source + line)
}
