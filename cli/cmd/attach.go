package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coderunr/editor/internal/display"
	"github.com/coderunr/editor/internal/handler"
	"github.com/coderunr/editor/internal/keyboard"
	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// DefaultServerURL is the default editor server address
const DefaultServerURL = "http://localhost:2001"

// sessionClient talks to the editor server's REST API
var sessionClient = &http.Client{Timeout: 10 * time.Second}

// settleDelay is how long to wait for a notification after a run settles
const settleDelay = 250 * time.Millisecond

// attachOptions configures a remote run through an editor session
type attachOptions struct {
	ServerURL string
	SessionID string
	Language  string
	Source    string
	Stdin     string
	Keep      bool
	Timeout   time.Duration
}

func NewAttachCommand() *cobra.Command {
	var (
		opts      attachOptions
		stdinText string
	)

	cmd := &cobra.Command{
		Use:   "attach <language> <file>",
		Short: "Run a file through an editor server session",
		Long: `Connect to an editor server, load a file into a session and press F9 in it.

The session is created for the run and removed afterwards unless --session
names an existing one or --keep is set.

Examples:
  # Run through a local editor server
  coderunr-editor attach python script.py

  # Reuse an open browser session
  coderunr-editor attach python script.py --session 3f1c...`,
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

			opts.Language = args[0]
			opts.Source = source
			opts.Stdin = stdinText

			view, err := attachAndRun(cmd.Context(), cmd.ErrOrStderr(), opts)
			if err != nil {
				return err
			}
			if err := writeView(cmd.OutOrStdout(), format, *view); err != nil {
				return err
			}
			if view.Tone == display.ToneError {
				return ErrProgramFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ServerURL, "server", "s", DefaultServerURL, "Editor server URL")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "Existing session ID")
	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "Keep a created session after the run")
	cmd.Flags().StringVar(&stdinText, "stdin-text", "", "Program input")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 90*time.Second, "Time to wait for the run to finish")

	return cmd
}

// attachAndRun drives a session over its WebSocket and returns the panel of the finished run
func attachAndRun(ctx context.Context, notices io.Writer, opts attachOptions) (*display.View, error) {
	if strings.TrimSpace(opts.Source) == "" {
		return nil, errors.New("nothing to run: source is empty")
	}

	baseURL := strings.TrimRight(opts.ServerURL, "/")
	id := opts.SessionID
	if id == "" {
		created, err := createSession(ctx, baseURL, opts.Language)
		if err != nil {
			return nil, err
		}
		id = created.ID
		if !opts.Keep {
			defer deleteSession(notices, baseURL, id)
		}
	}

	wsURL, err := convertToWebSocketURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL+"/api/v1/sessions/"+id+"/ws", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WebSocket: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	messages := make(chan handler.WSOutgoing, 10)
	go func() {
		defer close(messages)
		for {
			var msg handler.WSOutgoing
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case messages <- msg:
			case <-done:
				return
			}
		}
	}()

	requests := []handler.WSIncoming{
		{Type: "language", Language: opts.Language},
		{Type: "source", Content: opts.Source},
		{Type: "stdin", Content: opts.Stdin},
		{Type: "keydown", Key: string(keyboard.KeyF9)},
	}
	for _, request := range requests {
		if err := conn.WriteJSON(request); err != nil {
			return nil, fmt.Errorf("failed to send %s message: %w", request.Type, err)
		}
	}

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	var (
		started  bool
		finished *display.View
		failure  string
		settle   <-chan time.Time
	)
	result := func() (*display.View, error) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		if failure != "" {
			return finished, fmt.Errorf("execution failed: %s", failure)
		}
		return finished, nil
	}

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				if finished != nil {
					return result()
				}
				return nil, errors.New("connection closed before the run finished")
			}
			switch msg.Type {
			case "state":
				if msg.View == nil {
					continue
				}
				if msg.View.Busy {
					started = true
					continue
				}
				if started && finished == nil {
					// A failure notification follows its state update
					finished = msg.View
					settle = time.After(settleDelay)
				}
			case "notification":
				if msg.Notification != nil {
					writeNotification(notices, *msg.Notification)
					failure = msg.Notification.Description
					if finished != nil {
						return result()
					}
				}
			case "error":
				return nil, fmt.Errorf("server error: %s", msg.Message)
			}
		case <-settle:
			return result()
		case <-timer.C:
			return nil, fmt.Errorf("run did not finish within %s", opts.Timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func createSession(ctx context.Context, baseURL, lang string) (*handler.SessionResponse, error) {
	body, err := json.Marshal(handler.CreateSessionRequest{Language: lang})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sessionClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var created handler.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &created, nil
}

func deleteSession(notices io.Writer, baseURL, id string) {
	warn := color.New(color.FgYellow)

	req, err := http.NewRequest(http.MethodDelete, baseURL+"/api/v1/sessions/"+id, nil)
	if err != nil {
		warn.Fprintf(notices, "warning: failed to remove session %s: %v\n", id, err)
		return
	}

	resp, err := sessionClient.Do(req)
	if err != nil {
		warn.Fprintf(notices, "warning: failed to remove session %s: %v\n", id, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		warn.Fprintf(notices, "warning: failed to remove session %s: status %d\n", id, resp.StatusCode)
	}
}

func convertToWebSocketURL(httpURL string) (string, error) {
	u, err := url.Parse(httpURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}

	return u.String(), nil
}
