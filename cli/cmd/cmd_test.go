package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coderunr/editor/internal/display"
	"github.com/coderunr/editor/internal/executor"
	"github.com/coderunr/editor/internal/handler"
	"github.com/coderunr/editor/internal/session"
	"github.com/coderunr/editor/internal/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// newPiston fakes the execution service
func newPiston(t *testing.T, execute func(types.ExecuteRequest) types.ExecuteResponse) (*httptest.Server, *[]types.ExecuteRequest) {
	t.Helper()

	var (
		mutex    sync.Mutex
		requests []types.ExecuteRequest
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/execute", func(w http.ResponseWriter, r *http.Request) {
		var request types.ExecuteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		mutex.Lock()
		requests = append(requests, request)
		mutex.Unlock()
		json.NewEncoder(w).Encode(execute(request))
	})
	mux.HandleFunc("/runtimes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]types.Runtime{
			{Language: "python", Version: "3.10.0", Aliases: []string{"py"}},
			{Language: "javascript", Version: "18.15.0", Aliases: []string{"node-javascript", "js"}},
			{Language: "java", Version: "15.0.2"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func echoOutput(output, stderr string) func(types.ExecuteRequest) types.ExecuteResponse {
	return func(request types.ExecuteRequest) types.ExecuteResponse {
		return types.ExecuteResponse{
			Language: request.Language,
			Version:  request.Version,
			Run:      types.StageResult{Output: output, Stderr: stderr},
		}
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := NewRootCommand("test", "none", "today")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := t.TempDir() + "/" + name
	require.NoError(t, writeTestFile(path, content))
	return path
}

func TestRunCommand(t *testing.T) {
	piston, requests := newPiston(t, echoOutput("Hello, Aegon!\n", ""))
	file := writeFile(t, "main.py", "print('Hello, Aegon!')")

	stdout, _, err := execute(t, "run", "python", file, "--url", piston.URL, "--output", "json", "--stdin-text", "42")
	require.NoError(t, err)

	var view display.View
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, display.ToneSuccess, view.Tone)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "Hello, Aegon!", view.Lines[0].Text)
	assert.Equal(t, "", view.Lines[1].Text)

	require.Len(t, *requests, 1)
	sent := (*requests)[0]
	assert.Equal(t, "python", sent.Language)
	assert.Equal(t, "3.10.0", sent.Version)
	assert.Equal(t, "print('Hello, Aegon!')", sent.Files[0].Content)
	assert.Equal(t, "42", sent.Stdin)
}

func TestRunCommandReadsStdin(t *testing.T) {
	piston, requests := newPiston(t, echoOutput("ok", ""))
	file := writeFile(t, "main.js", "console.log('ok')")

	root := NewRootCommand("test", "none", "today")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("line one\nline two\n"))
	root.SetArgs([]string{"run", "javascript", file, "-i", "--url", piston.URL, "-o", "yaml"})

	require.NoError(t, root.Execute())
	require.Len(t, *requests, 1)
	assert.Equal(t, "line one\nline two\n", (*requests)[0].Stdin)
}

func TestRunCommandProgramError(t *testing.T) {
	piston, _ := newPiston(t, echoOutput("Traceback\nNameError", "NameError"))
	file := writeFile(t, "main.py", "prnt(1)")

	stdout, _, err := execute(t, "run", "python", file, "--url", piston.URL, "-o", "yaml")
	assert.ErrorIs(t, err, ErrProgramFailed)

	var view display.View
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, display.ToneError, view.Tone)
	assert.True(t, view.Bordered)
	assert.Len(t, view.Lines, 2)
}

func TestRunCommandUnsupportedLanguage(t *testing.T) {
	piston, requests := newPiston(t, echoOutput("", ""))
	file := writeFile(t, "main.cpp", "int main(){}")

	_, stderr, err := execute(t, "run", "cpp", file, "--url", piston.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
	assert.Contains(t, stderr, "An error occurred.")
	assert.Empty(t, *requests)
}

func TestRunCommandServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(types.ErrorResponse{Message: "runner exploded"})
	}))
	defer srv.Close()
	file := writeFile(t, "main.py", "print(1)")

	stdout, stderr, err := execute(t, "run", "python", file, "--url", srv.URL, "-o", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runner exploded")
	assert.Contains(t, stderr, "runner exploded")

	var view display.View
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.True(t, view.Placeholder)
}

func TestRunCommandBadOutputFormat(t *testing.T) {
	file := writeFile(t, "main.py", "print(1)")
	_, _, err := execute(t, "run", "python", file, "-o", "xml")
	assert.Error(t, err)
}

func TestLanguagesCommand(t *testing.T) {
	stdout, _, err := execute(t, "languages", "-o", "json")
	require.NoError(t, err)

	var statuses []LanguageStatus
	require.NoError(t, json.Unmarshal([]byte(stdout), &statuses))

	ids := make([]string, len(statuses))
	for i, s := range statuses {
		ids[i] = s.ID
		assert.Nil(t, s.Available)
	}
	assert.Equal(t, []string{"csharp", "java", "javascript", "php", "python", "typescript"}, ids)
}

func TestLanguagesCheck(t *testing.T) {
	piston, _ := newPiston(t, echoOutput("", ""))

	stdout, _, err := execute(t, "languages", "--check", "--url", piston.URL, "-o", "json")
	require.NoError(t, err)

	var statuses []LanguageStatus
	require.NoError(t, json.Unmarshal([]byte(stdout), &statuses))

	available := make(map[string]bool)
	for _, s := range statuses {
		require.NotNil(t, s.Available)
		available[s.ID] = *s.Available
	}
	assert.True(t, available["python"])
	assert.True(t, available["javascript"])
	assert.True(t, available["java"])
	assert.False(t, available["typescript"])
	assert.False(t, available["php"])
}

func TestLanguagesTable(t *testing.T) {
	stdout, _, err := execute(t, "languages")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Supported languages (6)")
	assert.Contains(t, stdout, "python")
	assert.Contains(t, stdout, "3.10.0")
	assert.NotContains(t, stdout, "cpp")
}

func TestSnippetCommand(t *testing.T) {
	stdout, _, err := execute(t, "snippet", "python")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Aegon")

	_, _, err = execute(t, "snippet", "cpp")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "CodeRunr Editor CLI vtest")
}

// lockedBuffer is written to by session goroutines
type lockedBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}

func newTestSession(t *testing.T, client executor.Client) *session.Session {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	sess, err := session.New("test", client, session.Options{Language: "python", Logger: logger})
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess
}

func TestReplEditsBuffer(t *testing.T) {
	sess := newTestSession(t, executor.ClientFunc(func(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
		return &types.ExecuteResponse{}, nil
	}))
	out := &lockedBuffer{}
	r := newRepl(sess, out)

	assert.False(t, r.handleLine("/clear"))
	assert.False(t, r.handleLine("x = input()"))
	assert.False(t, r.handleLine("print(x)"))
	assert.False(t, r.handleLine(`/input Aegon\nTargaryen`))

	contents := sess.Buffer.Contents()
	assert.Equal(t, "x = input()\nprint(x)", contents.Source)
	assert.Equal(t, "Aegon\nTargaryen", contents.Stdin)

	assert.False(t, r.handleLine("/lang java"))
	assert.Equal(t, "java", sess.Buffer.Contents().Language)
	assert.Contains(t, sess.Buffer.Contents().Source, "class")

	assert.False(t, r.handleLine("/lang cobol"))
	assert.Equal(t, "java", sess.Buffer.Contents().Language)
	assert.Contains(t, out.String(), "error:")

	assert.False(t, r.handleLine("/bogus"))
	assert.Contains(t, out.String(), "Unknown command: /bogus")

	assert.True(t, r.handleLine("/quit"))
}

func TestReplRunPrintsPanel(t *testing.T) {
	var (
		mutex sync.Mutex
		sent  []types.ExecuteRequest
	)
	sess := newTestSession(t, executor.ClientFunc(func(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
		mutex.Lock()
		sent = append(sent, request)
		mutex.Unlock()
		return &types.ExecuteResponse{Run: types.StageResult{Output: "Hello, Aegon!"}}, nil
	}))
	out := &lockedBuffer{}
	r := newRepl(sess, out)
	detach := r.attach()
	defer detach()

	r.handleLine("/run")
	sess.Controller.Wait()

	mutex.Lock()
	require.Len(t, sent, 1)
	assert.Equal(t, "3.10.0", sent[0].Version)
	mutex.Unlock()

	assert.Contains(t, out.String(), "Hello, Aegon!")
}

func TestReplNotifiesFailures(t *testing.T) {
	sess := newTestSession(t, executor.ClientFunc(func(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
		return nil, &executor.StatusError{StatusCode: http.StatusBadGateway, Message: "runner offline"}
	}))
	out := &lockedBuffer{}
	r := newRepl(sess, out)
	detach := r.attach()
	defer detach()

	r.handleLine("/run")
	sess.Controller.Wait()

	assert.Contains(t, out.String(), "An error occurred.")
	assert.Contains(t, out.String(), "runner offline")
}

func newEditorServer(t *testing.T, client executor.Client) (*httptest.Server, *session.Manager) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	sessions := session.NewManager(client, session.Options{Language: "python", Logger: logger})
	srv := httptest.NewServer(handler.NewHandler(sessions, logger).Router(1 << 20))
	t.Cleanup(func() {
		srv.Close()
		sessions.CloseAll()
	})
	return srv, sessions
}

func TestAttachRunsThroughSession(t *testing.T) {
	var (
		mutex sync.Mutex
		sent  []types.ExecuteRequest
	)
	srv, sessions := newEditorServer(t, executor.ClientFunc(func(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
		mutex.Lock()
		sent = append(sent, request)
		mutex.Unlock()
		return &types.ExecuteResponse{Run: types.StageResult{Output: "Hello, " + request.Stdin}}, nil
	}))

	view, err := attachAndRun(context.Background(), &bytes.Buffer{}, attachOptions{
		ServerURL: srv.URL,
		Language:  "javascript",
		Source:    "console.log('hi')",
		Stdin:     "Aegon",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Hello, Aegon", view.Lines[0].Text)
	assert.Equal(t, display.ToneSuccess, view.Tone)

	mutex.Lock()
	require.Len(t, sent, 1)
	assert.Equal(t, "javascript", sent[0].Language)
	assert.Equal(t, "18.15.0", sent[0].Version)
	assert.Equal(t, "console.log('hi')", sent[0].Files[0].Content)
	mutex.Unlock()

	assert.Eventually(t, func() bool { return len(sessions.List()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestAttachReportsFailure(t *testing.T) {
	srv, sessions := newEditorServer(t, executor.ClientFunc(func(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
		return nil, &executor.StatusError{StatusCode: http.StatusServiceUnavailable, Message: "queue full"}
	}))

	existing, err := sessions.Create("python")
	require.NoError(t, err)

	notices := &bytes.Buffer{}
	view, err := attachAndRun(context.Background(), notices, attachOptions{
		ServerURL: srv.URL,
		SessionID: existing.ID,
		Language:  "python",
		Source:    "print(1)",
		Timeout:   5 * time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
	assert.Contains(t, notices.String(), "queue full")
	require.NotNil(t, view)
	assert.True(t, view.Placeholder)

	_, ok := sessions.Get(existing.ID)
	assert.True(t, ok)
}

func TestAttachRejectsUnknownLanguage(t *testing.T) {
	srv, _ := newEditorServer(t, executor.ClientFunc(func(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
		return &types.ExecuteResponse{}, nil
	}))

	_, err := attachAndRun(context.Background(), &bytes.Buffer{}, attachOptions{
		ServerURL: srv.URL,
		Language:  "cobol",
		Source:    "DISPLAY 'HI'.",
		Timeout:   5 * time.Second,
	})
	assert.Error(t, err)
}

func TestAttachEmptySource(t *testing.T) {
	_, err := attachAndRun(context.Background(), &bytes.Buffer{}, attachOptions{
		ServerURL: "http://127.0.0.1:1",
		Language:  "python",
		Source:    "  \n",
	})
	assert.ErrorContains(t, err, "nothing to run")
}

func TestAttachCommandKeepsStructuredOutputClean(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	sessions := session.NewManager(executor.ClientFunc(func(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
		return &types.ExecuteResponse{Run: types.StageResult{Output: "Hello, Aegon!"}}, nil
	}), session.Options{Language: "python", Logger: logger})
	router := handler.NewHandler(sessions, logger).Router(1 << 20)

	// Session cleanup fails on this server
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		sessions.CloseAll()
	})

	file := writeFile(t, "main.py", "print('Hello, Aegon!')")
	stdout, stderr, err := execute(t, "attach", "python", file, "--server", srv.URL, "-o", "json")
	require.NoError(t, err)

	var view display.View
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Hello, Aegon!", view.Lines[0].Text)
	assert.Contains(t, stderr, "warning: failed to remove session")
	assert.Contains(t, stderr, "status 500")
}

func TestDeleteSessionWarnings(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"removed", http.StatusNoContent, ""},
		{"already gone", http.StatusNotFound, ""},
		{"server error", http.StatusInternalServerError, "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/api/v1/sessions/abc", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			notices := &bytes.Buffer{}
			deleteSession(notices, srv.URL, "abc")
			if tt.want == "" {
				assert.Empty(t, notices.String())
				return
			}
			assert.Contains(t, notices.String(), tt.want)
		})
	}

	notices := &bytes.Buffer{}
	deleteSession(notices, "http://127.0.0.1:1", "abc")
	assert.Contains(t, notices.String(), "warning: failed to remove session abc")
}

func TestSessionClientHasTimeout(t *testing.T) {
	assert.Positive(t, sessionClient.Timeout)
}

func TestConvertToWebSocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:2001", "ws://localhost:2001", false},
		{"https://editor.example.com/base", "wss://editor.example.com/base", false},
		{"ws://localhost:2001", "ws://localhost:2001", false},
		{"ftp://localhost", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := convertToWebSocketURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
