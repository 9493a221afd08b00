package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coderunr/editor/internal/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestExecute(t *testing.T) {
	var received types.ExecuteRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/piston/execute", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"language":"python","version":"3.10.0","run":{"stdout":"hi\n","stderr":"","output":"hi\n","code":0,"signal":null}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL+"/api/v2/piston/", time.Second, newTestLogger())
	resp, err := client.Execute(context.Background(), types.ExecuteRequest{
		Language: "python",
		Version:  "3.10.0",
		Files:    []types.FileData{{Content: "print('hi')"}},
		Stdin:    "input",
	})
	require.NoError(t, err)

	assert.Equal(t, "python", received.Language)
	assert.Equal(t, "3.10.0", received.Version)
	assert.Equal(t, []types.FileData{{Content: "print('hi')"}}, received.Files)
	assert.Equal(t, "input", received.Stdin)

	assert.Equal(t, "hi\n", resp.Run.Output)
	assert.Empty(t, resp.Run.Stderr)
	require.NotNil(t, resp.Run.Code)
	assert.Equal(t, 0, *resp.Run.Code)
}

func TestExecuteStatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json message", http.StatusBadRequest, `{"message":"python-9.9.9 runtime is unknown"}`, "python-9.9.9 runtime is unknown"},
		{"plain body", http.StatusBadGateway, "upstream down\n", "execution failed with status 502: upstream down"},
		{"empty body", http.StatusTooManyRequests, "", "execution failed with status 429"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewHTTPClient(srv.URL, time.Second, newTestLogger())
			_, err := client.Execute(context.Background(), types.ExecuteRequest{Language: "python"})
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestExecuteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"run":`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, newTestLogger())
	_, err := client.Execute(context.Background(), types.ExecuteRequest{Language: "python"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestExecuteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewHTTPClient(url, time.Second, newTestLogger())
	_, err := client.Execute(context.Background(), types.ExecuteRequest{Language: "python"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")
}

func TestRuntimes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/runtimes", r.URL.Path)
		w.Write([]byte(`[{"language":"python","version":"3.10.0","aliases":["py"]},{"language":"php","version":"8.2.3","aliases":[]}]`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second, newTestLogger())
	runtimes, err := client.Runtimes(context.Background())
	require.NoError(t, err)
	require.Len(t, runtimes, 2)
	assert.Equal(t, []string{"py"}, runtimes[0].Aliases)
	assert.Equal(t, "php", runtimes[1].Language)
}
