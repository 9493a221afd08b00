// Package executor talks to the remote Piston-compatible execution service.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coderunr/editor/internal/types"
	"github.com/sirupsen/logrus"
)

// Client executes source code remotely
type Client interface {
	Execute(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error)
}

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Body != "" {
		return fmt.Sprintf("execution failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("execution failed with status %d", e.StatusCode)
}

// HTTPClient is the HTTP implementation of Client
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Entry
}

// NewHTTPClient creates a client for the service rooted at baseURL, e.g.
// https://emkc.org/api/v2/piston. A zero timeout leaves requests unbounded.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.WithField("component", "executor"),
	}
}

// Execute submits a job and waits for its result
func (c *HTTPClient) Execute(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"language": request.Language,
		"version":  request.Version,
	}).Debug("Submitting execution request")

	var response types.ExecuteResponse
	if err := c.do(req, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Runtimes lists the runtimes installed on the service
func (c *HTTPClient) Runtimes(ctx context.Context) ([]types.Runtime, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/runtimes", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var runtimes []types.Runtime
	if err := c.do(req, &runtimes); err != nil {
		return nil, err
	}

	return runtimes, nil
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return newStatusError(resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func newStatusError(status int, body []byte) *StatusError {
	var payload types.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return &StatusError{StatusCode: status, Message: payload.Message}
	}
	return &StatusError{
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
}
