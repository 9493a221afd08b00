// Package controller implements the run controller: it submits editor contents
// to the execution service, tracks loading state and keeps the latest result
// for the output panel.
//
// Submissions may overlap. Every submission takes a token from a monotonically
// increasing counter and only the response to the most recently issued token is
// applied; responses to older submissions are discarded when they settle.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coderunr/editor/internal/executor"
	"github.com/coderunr/editor/internal/language"
	"github.com/coderunr/editor/internal/types"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedLanguage is returned for languages missing from the language table
var ErrUnsupportedLanguage = errors.New("unsupported language")

const (
	failureTitle    = "An error occurred."
	fallbackMessage = "Unable to run code"

	// DefaultNotificationDuration is how long failure notifications stay visible
	DefaultNotificationDuration = 6 * time.Second
)

// Notifier shows transient notifications to the user
type Notifier interface {
	Notify(n types.Notification)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(n types.Notification)

// Notify calls f(n)
func (f NotifierFunc) Notify(n types.Notification) {
	f(n)
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger used by the controller
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Controller) {
		c.logger = logger.WithField("component", "controller")
	}
}

// WithNotificationDuration sets the duration attached to failure notifications
func WithNotificationDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.duration = d
		}
	}
}

// Controller owns the run state of one editor session
type Controller struct {
	client   executor.Client
	notifier Notifier
	duration time.Duration
	logger   *logrus.Entry

	// publishMu serializes state transitions together with their delivery so
	// subscribers observe states in the order they were produced.
	publishMu sync.Mutex

	mu          sync.Mutex
	state       types.RunState
	latest      uint64
	pending     int
	subscribers map[int]func(types.RunState)
	nextSubID   int

	inflight sync.WaitGroup
}

// New creates a controller that runs code through client and reports
// failures through notifier. A nil notifier drops notifications.
func New(client executor.Client, notifier Notifier, opts ...Option) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(types.Notification) {})
	}

	c := &Controller{
		client:      client,
		notifier:    notifier,
		duration:    DefaultNotificationDuration,
		logger:      logrus.WithField("component", "controller"),
		subscribers: make(map[int]func(types.RunState)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns a copy of the current run state
func (c *Controller) State() types.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers fn to receive every state change. Subscribers must not
// call Submit synchronously.
func (c *Controller) Subscribe(fn func(types.RunState)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Submit runs request and blocks until it settles. Empty source code is
// ignored. Failures are reported to the notifier and returned; the previous
// result is kept.
func (c *Controller) Submit(ctx context.Context, request types.RunRequest) error {
	if request.SourceCode == "" {
		return nil
	}

	version, ok := language.Version(request.Language)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnsupportedLanguage, request.Language)
		c.logger.WithError(err).Error("Language missing from language table")
		c.notifyFailure(err)
		return err
	}

	token := c.begin()
	logger := c.logger.WithFields(logrus.Fields{
		"language": request.Language,
		"version":  version,
		"token":    token,
	})
	logger.Debug("Run submitted")

	response, err := c.client.Execute(ctx, types.ExecuteRequest{
		Language: request.Language,
		Version:  version,
		Files:    []types.FileData{{Content: request.SourceCode}},
		Stdin:    request.Stdin,
	})
	if err != nil {
		if c.finish(token, nil) {
			logger.WithError(err).Debug("Discarding failure of superseded run")
			return err
		}
		logger.WithError(err).Warn("Run failed")
		c.notifyFailure(err)
		return err
	}

	result := toResult(response)
	if c.finish(token, result) {
		logger.Debug("Discarding result of superseded run")
		return nil
	}

	logger.WithFields(logrus.Fields{
		"lines":    len(result.OutputLines),
		"is_error": result.IsError,
	}).Info("Run completed")

	return nil
}

// Trigger starts Submit in the background. This is the entry point for the
// run button and the keyboard shortcut.
func (c *Controller) Trigger(ctx context.Context, request types.RunRequest) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		_ = c.Submit(ctx, request)
	}()
}

// Wait blocks until every triggered submission has settled
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// begin issues a new token and marks the controller as loading
func (c *Controller) begin() uint64 {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	c.latest++
	token := c.latest
	c.pending++
	c.state.IsLoading = true
	snapshot, subs := c.snapshotLocked()
	c.mu.Unlock()

	publish(subs, snapshot)
	return token
}

// finish settles the submission identified by token. A nil result leaves the
// last result untouched. It reports whether the submission was superseded.
func (c *Controller) finish(token uint64, result *types.RunResult) (stale bool) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	c.pending--
	stale = token != c.latest
	if !stale && result != nil {
		c.state.LastResult = result
	}
	c.state.IsLoading = c.pending > 0
	snapshot, subs := c.snapshotLocked()
	c.mu.Unlock()

	publish(subs, snapshot)
	return stale
}

func (c *Controller) snapshotLocked() (types.RunState, []func(types.RunState)) {
	subs := make([]func(types.RunState), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return c.state.Clone(), subs
}

func publish(subs []func(types.RunState), state types.RunState) {
	for _, fn := range subs {
		fn(state.Clone())
	}
}

func (c *Controller) notifyFailure(err error) {
	message := fallbackMessage
	if err != nil && err.Error() != "" {
		message = err.Error()
	}

	c.notifier.Notify(types.Notification{
		Title:       failureTitle,
		Description: message,
		Status:      types.StatusError,
		Duration:    c.duration,
	})
}

// toResult converts a service response into display lines
func toResult(response *types.ExecuteResponse) *types.RunResult {
	lines := []string{}
	if response.Run.Output != "" {
		lines = strings.Split(response.Run.Output, "\n")
	}

	return &types.RunResult{
		OutputLines: lines,
		IsError:     response.Run.Stderr != "",
	}
}
