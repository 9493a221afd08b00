// Package session binds an editor buffer, a run controller and a keyboard bus
// into one editor session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coderunr/editor/internal/controller"
	"github.com/coderunr/editor/internal/executor"
	"github.com/coderunr/editor/internal/keyboard"
	"github.com/coderunr/editor/internal/types"
	"github.com/sirupsen/logrus"
)

// ErrClosed is returned when a run is requested on a closed session
var ErrClosed = errors.New("session closed")

// Options configures new sessions
type Options struct {
	Language             string
	NotificationDuration time.Duration
	Logger               *logrus.Logger
}

// Session is one editor view: buffer, controller and keyboard
type Session struct {
	ID        string
	CreatedAt time.Time

	Buffer     *Buffer
	Controller *controller.Controller
	Keys       *keyboard.Bus

	notifications *broadcaster
	logger        *logrus.Entry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New creates a session that runs code through client
func New(id string, client executor.Client, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	buffer, err := NewBuffer(opts.Language)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:            id,
		CreatedAt:     time.Now(),
		Buffer:        buffer,
		Keys:          keyboard.NewBus(),
		notifications: &broadcaster{subs: make(map[int]func(types.Notification))},
		logger:        logger.WithFields(logrus.Fields{"component": "session", "session_id": id}),
		done:          make(chan struct{}),
	}

	s.Controller = controller.New(client, s.notifications,
		controller.WithLogger(logger),
		controller.WithNotificationDuration(opts.NotificationDuration),
	)

	return s, nil
}

// Run submits the current buffer contents and waits for the result
func (s *Session) Run(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return s.Controller.Submit(ctx, s.Buffer.Request())
}

// Trigger submits the current buffer contents in the background. It does
// nothing once the session is closed.
func (s *Session) Trigger() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.logger.Debug("Ignoring run on closed session")
		return
	}
	s.Controller.Trigger(context.Background(), s.Buffer.Request())
}

// Mount attaches the session's keyboard shortcut. F9 triggers a run with the
// buffer contents at the time of the key press. The returned function detaches
// it; in-flight runs are not affected.
func (s *Session) Mount() (unmount func()) {
	s.logger.Debug("Session mounted")
	remove := s.Keys.Listen(func(ev keyboard.Event) {
		if ev.Key == keyboard.KeyF9 {
			s.Trigger()
		}
	})

	return func() {
		remove()
		s.logger.Debug("Session unmounted")
	}
}

// Notifications registers fn for every notification the session raises
func (s *Session) Notifications(fn func(types.Notification)) (unsubscribe func()) {
	return s.notifications.subscribe(fn)
}

// Done is closed when the session is closed. Attached views detach on it.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close stops accepting runs and waits for in-flight runs to settle
func (s *Session) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.mu.Unlock()

	s.Controller.Wait()
}

// broadcaster fans notifications out to subscribers
type broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]func(types.Notification)
	nextID int
}

func (b *broadcaster) Notify(n types.Notification) {
	b.mu.RLock()
	subs := make([]func(types.Notification), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(n)
	}
}

func (b *broadcaster) subscribe(fn func(types.Notification)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
