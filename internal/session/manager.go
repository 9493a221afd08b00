package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coderunr/editor/internal/executor"
	"github.com/google/uuid"
)

// Manager tracks the live editor sessions of the server
type Manager struct {
	client executor.Client
	opts   Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager whose sessions share client and opts
func NewManager(client executor.Client, opts Options) *Manager {
	return &Manager{
		client:   client,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session. An empty lang uses the default language.
func (m *Manager) Create(lang string) (*Session, error) {
	opts := m.opts
	if lang != "" {
		opts.Language = lang
	}

	s, err := New(uuid.NewString(), m.client, opts)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, nil
}

// Get returns the session with id
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns all sessions, oldest first
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Remove closes and forgets the session with id
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// CloseAll closes every session
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
