// Package keyboard dispatches key presses to whichever views are listening,
// the way a document-level keydown listener does in a browser.
package keyboard

import (
	"sync"
)

// Key names a key the way KeyboardEvent.key does
type Key string

const (
	KeyF9    Key = "F9"
	KeyEnter Key = "Enter"
)

// Event is a single key press
type Event struct {
	Key Key `json:"key"`
}

// Handler receives key events
type Handler func(ev Event)

// Bus fans key events out to registered handlers
type Bus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[int]Handler),
	}
}

// Listen registers h. The returned function removes it and is safe to call
// more than once.
func (b *Bus) Listen(h Handler) (remove func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Dispatch delivers ev to every registered handler
func (b *Bus) Dispatch(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Len returns the number of registered handlers
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
