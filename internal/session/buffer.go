package session

import (
	"fmt"
	"sync"

	"github.com/coderunr/editor/internal/controller"
	"github.com/coderunr/editor/internal/language"
	"github.com/coderunr/editor/internal/types"
)

// Contents is a point-in-time copy of the editor buffer
type Contents struct {
	Language string `json:"language"`
	Source   string `json:"source"`
	Stdin    string `json:"stdin"`
}

// Buffer holds the live editor and input text of a session
type Buffer struct {
	mu       sync.RWMutex
	language string
	source   string
	stdin    string
}

// NewBuffer creates a buffer for lang preloaded with its starter snippet
func NewBuffer(lang string) (*Buffer, error) {
	b := &Buffer{}
	if err := b.SetLanguage(lang); err != nil {
		return nil, err
	}
	return b, nil
}

// SetLanguage switches the language and replaces the source with the
// language's starter snippet
func (b *Buffer) SetLanguage(lang string) error {
	l, ok := language.Lookup(lang)
	if !ok {
		return fmt.Errorf("%w: %s", controller.ErrUnsupportedLanguage, lang)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.language = l.ID
	b.source = l.Snippet
	return nil
}

// SetSource replaces the editor text
func (b *Buffer) SetSource(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.source = source
}

// SetStdin replaces the input text
func (b *Buffer) SetStdin(stdin string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stdin = stdin
}

// Contents returns the current buffer contents
func (b *Buffer) Contents() Contents {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Contents{
		Language: b.language,
		Source:   b.source,
		Stdin:    b.stdin,
	}
}

// Request builds a run request from the current contents
func (b *Buffer) Request() types.RunRequest {
	c := b.Contents()
	return types.RunRequest{
		Language:   c.Language,
		SourceCode: c.Source,
		Stdin:      c.Stdin,
	}
}
