package registry

import (
	"sync"

	"github.com/dgallion1/texchunk/internal/doctree"
)

// Session serializes access to a Registry for hosts with concurrent callers,
// such as the HTTP API and the import workers.
type Session struct {
	mu  sync.RWMutex
	reg *Registry
}

func NewSession() *Session {
	return &Session{reg: New()}
}

func (s *Session) ReplaceAll(doc *doctree.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.ReplaceAll(doc)
}

func (s *Session) Document() *doctree.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Document()
}

func (s *Session) Chunk(id string) (*doctree.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Chunk(id)
}

func (s *Session) Partition(active bool) []*doctree.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Partition(active)
}

func (s *Session) Reorder(id string, target int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Reorder(id, target)
}

func (s *Session) SetActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.SetActive(id, active)
}

func (s *Session) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Delete(id)
}

func (s *Session) UpdateContent(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.UpdateContent(id, text)
}

func (s *Session) NewChunk(in NewChunkInput) (*doctree.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.NewChunk(in)
}
