// Package session provides the session stores and the shared document
// library: an in-process map and an in-memory SQLite database.
package session

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
)

// MemoryStore implements ports.SessionStore with a map.
// Sessions are copied in and out so callers never share state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entities.Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*entities.Session)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return cloneSession(sess), nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cloneSession(sess)
	c.UpdatedAt = time.Now()
	s.sessions[sess.ID] = c
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Len returns the number of sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func cloneSession(s *entities.Session) *entities.Session {
	c := *s
	if s.RAGDocument != nil {
		d := *s.RAGDocument
		c.RAGDocument = &d
	}
	c.Documents = slices.Clone(s.Documents)
	c.History = slices.Clone(s.History)
	return &c
}

// MemoryLibrary implements ports.DocumentLibrary with a map keyed by path.
type MemoryLibrary struct {
	mu   sync.RWMutex
	docs map[string]entities.Document
}

// NewMemoryLibrary creates an empty library.
func NewMemoryLibrary() *MemoryLibrary {
	return &MemoryLibrary{docs: make(map[string]entities.Document)}
}

// Put adds doc, replacing any document with the same path.
func (l *MemoryLibrary) Put(ctx context.Context, doc entities.Document) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.docs[doc.Path] = doc
	return nil
}

func (l *MemoryLibrary) RemoveByPath(ctx context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.docs, path)
	return nil
}

// List returns the documents ordered by name.
func (l *MemoryLibrary) List(ctx context.Context) ([]entities.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entities.Document, 0, len(l.docs))
	for _, d := range l.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}
