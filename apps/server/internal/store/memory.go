package store

import (
	"sync"

	"coup-lite/coup"
)

// MemoryStore keeps match documents in process memory. Default for
// single-binary deployments and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]coup.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]coup.Document)}
}

func (s *MemoryStore) Save(doc coup.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Code] = doc
	return nil
}

func (s *MemoryStore) Load(code string) (coup.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[code]
	if !ok {
		return coup.Document{}, coup.ErrMatchNotFound
	}
	return doc, nil
}

func (s *MemoryStore) Delete(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, code)
	return nil
}

func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.docs))
	for code := range s.docs {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *MemoryStore) Close() error { return nil }
