package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of DocumentStore.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*DocumentInfo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*DocumentInfo)}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (string, error) {
	info, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return info.Content, nil
}

func (s *MemoryStore) Save(_ context.Context, id, content string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec, ok := s.docs[id]
	if !ok {
		s.docs[id] = &DocumentInfo{
			ID:        id,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}
	rec.Content = content
	rec.UpdatedAt = now
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	info := *rec
	return &info, nil
}

func (s *MemoryStore) List(_ context.Context) ([]DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]DocumentInfo, 0, len(s.docs))
	for _, rec := range s.docs {
		result = append(result, *rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
