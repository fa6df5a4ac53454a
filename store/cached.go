package store

import (
	"context"
	"sync"
)

// CachedStore wraps a backing DocumentStore with an in-memory read cache.
// Reads are served from the cache after the first load; saves are written
// through to the backing store and only update the cache once the backing
// write has succeeded, so the cache never holds content the backing store
// rejected.
type CachedStore struct {
	cache   *MemoryStore
	backing DocumentStore

	mu     sync.Mutex
	loaded map[string]bool
}

// NewCachedStore creates a CachedStore in front of backing.
func NewCachedStore(backing DocumentStore) *CachedStore {
	return &CachedStore{
		cache:   NewMemoryStore(),
		backing: backing,
		loaded:  make(map[string]bool),
	}
}

func (cs *CachedStore) Load(ctx context.Context, id string) (string, error) {
	info, err := cs.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return info.Content, nil
}

func (cs *CachedStore) Get(ctx context.Context, id string) (*DocumentInfo, error) {
	if cs.isLoaded(id) {
		return cs.cache.Get(ctx, id)
	}
	// Cache miss — load from backing store.
	info, err := cs.backing.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cs.put(info)
	return cs.cache.Get(ctx, id)
}

func (cs *CachedStore) Save(ctx context.Context, id, content string) error {
	if err := cs.backing.Save(ctx, id, content); err != nil {
		return err
	}
	if err := cs.cache.Save(ctx, id, content); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.loaded[id] = true
	cs.mu.Unlock()
	return nil
}

func (cs *CachedStore) List(ctx context.Context) ([]DocumentInfo, error) {
	return cs.backing.List(ctx)
}

// Invalidate drops id from the cache so the next read goes to the backing
// store. Used when the document is known to have changed externally.
func (cs *CachedStore) Invalidate(id string) {
	cs.mu.Lock()
	delete(cs.loaded, id)
	cs.mu.Unlock()
}

func (cs *CachedStore) isLoaded(id string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.loaded[id]
}

func (cs *CachedStore) put(info *DocumentInfo) {
	cs.cache.mu.Lock()
	rec := *info
	cs.cache.docs[info.ID] = &rec
	cs.cache.mu.Unlock()

	cs.mu.Lock()
	cs.loaded[info.ID] = true
	cs.mu.Unlock()
}
