package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a document has never been saved.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned for document ids a backend cannot address.
	ErrInvalidID = errors.New("invalid document id")
)

// DocumentInfo holds document metadata and content.
type DocumentInfo struct {
	ID        string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStore abstracts scratchpad persistence. Documents are always read
// and written as whole snapshots.
// Implementations: MemoryStore, FileStore, FirestoreStore, CachedStore.
type DocumentStore interface {
	Load(ctx context.Context, id string) (string, error)
	Save(ctx context.Context, id, content string) error
	Get(ctx context.Context, id string) (*DocumentInfo, error)
	List(ctx context.Context) ([]DocumentInfo, error)
}
