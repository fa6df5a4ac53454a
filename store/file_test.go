package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "docs"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	content := "line one\nline two: with colon\n  indented\n"
	if err := s.Save(ctx, "notes", content); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "notes")
	if err != nil {
		t.Fatal(err)
	}
	if got != content {
		t.Errorf("content = %q, want %q", got, content)
	}

	raw, err := os.ReadFile(filepath.Join(s.Dir(), "notes.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "id: notes") {
		t.Errorf("unexpected file layout:\n%s", raw)
	}
}

func TestFileStore_SaveKeepsCreatedAt(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	s.Save(ctx, "doc1", "a")
	first, err := s.Get(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	s.Save(ctx, "doc1", "b")

	info, _ := s.Get(ctx, "doc1")
	if info.Content != "b" {
		t.Errorf("content = %q, want %q", info.Content, "b")
	}
	if !info.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("createdAt changed: %v -> %v", first.CreatedAt, info.CreatedAt)
	}
	if !info.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updatedAt not advanced")
	}
}

func TestFileStore_LoadNotFound(t *testing.T) {
	s := newTestFileStore(t)
	_, err := s.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_InvalidIDs(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	for _, id := range []string{"", ".", "..", "../escape", `a\b`, "a/b", ".hidden"} {
		if err := s.Save(ctx, id, "x"); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Save(%q): expected ErrInvalidID, got %v", id, err)
		}
	}
}

func TestFileStore_List(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	s.Save(ctx, "b", "2")
	s.Save(ctx, "a", "1")
	// Stray files are ignored.
	os.WriteFile(filepath.Join(s.Dir(), "README.txt"), []byte("hi"), 0o644)
	os.WriteFile(filepath.Join(s.Dir(), tempFilePrefix+"x.yaml"), []byte("partial"), 0o644)

	docs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].ID != "a" || docs[0].Content != "1" || docs[1].ID != "b" {
		t.Errorf("unexpected docs: %+v", docs)
	}
}

func TestFileStore_SaveCancelled(t *testing.T) {
	s := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Save(ctx, "doc1", "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFileStore_WatchReportsExternalWrites(t *testing.T) {
	s := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Save(ctx, "watched", "v1")

	changed := make(chan struct{}, 16)
	if err := s.Watch(ctx, "watched", func() { changed <- struct{}{} }); err != nil {
		t.Fatal(err)
	}

	// A write to another document is not reported.
	s.Save(ctx, "other", "x")
	select {
	case <-changed:
		t.Fatal("unexpected notification for another document")
	case <-time.After(100 * time.Millisecond):
	}

	// Simulate another process replacing the file.
	other, err := NewFileStore(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Save(ctx, "watched", "v2"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watch notification")
	}
}
