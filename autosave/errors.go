package autosave

import "errors"

var (
	// ErrClosed is returned by operations on a synchronizer that has been torn down.
	ErrClosed = errors.New("synchronizer closed")
	// ErrNoDocument is returned when an edit arrives before any document was opened.
	ErrNoDocument = errors.New("no document open")
	// ErrLoadFailed is returned for edits against a document whose load failed.
	ErrLoadFailed = errors.New("document failed to load")
)
