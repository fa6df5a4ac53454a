package main

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"

	"github.com/alimasry/go-scratchpad/autosave"
	"github.com/alimasry/go-scratchpad/config"
	"github.com/alimasry/go-scratchpad/store"
)

// openStore builds the configured backend. The returned cleanup releases
// backend resources.
func openStore(ctx context.Context, c config.Config) (store.DocumentStore, func(), error) {
	switch c.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), func() {}, nil
	case config.BackendFile:
		fs, err := store.NewFileStore(c.DataDir, store.WithFileLogger(slog.Default()))
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, c.FirestoreProject)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		return store.NewCachedStore(store.NewFirestoreStore(client)), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

func syncOptions(c config.Config) []autosave.Option {
	return []autosave.Option{
		autosave.WithQuietPeriod(c.QuietPeriod),
		autosave.WithRetryOnFailure(c.RetryFailedSaves),
		autosave.WithLogger(slog.Default()),
	}
}
