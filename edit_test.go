package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimasry/go-scratchpad/autosave"
	"github.com/alimasry/go-scratchpad/store"
)

func TestRefreshOnChange_ReloadsActiveDocument(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.Save(ctx, "notes", "v1"))

	s := autosave.New(mem, autosave.WithQuietPeriod(time.Hour))
	defer s.Close(ctx)
	require.NoError(t, s.Open("notes"))
	require.Eventually(t, func() bool {
		return s.Snapshot().Phase == autosave.PhaseReady
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, mem.Save(ctx, "notes", "v2"))
	refreshOnChange(s, "other", slog.Default())()
	refreshOnChange(s, "notes", slog.Default())()
	require.Eventually(t, func() bool {
		return s.Snapshot().Content == "v2"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRefreshOnChange_LogsFailure(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := autosave.New(store.NewMemoryStore(), autosave.WithQuietPeriod(time.Hour))
	require.NoError(t, s.Open("notes"))
	require.NoError(t, s.Close(ctx))

	refreshOnChange(s, "notes", logger)()
	assert.Contains(t, out.String(), "refresh after external change")
	assert.Contains(t, out.String(), autosave.ErrClosed.Error())
}
