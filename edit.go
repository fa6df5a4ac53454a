package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alimasry/go-scratchpad/autosave"
	"github.com/alimasry/go-scratchpad/store"
	"github.com/alimasry/go-scratchpad/tui"
)

const closeTimeout = 10 * time.Second

var editCmd = &cobra.Command{
	Use:   "edit <doc> [doc...]",
	Short: "Edit scratchpads in the terminal",
	Long: `Edit opens the first document in a terminal editor. Tab cycles through the
other documents; switching flushes unsaved edits. Changes are saved after the
quiet period, on ctrl+s and on exit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		st, cleanup, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		// The terminal belongs to the editor; keep logs off it unless asked.
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if verbose {
			logger = slog.Default()
		}
		opts := append(syncOptions(cfg), autosave.WithLogger(logger))
		s := autosave.New(st, opts...)

		if fs, ok := st.(*store.FileStore); ok {
			for _, id := range args {
				id := id
				err := fs.Watch(ctx, id, refreshOnChange(s, id, logger))
				if err != nil {
					return err
				}
			}
		}

		_, runErr := tea.NewProgram(tui.New(s, args), tea.WithAltScreen()).Run()

		closeCtx, cancelClose := context.WithTimeout(context.Background(), closeTimeout)
		defer cancelClose()
		if err := s.Close(closeCtx); err != nil {
			return fmt.Errorf("saving on exit: %w", err)
		}
		return runErr
	},
}

// refreshOnChange reloads id when it changes on disk while it is the active
// document.
func refreshOnChange(s *autosave.Synchronizer, id string, logger *slog.Logger) func() {
	return func() {
		if s.Snapshot().DocID != id {
			return
		}
		if err := s.Refresh(); err != nil {
			logger.Debug("refresh after external change", "doc", id, "error", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(editCmd)
}
