package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alimasry/go-scratchpad/server"
)

const shutdownTimeout = 15 * time.Second

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scratchpads over WebSocket",
	Long: `Serve exposes the autosave synchronizer over WebSocket at /ws and a read-only
JSON view of persisted documents at /docs. Unsaved edits of every connected
session are flushed on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		st, cleanup, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		addr := cfg.ListenAddr
		if listenAddr != "" {
			addr = listenAddr
		}

		hub := server.NewHub(st, slog.Default(), syncOptions(cfg)...)
		srv := &http.Server{Addr: addr, Handler: server.NewHandler(hub)}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			slog.Info("starting server", "addr", addr, "backend", cfg.Backend)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			slog.Info("shutting down")
			flushErr := hub.Shutdown(shutdownCtx)
			if flushErr != nil {
				slog.Error("flush on shutdown failed", "error", flushErr)
			}
			return errors.Join(flushErr, srv.Shutdown(shutdownCtx))
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "HTTP listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}
