package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alimasry/go-scratchpad/config"
)

var (
	verbose    bool
	configPath string
	backend    string
	dataDir    string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "scratchpad",
	Short: "Autosaving scratchpad documents",
	Long: `Scratchpad keeps an editable buffer for one document at a time and writes it
back to storage after a short quiet period, on document switch and on exit.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if backend != "" {
			loaded.Backend = config.Backend(backend)
		}
		if dataDir != "" {
			loaded.DataDir = dataDir
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "scratchpad: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/scratchpad/config.toml)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend: memory, file or firestore")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the file backend")
}
