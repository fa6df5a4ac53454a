package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Backend names a persistence implementation.
type Backend string

const (
	BackendMemory    Backend = "memory"
	BackendFile      Backend = "file"
	BackendFirestore Backend = "firestore"
)

// Config holds the resolved settings.
type Config struct {
	Backend          Backend
	DataDir          string
	FirestoreProject string
	ListenAddr       string
	QuietPeriod      time.Duration
	RetryFailedSaves bool
}

const (
	defaultConfigPath  = "~/.config/scratchpad/config.toml"
	defaultDataDir     = "~/.local/share/scratchpad"
	defaultListenAddr  = "127.0.0.1:8080"
	defaultQuietPeriod = time.Second
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Backend:          BackendFile,
		DataDir:          mustExpand(defaultDataDir),
		ListenAddr:       defaultListenAddr,
		QuietPeriod:      defaultQuietPeriod,
		RetryFailedSaves: true,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Backend          string `toml:"backend"`
		DataDir          string `toml:"data_dir"`
		FirestoreProject string `toml:"firestore_project"`
		ListenAddr       string `toml:"listen_addr"`
		QuietPeriod      string `toml:"quiet_period"`
		RetryFailedSaves *bool  `toml:"retry_failed_saves"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if b := strings.TrimSpace(raw.Backend); b != "" {
		cfg.Backend = Backend(strings.ToLower(b))
	}
	if dir := strings.TrimSpace(raw.DataDir); dir != "" {
		cfg.DataDir = mustExpand(dir)
	}
	cfg.FirestoreProject = strings.TrimSpace(raw.FirestoreProject)
	if addr := strings.TrimSpace(raw.ListenAddr); addr != "" {
		cfg.ListenAddr = addr
	}
	if qp := strings.TrimSpace(raw.QuietPeriod); qp != "" {
		d, err := time.ParseDuration(qp)
		if err != nil {
			return Config{}, fmt.Errorf("parse quiet_period: %w", err)
		}
		cfg.QuietPeriod = d
	}
	if raw.RetryFailedSaves != nil {
		cfg.RetryFailedSaves = *raw.RetryFailedSaves
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the combination of settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile:
	case BackendFirestore:
		if c.FirestoreProject == "" {
			return fmt.Errorf("backend %q requires firestore_project", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.QuietPeriod <= 0 {
		return fmt.Errorf("quiet_period must be positive, got %s", c.QuietPeriod)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
