package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const CurrentVersion = 1

// Load reads a TOML config file, applies defaults and environment overrides,
// then validates it. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = defaultStateDir()
	}
	if strings.TrimSpace(cfg.Paths.LogFile) == "" {
		cfg.Paths.LogFile = "edgegraph.log"
	}

	if cfg.Load.ScannerBufferKB <= 0 {
		cfg.Load.ScannerBufferKB = 1024
	}
	if cfg.Load.BytesPerEdgeHint <= 0 {
		cfg.Load.BytesPerEdgeHint = 14
	}

	if cfg.Traversal.DefaultDepth <= 0 {
		cfg.Traversal.DefaultDepth = 2
	}
	if cfg.Traversal.CacheEntries == 0 {
		cfg.Traversal.CacheEntries = 128
	}
	if cfg.Traversal.TopK <= 0 {
		cfg.Traversal.TopK = 10
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Ignore == nil {
		cfg.Watch.Ignore = []string{"*.swp", "*~", ".#*", "*.tmp"}
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "history.db"
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = 20
	}

	if strings.TrimSpace(cfg.Server.Address) == "" {
		cfg.Server.Address = "127.0.0.1:8470"
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 20
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 40
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "edgegraph"
	}
}

func defaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "edgegraph")
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "edgegraph")
	}
	return "."
}
