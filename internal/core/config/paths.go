package config

import (
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	StateDir    string
	HistoryPath string
	LogPath     string
	DatasetPath string
}

// ResolvePaths makes every configured path absolute. Relative state paths are
// anchored at the state dir, the dataset path at cwd.
func ResolvePaths(cfg *Config, cwd string) ResolvedPaths {
	stateDir := ResolveRelative(cwd, cfg.Paths.StateDir)
	out := ResolvedPaths{
		StateDir:    stateDir,
		HistoryPath: ResolveRelative(stateDir, cfg.History.Path),
		LogPath:     ResolveRelative(stateDir, cfg.Paths.LogFile),
	}
	if strings.TrimSpace(cfg.Dataset.Path) != "" {
		out.DatasetPath = ResolveRelative(cwd, cfg.Dataset.Path)
	}
	return out
}

func ResolveRelative(base, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Clean(filepath.Join(base, value))
}
