package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// configureLogging installs the default slog logger writing to w, or to
// logPath when it is set. The terminal UI owns the screen, so it logs to a
// file.
func configureLogging(w io.Writer, level slog.Level, logPath string) func() {
	output := w
	closeFn := func() {}
	if logPath != "" {
		if f, err := openLogFile(logPath); err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
			output = io.Discard
		} else {
			output = f
			closeFn = func() { _ = f.Close() }
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return closeFn
}

// commandLogLevel keeps one-shot queries quiet; long-running modes log loads
// and reloads.
func commandLogLevel(name string, verbose bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case name == "serve" || name == "ui":
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log dir for %s: %w", logPath, err)
	}
	if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
		return nil, fmt.Errorf("refusing to write logs to symlink path %s", logPath)
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	return f, nil
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "edgegraph", "edgegraph.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "edgegraph", "edgegraph.log")
	}

	return "edgegraph.log"
}
