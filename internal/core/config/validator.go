package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Validate returns every problem found in cfg.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateLoad,
		validateTraversal,
		validateWatch,
		validateServer,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > CurrentVersion {
		return fmt.Errorf("unsupported config version %d; supported version is %d", cfg.Version, CurrentVersion)
	}
	return nil
}

func validateLoad(cfg *Config) error {
	if cfg.Load.ScannerBufferKB > 1<<20 {
		return fmt.Errorf("load.scanner_buffer_kb must be <= %d, got %d", 1<<20, cfg.Load.ScannerBufferKB)
	}
	return nil
}

func validateTraversal(cfg *Config) error {
	t := cfg.Traversal
	if t.MaxDepth < 0 {
		return fmt.Errorf("traversal.max_depth must be >= 0, got %d", t.MaxDepth)
	}
	if t.MaxDepth > 0 && t.DefaultDepth > t.MaxDepth {
		return fmt.Errorf("traversal.default_depth (%d) exceeds traversal.max_depth (%d)", t.DefaultDepth, t.MaxDepth)
	}
	if t.CacheEntries < 0 {
		return fmt.Errorf("traversal.cache_entries must be >= 0, got %d", t.CacheEntries)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %s", cfg.Watch.Debounce)
	}
	for i, pattern := range cfg.Watch.Ignore {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("watch.ignore[%d] must not be empty", i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("watch.ignore[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateServer(cfg *Config) error {
	s := cfg.Server
	if !strings.Contains(s.Address, ":") {
		return fmt.Errorf("server.address must be host:port, got %q", s.Address)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be >= 0, got %v", s.RateLimit)
	}
	if s.Burst < 1 {
		return fmt.Errorf("server.burst must be >= 1, got %d", s.Burst)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	o := cfg.Observability
	if o.EnableTracing && strings.TrimSpace(o.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when tracing is enabled")
	}
	return nil
}
