package config

import (
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Dataset       Dataset       `toml:"dataset"`
	Load          LoadSection   `toml:"load"`
	Traversal     Traversal     `toml:"traversal"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Server        Server        `toml:"server"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	StateDir string `toml:"state_dir"`
	LogFile  string `toml:"log_file"`
}

type Dataset struct {
	Path string `toml:"path"`
}

type LoadSection struct {
	ScannerBufferKB      int  `toml:"scanner_buffer_kb"`
	Verify               bool `toml:"verify"`
	AllowPercentComments bool `toml:"allow_percent_comments"`
	// BytesPerEdgeHint sizes the replay buffer from the file size.
	BytesPerEdgeHint int `toml:"bytes_per_edge_hint"`
}

type Traversal struct {
	DefaultDepth int `toml:"default_depth"`
	// MaxDepth clamps requested depths; 0 means unlimited.
	MaxDepth     int `toml:"max_depth"`
	CacheEntries int `toml:"cache_entries"`
	TopK         int `toml:"top_k"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	Ignore   []string      `toml:"ignore"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Limit   int    `toml:"limit"`
}

type Server struct {
	Address         string        `toml:"address"`
	RateLimit       float64       `toml:"rate_limit"`
	Burst           int           `toml:"burst"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type Observability struct {
	EnableMetrics bool   `toml:"enable_metrics"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	ServiceName   string `toml:"service_name"`
}

// DefaultConfig returns a fully defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
