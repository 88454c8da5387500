package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: EDGEGRAPH_[SECTION]_[KEY] (e.g., EDGEGRAPH_SERVER_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Paths.StateDir, "EDGEGRAPH_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.LogFile, "EDGEGRAPH_PATHS_LOG_FILE")

	setEnvString(&cfg.Dataset.Path, "EDGEGRAPH_DATASET_PATH")

	setEnvInt(&cfg.Load.ScannerBufferKB, "EDGEGRAPH_LOAD_SCANNER_BUFFER_KB")
	setEnvBool(&cfg.Load.Verify, "EDGEGRAPH_LOAD_VERIFY")
	setEnvBool(&cfg.Load.AllowPercentComments, "EDGEGRAPH_LOAD_ALLOW_PERCENT_COMMENTS")

	setEnvInt(&cfg.Traversal.DefaultDepth, "EDGEGRAPH_TRAVERSAL_DEFAULT_DEPTH")
	setEnvInt(&cfg.Traversal.MaxDepth, "EDGEGRAPH_TRAVERSAL_MAX_DEPTH")
	setEnvInt(&cfg.Traversal.CacheEntries, "EDGEGRAPH_TRAVERSAL_CACHE_ENTRIES")

	setEnvBool(&cfg.Watch.Enabled, "EDGEGRAPH_WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "EDGEGRAPH_WATCH_DEBOUNCE")

	setEnvBool(&cfg.History.Enabled, "EDGEGRAPH_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "EDGEGRAPH_HISTORY_PATH")

	setEnvString(&cfg.Server.Address, "EDGEGRAPH_SERVER_ADDRESS")
	setEnvFloat64(&cfg.Server.RateLimit, "EDGEGRAPH_SERVER_RATE_LIMIT")
	setEnvInt(&cfg.Server.Burst, "EDGEGRAPH_SERVER_BURST")

	setEnvBool(&cfg.Observability.EnableMetrics, "EDGEGRAPH_OBSERVABILITY_ENABLE_METRICS")
	setEnvBool(&cfg.Observability.EnableTracing, "EDGEGRAPH_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.OTLPEndpoint, "EDGEGRAPH_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
