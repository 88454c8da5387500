// Package history keeps a SQLite log of load attempts. It stores load
// metadata only; graphs are always rebuilt from their edge lists.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type LoadRecord struct {
	LoadID       string        `json:"load_id" yaml:"load_id"`
	DatasetPath  string        `json:"dataset_path" yaml:"dataset_path"`
	Status       string        `json:"status" yaml:"status"`
	ErrorCode    string        `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Nodes        int64         `json:"nodes" yaml:"nodes"`
	Edges        int64         `json:"edges" yaml:"edges"`
	MemoryBytes  int64         `json:"memory_bytes" yaml:"memory_bytes"`
	LinesRead    int64         `json:"lines_read" yaml:"lines_read"`
	MaxNode      int64         `json:"max_node" yaml:"max_node"`
	HasMaxNode   bool          `json:"has_max_node" yaml:"has_max_node"`
	MaxOutDegree int64         `json:"max_out_degree" yaml:"max_out_degree"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Record inserts or replaces the row for rec.LoadID.
func (s *Store) Record(ctx context.Context, rec LoadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(rec.LoadID) == "" {
		return fmt.Errorf("load id must not be empty")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusOK
	}

	var maxNode any
	if rec.HasMaxNode {
		maxNode = rec.MaxNode
	}

	query := `
INSERT INTO loads (
  load_id, dataset_path, status, error_code, error_message, node_count, edge_count,
  memory_bytes, duration_ms, started_at_utc, max_degree_node, max_out_degree, lines_read
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(load_id) DO UPDATE SET
  status=excluded.status,
  error_code=excluded.error_code,
  error_message=excluded.error_message,
  node_count=excluded.node_count,
  edge_count=excluded.edge_count,
  memory_bytes=excluded.memory_bytes,
  duration_ms=excluded.duration_ms,
  max_degree_node=excluded.max_degree_node,
  max_out_degree=excluded.max_out_degree,
  lines_read=excluded.lines_read
`
	return s.withRetry(ctx, "record load", func() error {
		_, err := s.db.ExecContext(ctx, query,
			rec.LoadID,
			rec.DatasetPath,
			rec.Status,
			rec.ErrorCode,
			rec.ErrorMessage,
			rec.Nodes,
			rec.Edges,
			rec.MemoryBytes,
			rec.Duration.Milliseconds(),
			rec.StartedAt.UTC().Format(time.RFC3339Nano),
			maxNode,
			rec.MaxOutDegree,
			rec.LinesRead,
		)
		return err
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]LoadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	query := `
SELECT
  load_id, dataset_path, status, error_code, error_message, node_count, edge_count,
  memory_bytes, duration_ms, started_at_utc, max_degree_node, max_out_degree, lines_read
FROM loads
ORDER BY started_at_utc DESC, load_id ASC
LIMIT ?
`
	var rows *sql.Rows
	err := s.withRetry(ctx, "list loads", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]LoadRecord, 0)
	for rows.Next() {
		var (
			rec        LoadRecord
			durationMS int64
			startedRaw string
			maxNode    sql.NullInt64
		)
		if err := rows.Scan(
			&rec.LoadID,
			&rec.DatasetPath,
			&rec.Status,
			&rec.ErrorCode,
			&rec.ErrorMessage,
			&rec.Nodes,
			&rec.Edges,
			&rec.MemoryBytes,
			&durationMS,
			&startedRaw,
			&maxNode,
			&rec.MaxOutDegree,
			&rec.LinesRead,
		); err != nil {
			return nil, fmt.Errorf("scan load row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse load timestamp %q: %w", startedRaw, err)
		}
		rec.StartedAt = ts.UTC()
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.MaxNode = maxNode.Int64
		rec.HasMaxNode = maxNode.Valid
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate load rows: %w", err)
	}
	return records, nil
}

func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(time.Duration(attempt*25) * time.Millisecond):
		}
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
