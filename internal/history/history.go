// Package history records completed sort runs in a local SQLite database.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	source_dir TEXT NOT NULL,
	target_dir TEXT NOT NULL,
	total INTEGER NOT NULL,
	sorted INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	method TEXT NOT NULL,
	conflict_policy TEXT NOT NULL,
	by_category TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run is one recorded sort run.
type Run struct {
	ID        string               `json:"id"`
	StartedAt time.Time            `json:"started_at"`
	SourceDir string               `json:"source_dir"`
	TargetDir string               `json:"target_dir"`
	Stats     models.RunStatistics `json:"stats"`
}

// Store persists runs. Safe for concurrent use; SQLite serializes writers.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the history database at path. logger may be nil.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record saves a run. A missing ID gets a fresh one; a zero start time
// becomes now. Returns the stored run ID.
func (s *Store) Record(run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	byCategory, err := json.Marshal(run.Stats.ByCategory)
	if err != nil {
		return "", fmt.Errorf("encode category counts: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO runs
		(id, started_at, source_dir, target_dir, total, sorted, skipped, failed, method, conflict_policy, by_category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.SourceDir, run.TargetDir,
		run.Stats.Total, run.Stats.Sorted, run.Stats.Skipped, run.Stats.Failed,
		run.Stats.MethodUsed, run.Stats.ConflictPolicy, string(byCategory))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	s.logger.Debug("run recorded", zap.String("id", run.ID))
	return run.ID, nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]Run, error) {
	query := `SELECT id, started_at, source_dir, target_dir, total, sorted, skipped, failed, method, conflict_policy, by_category
		FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var byCategory string
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.SourceDir, &run.TargetDir,
			&run.Stats.Total, &run.Stats.Sorted, &run.Stats.Skipped, &run.Stats.Failed,
			&run.Stats.MethodUsed, &run.Stats.ConflictPolicy, &byCategory); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(byCategory), &run.Stats.ByCategory); err != nil {
			return nil, fmt.Errorf("decode category counts: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
