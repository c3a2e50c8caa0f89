package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const defaultBatchSize = 512

type row struct {
	t     float64
	key   string
	value float64
}

// SQLiteSink buffers numeric telemetry and writes it to a sqlite table in batches.
// Write failures drop the batch and are counted, never returned to Record.
type SQLiteSink struct {
	db        *sql.DB
	runID     string
	log       *zap.Logger
	batchSize int

	mu      sync.Mutex
	t       float64
	pending []row
	dropped atomic.Int64
}

// OpenSQLite opens (or creates) the database at path and tags rows with runID.
func OpenSQLite(path, runID string, log *zap.Logger) (*SQLiteSink, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: cannot create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("telemetry: cannot connect to database: %w", err)
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS telemetry (
			run_id TEXT NOT NULL,
			t      REAL NOT NULL,
			key    TEXT NOT NULL,
			value  REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_telemetry_run_key ON telemetry(run_id, key, t)`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			db.Close()
			return nil, fmt.Errorf("telemetry: migration failed: %w", err)
		}
	}

	return &SQLiteSink{
		db:        db,
		runID:     runID,
		log:       log,
		batchSize: defaultBatchSize,
	}, nil
}

func (s *SQLiteSink) Stamp(t float64) {
	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
}

func (s *SQLiteSink) Record(key string, value any) {
	s.mu.Lock()
	Flatten(key, value, func(k string, v float64) {
		s.pending = append(s.pending, row{t: s.t, key: k, value: v})
	})
	var batch []row
	if len(s.pending) >= s.batchSize {
		batch = s.pending
		s.pending = nil
	}
	s.mu.Unlock()

	if batch != nil {
		if err := s.write(batch); err != nil {
			s.dropped.Add(int64(len(batch)))
			s.log.Debug("telemetry batch dropped", zap.Int("rows", len(batch)), zap.Error(err))
		}
	}
}

// Dropped counts rows lost to write failures.
func (s *SQLiteSink) Dropped() int64 {
	return s.dropped.Load()
}

// Flush writes any buffered rows.
func (s *SQLiteSink) Flush() error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	if err := s.write(batch); err != nil {
		s.dropped.Add(int64(len(batch)))
		return err
	}
	return nil
}

func (s *SQLiteSink) Close() error {
	flushErr := s.Flush()
	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}

// Series reads back the stored values for key in time order.
func (s *SQLiteSink) Series(key string) ([]Sample, error) {
	rows, err := s.db.Query(`SELECT t, value FROM telemetry WHERE run_id = ? AND key = ? ORDER BY t`, s.runID, key)
	if err != nil {
		return nil, fmt.Errorf("telemetry: query %s: %w", key, err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.T, &smp.V); err != nil {
			return nil, err
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) write(batch []row) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO telemetry (run_id, t, key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range batch {
		if _, err := stmt.Exec(s.runID, r.t, r.key, r.value); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
