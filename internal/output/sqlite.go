package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang/snappy"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

const sqliteSchema = `
CREATE TABLE runs (
	run_id TEXT PRIMARY KEY,
	input TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	events INTEGER NOT NULL
);
CREATE TABLE events (
	seq INTEGER PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	ts_ns INTEGER NOT NULL,
	cpu INTEGER NOT NULL,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	message TEXT NOT NULL,
	fields TEXT NOT NULL,
	payload BLOB
);
CREATE INDEX idx_events_cpu_ts ON events(cpu, ts_ns);
CREATE INDEX idx_events_name ON events(name);
`

// RunInfo identifies a conversion in the SQLite archive.
type RunInfo struct {
	ID        string
	Input     string
	CreatedAt time.Time
}

// SQLiteWriter archives entries in a SQLite database, raw payloads
// compressed with snappy. The whole run is one transaction.
type SQLiteWriter struct {
	ctx  context.Context
	path string
	tmp  string
	run  RunInfo
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	seq  int64
	done bool
}

// NewSQLiteWriter creates an archive that will replace path on Close.
func NewSQLiteWriter(ctx context.Context, path string, run RunInfo) (*SQLiteWriter, error) {
	file, err := createPending(path)
	if err != nil {
		return nil, err
	}
	tmp := file.Name()
	// An empty file is a valid empty database.
	if err := file.File.Close(); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	s := &SQLiteWriter{ctx: ctx, path: path, tmp: tmp, run: run}
	if err := s.open(); err != nil {
		s.cleanup()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteWriter) open() error {
	db, err := sql.Open("sqlite3", s.tmp)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := db.ExecContext(s.ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.BeginTx(s.ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx

	if _, err := tx.ExecContext(s.ctx,
		"INSERT INTO runs (run_id, input, created_at, events) VALUES (?, ?, ?, 0)",
		s.run.ID, s.run.Input, s.run.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(s.ctx,
		"INSERT INTO events (seq, run_id, ts_ns, cpu, name, category, message, fields, payload) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	s.stmt = stmt
	return nil
}

// cleanup releases the database and removes the temporary file.
func (s *SQLiteWriter) cleanup() {
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	if s.tx != nil {
		_ = s.tx.Rollback()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = os.Remove(s.tmp)
	_ = os.Remove(s.tmp + "-journal")
}

// WriteEntry inserts one row into the events table of the open
// transaction.
func (s *SQLiteWriter) WriteEntry(e *Entry) error {
	if s.done {
		return errors.New("sqlite writer is closed")
	}

	fields, err := json.Marshal(e.FieldMap())
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	base := e.Event.Base()
	var payload []byte
	if len(base.Raw) > 0 {
		payload = snappy.Encode(nil, base.Raw)
	}

	s.seq++
	//nolint:gosec // sqlite integers are signed; log time stays far below 2^63 ns
	if _, err := s.stmt.ExecContext(s.ctx, s.seq, s.run.ID, int64(base.Timestamp), int(base.CPU),
		e.Event.Name(), base.Category(), e.Message, string(fields), payload); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Close commits the run and moves the database into place.
func (s *SQLiteWriter) Close() error {
	if s.done {
		return nil
	}
	s.done = true

	if _, err := s.tx.ExecContext(s.ctx, "UPDATE runs SET events = ? WHERE run_id = ?", s.seq, s.run.ID); err != nil {
		s.cleanup()
		return fmt.Errorf("failed to update run: %w", err)
	}
	if err := s.stmt.Close(); err != nil {
		s.cleanup()
		return fmt.Errorf("failed to close statement: %w", err)
	}
	s.stmt = nil
	if err := s.tx.Commit(); err != nil {
		s.tx = nil
		s.cleanup()
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.tx = nil
	if err := s.db.Close(); err != nil {
		s.db = nil
		s.cleanup()
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil

	if err := os.Rename(s.tmp, s.path); err != nil {
		_ = os.Remove(s.tmp)
		return fmt.Errorf("failed to move database into place: %w", err)
	}
	return nil
}

// Abort rolls back and removes the database.
func (s *SQLiteWriter) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	s.cleanup()
	return nil
}
