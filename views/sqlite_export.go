package views

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"rq-formatter/models"
	"rq-formatter/utils"
)

// SQLiteSink stores the entries of one conversion run in a SQLite database.
// All rows of a run are written in a single transaction.
type SQLiteSink struct {
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	path  string
	runID string
	seq   int64
}

// NewSQLiteSink opens (or creates) the database at path and registers a new
// run for the given input/output pair.
func NewSQLiteSink(path, input, output string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema %s: %w", path, err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite begin: %w", err)
	}

	s := &SQLiteSink{db: db, tx: tx, path: path, runID: uuid.New().String()}

	if _, err := tx.Exec(
		"INSERT INTO runs (run_id, input_path, output_path, started_at) VALUES (?, ?, ?, ?)",
		s.runID, input, output, utils.FormatTimestamp(utils.NowNano()),
	); err != nil {
		s.Abort()
		return nil, fmt.Errorf("sqlite insert run: %w", err)
	}

	s.stmt, err = tx.Prepare(entryInsertSQL())
	if err != nil {
		s.Abort()
		return nil, fmt.Errorf("sqlite prepare: %w", err)
	}
	return s, nil
}

// entryInsertSQL builds the entries INSERT from SchemaColumns so the column
// order stays in step with the values passed by WriteEntries.
func entryInsertSQL() string {
	cols := SchemaColumns[SinkSQLite]
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO entries (%s) VALUES (%s)", strings.Join(cols, ", "), marks)
}

// RunID identifies the rows written by this sink.
func (s *SQLiteSink) RunID() string { return s.runID }

// WriteEntries inserts entries in order. Entries without a position are
// stored with NULL coordinates.
func (s *SQLiteSink) WriteEntries(entries []models.Entry) error {
	for _, e := range entries {
		lat := sql.NullFloat64{Float64: e.Latitude, Valid: e.HasPosition()}
		lon := sql.NullFloat64{Float64: e.Longitude, Valid: e.HasPosition()}
		if _, err := s.stmt.Exec(s.runID, s.seq, lat, lon, e.DeltaZ); err != nil {
			return fmt.Errorf("sqlite insert entry %d: %w", s.seq, err)
		}
		s.seq++
	}
	return nil
}

// Close records the entry count and commits the run.
func (s *SQLiteSink) Close() error {
	defer s.db.Close()
	if err := s.stmt.Close(); err != nil {
		_ = s.tx.Rollback()
		return fmt.Errorf("sqlite close statement: %w", err)
	}
	if _, err := s.tx.Exec("UPDATE runs SET entries = ? WHERE run_id = ?", s.seq, s.runID); err != nil {
		_ = s.tx.Rollback()
		return fmt.Errorf("sqlite update run: %w", err)
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// Abort rolls the run back.
func (s *SQLiteSink) Abort() {
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	_ = s.tx.Rollback()
	_ = s.db.Close()
}

func (s *SQLiteSink) Rows() uint64   { return uint64(s.seq) }
func (s *SQLiteSink) String() string { return "sqlite:" + s.path }
