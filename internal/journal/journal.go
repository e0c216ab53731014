// Package journal provides an optional SQLite record of per-note migration
// outcomes, for operator reporting across runs.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL DEFAULT '',
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notes (
	run_id      TEXT NOT NULL,
	hash        TEXT NOT NULL,
	notebook    TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0,
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (run_id) REFERENCES runs(id)
);

CREATE INDEX IF NOT EXISTS idx_notes_run ON notes(run_id);
CREATE INDEX IF NOT EXISTS idx_notes_hash ON notes(hash);
`

// Entry is one recorded note outcome.
type Entry struct {
	Hash     string
	Notebook string
	Title    string
	Outcome  string
	Attempts int
}

// Journal wraps a sql.DB with migration-run bookkeeping. Safe for concurrent
// use by upload workers; database/sql serializes access.
type Journal struct {
	conn  *sql.DB
	runID string
}

// Open opens (or creates) the journal database and applies the schema.
func Open(dsn string) (*Journal, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &Journal{conn: conn}, nil
}

// BeginRun opens a new run row and returns its id. All subsequent Record
// calls attach to this run.
func (j *Journal) BeginRun(source string) (string, error) {
	id := uuid.NewString()
	_, err := j.conn.Exec(`INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)`,
		id, source, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("journal: begin run: %w", err)
	}
	j.runID = id
	return id, nil
}

// Record stores one note outcome for the current run. A nil receiver is a
// no-op so callers can run without a journal configured.
func (j *Journal) Record(e Entry) error {
	if j == nil {
		return nil
	}
	_, err := j.conn.Exec(`
		INSERT INTO notes (run_id, hash, notebook, title, outcome, attempts, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, j.runID, e.Hash, e.Notebook, e.Title, e.Outcome, e.Attempts, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal: record note: %w", err)
	}
	return nil
}

// RunSummary returns outcome counts for the given run.
func (j *Journal) RunSummary(runID string) (map[string]int, error) {
	rows, err := j.conn.Query(`SELECT outcome, COUNT(*) FROM notes WHERE run_id = ? GROUP BY outcome`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: run summary: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.conn.Close()
}
