// Package history keeps a SQLite log of every output write.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matsen/adsbib/internal/reconcile"
)

// DB wraps a SQLite database connection. Each DB belongs to one run, whose
// id tags every row it records.
type DB struct {
	db    *sql.DB
	runID string
}

// Entry is one recorded write.
type Entry struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	Time         time.Time `json:"time"`
	Source       string    `json:"source"`
	LastModified string    `json:"last_modified"`
	Output       string    `json:"output"`
	Total        int       `json:"total"`
	Added        []string  `json:"added"`
	Removed      []string  `json:"removed"`
	Initial      bool      `json:"initial"`
}

// Open opens or creates the history database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db, runID: uuid.NewString()}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// RunID returns the identifier stamped on rows recorded through d.
func (d *DB) RunID() string { return d.runID }

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS writes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			written_at INTEGER NOT NULL,
			source TEXT NOT NULL,
			last_modified TEXT NOT NULL,
			output TEXT NOT NULL,
			total INTEGER NOT NULL,
			added_json TEXT NOT NULL,
			removed_json TEXT NOT NULL,
			is_initial INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_writes_run ON writes(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Record implements reconcile.Recorder.
func (d *DB) Record(ctx context.Context, c reconcile.Change) error {
	added, err := json.Marshal(nonNil(c.Added))
	if err != nil {
		return fmt.Errorf("encoding added: %w", err)
	}
	removed, err := json.Marshal(nonNil(c.Removed))
	if err != nil {
		return fmt.Errorf("encoding removed: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO writes (run_id, written_at, source, last_modified, output, total, added_json, removed_json, is_initial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.runID, c.Time.UnixNano(), c.Source, c.LastModified, c.Output, c.Total,
		string(added), string(removed), boolToInt(c.Initial))
	if err != nil {
		return fmt.Errorf("inserting write: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. limit <= 0 means all.
func (d *DB) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, written_at, source, last_modified, output, total, added_json, removed_json, is_initial
		FROM writes ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying writes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var writtenAt int64
		var addedJSON, removedJSON string
		var initial int
		if err := rows.Scan(&e.ID, &e.RunID, &writtenAt, &e.Source, &e.LastModified,
			&e.Output, &e.Total, &addedJSON, &removedJSON, &initial); err != nil {
			return nil, fmt.Errorf("scanning write: %w", err)
		}
		if err := json.Unmarshal([]byte(addedJSON), &e.Added); err != nil {
			return nil, fmt.Errorf("decoding added for write %d: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(removedJSON), &e.Removed); err != nil {
			return nil, fmt.Errorf("decoding removed for write %d: %w", e.ID, err)
		}
		e.Time = time.Unix(0, writtenAt).UTC()
		e.Initial = initial != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
