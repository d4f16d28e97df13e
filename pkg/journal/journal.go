// Package journal keeps an SQLite audit log of organize runs and their placements.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quidome/photosort/pkg/media"
	"github.com/quidome/photosort/pkg/organize"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	processed INTEGER NOT NULL DEFAULT 0,
	moved INTEGER NOT NULL DEFAULT 0,
	duplicates INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	warnings INTEGER NOT NULL DEFAULT 0,
	canceled INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS placements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	source TEXT NOT NULL,
	destination TEXT,
	category TEXT NOT NULL,
	year TEXT NOT NULL,
	outcome TEXT NOT NULL,
	method TEXT,
	hash TEXT,
	size INTEGER NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS idx_placements_run ON placements(run_id);
CREATE INDEX IF NOT EXISTS idx_placements_hash ON placements(hash) WHERE hash IS NOT NULL;
`

// Journal is an open run log.
type Journal struct {
	db *sql.DB
}

var _ organize.Recorder = (*Journal)(nil)

// Run is the summary row of one organize run.
type Run struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"` // zero while the run is in progress or if it crashed
	Processed  int       `json:"processed"`
	Moved      int       `json:"moved"`
	Duplicates int       `json:"duplicates"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
	Canceled   bool      `json:"canceled"`
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// A single connection keeps every write on one writer.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init journal: %w", err)
		}
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginRun inserts the summary row for a run that is about to start.
func (j *Journal) BeginRun(ctx context.Context, runID, source, target string, started time.Time) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, target, started_at) VALUES (?, ?, ?, ?)`,
		runID, source, target, started.UnixNano())
	if err != nil {
		return fmt.Errorf("begin run %s: %w", runID, err)
	}
	return nil
}

// Record appends one placement. It satisfies organize.Recorder.
func (j *Journal) Record(ctx context.Context, runID string, p organize.Placement) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO placements (run_id, source, destination, category, year, outcome, method, hash, size, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, p.Source, nullString(p.Destination), p.Category.String(), p.Year, p.Outcome.String(),
		nullString(p.Method), nullString(p.Hash), p.Size, nullString(p.Error))
	if err != nil {
		return fmt.Errorf("record %s: %w", p.Source, err)
	}
	return nil
}

// FinishRun stores the final counters of res.
func (j *Journal) FinishRun(ctx context.Context, res organize.Result, finished time.Time) error {
	out, err := j.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, processed = ?, moved = ?, duplicates = ?, errors = ?, warnings = ?, canceled = ?
		WHERE id = ?`,
		finished.UnixNano(), res.Processed, res.Moved, res.Duplicates, len(res.Errors), len(res.Warnings),
		res.Canceled, res.RunID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", res.RunID, err)
	}
	if n, err := out.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: no such run", res.RunID)
	}
	return nil
}

// Runs lists runs, most recent first. limit <= 0 returns all of them.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, source, target, started_at, finished_at, processed, moved, duplicates, errors, warnings, canceled
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Source, &r.Target, &started, &finished,
			&r.Processed, &r.Moved, &r.Duplicates, &r.Errors, &r.Warnings, &r.Canceled); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		if finished.Valid {
			r.FinishedAt = time.Unix(0, finished.Int64).UTC()
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Placements returns the placements of a run in the order they were recorded.
func (j *Journal) Placements(ctx context.Context, runID string) ([]organize.Placement, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT source, destination, category, year, outcome, method, hash, size, error
		FROM placements WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()

	var out []organize.Placement
	for rows.Next() {
		var p organize.Placement
		var category, outcome string
		var dest, method, hash, msg sql.NullString
		if err := rows.Scan(&p.Source, &dest, &category, &p.Year, &outcome, &method, &hash, &p.Size, &msg); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		if p.Category, err = parseCategory(category); err != nil {
			return nil, err
		}
		if p.Outcome, err = parseOutcome(outcome); err != nil {
			return nil, err
		}
		p.Destination, p.Method, p.Hash, p.Error = dest.String, method.String, hash.String, msg.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseCategory(s string) (media.Category, error) {
	for _, c := range []media.Category{media.Photo, media.Video} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q in journal", s)
}

func parseOutcome(s string) (organize.Outcome, error) {
	for _, o := range []organize.Outcome{organize.Failed, organize.Standard, organize.Duplicate, organize.Collision} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q in journal", s)
}
