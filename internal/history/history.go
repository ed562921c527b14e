// Package history records workflow runs in a local SQLite database so
// `yabs history` can show what was released, when, and how far each run
// got.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database connection.
type Store struct {
	conn *sql.DB
	path string
}

// DefaultPath returns ~/.yabs/history.db, creating the directory if needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	dir := filepath.Join(home, ".yabs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens or creates the database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    workflow    TEXT NOT NULL,
    repo        TEXT,
    dry_run     BOOLEAN NOT NULL DEFAULT FALSE,
    status      TEXT NOT NULL CHECK(status IN ('running','completed','aborted')),
    org_version TEXT,
    version     TEXT,
    started_at  TEXT NOT NULL DEFAULT (datetime('now')),
    finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

CREATE TABLE IF NOT EXISTS task_events (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id    INTEGER NOT NULL REFERENCES runs(id),
    seq       INTEGER NOT NULL,
    task_type TEXT NOT NULL,
    status    TEXT NOT NULL CHECK(status IN ('ok','skipped','failed')),
    detail    TEXT,
    timestamp TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_task_events_run ON task_events(run_id, seq);
`

func (s *Store) migrate() error {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = 1").Scan(&count)
	if err == nil && count > 0 {
		return nil
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaV1); err != nil {
		return fmt.Errorf("apply schema v1: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Run represents a row in the runs table.
type Run struct {
	ID         int64
	Workflow   string
	Repo       string
	DryRun     bool
	Status     string
	OrgVersion string
	Version    string
	StartedAt  string
	FinishedAt string
}

// TaskEvent represents a row in the task_events table.
type TaskEvent struct {
	ID        int64
	RunID     int64
	Seq       int
	TaskType  string
	Status    string
	Detail    string
	Timestamp string
}

// StartRun inserts a new run in running state and returns its id.
func (s *Store) StartRun(workflow, repo string, dryRun bool) (int64, error) {
	res, err := s.conn.Exec(
		`INSERT INTO runs (workflow, repo, dry_run, status) VALUES (?, ?, ?, 'running')`,
		workflow, repo, dryRun,
	)
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return res.LastInsertId()
}

// RecordTask inserts one task outcome for a run.
func (s *Store) RecordTask(runID int64, seq int, taskType, status, detail string) error {
	_, err := s.conn.Exec(
		`INSERT INTO task_events (run_id, seq, task_type, status, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, seq, taskType, status, detail,
	)
	if err != nil {
		return fmt.Errorf("record task: %w", err)
	}
	return nil
}

// FinishRun marks a run completed or aborted and stores the version delta.
func (s *Store) FinishRun(runID int64, status, orgVersion, version string) error {
	if status != "completed" && status != "aborted" {
		return fmt.Errorf("finish run: invalid status %q", status)
	}
	_, err := s.conn.Exec(
		`UPDATE runs SET status = ?, org_version = ?, version = ?, finished_at = datetime('now') WHERE id = ?`,
		status, orgVersion, version, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(
		`SELECT id, workflow, repo, dry_run, status, org_version, version, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var repo, orgVersion, version, finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Workflow, &repo, &r.DryRun, &r.Status, &orgVersion, &version, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Repo = repo.String
		r.OrgVersion = orgVersion.String
		r.Version = version.String
		r.FinishedAt = finished.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListTasks returns the task outcomes of one run in execution order.
func (s *Store) ListTasks(runID int64) ([]TaskEvent, error) {
	rows, err := s.conn.Query(
		`SELECT id, run_id, seq, task_type, status, detail, timestamp
		 FROM task_events WHERE run_id = ? ORDER BY seq ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var events []TaskEvent
	for rows.Next() {
		var e TaskEvent
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Seq, &e.TaskType, &e.Status, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan task event: %w", err)
		}
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}
