package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dohr-michael/dayplanner/internal/tasks"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	start_at     TEXT NOT NULL,
	end_at       TEXT NOT NULL,
	priority     TEXT NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0,
	completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_start ON tasks(start_at);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

// SQLitePersister stores tasks in a SQLite table. Save rewrites the table in
// one transaction; insertion order is kept in the position column and every
// save bumps the revision row in meta.
type SQLitePersister struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLitePersister, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps ":memory:" on a single database.
	db.SetMaxOpenConns(1)

	p := &SQLitePersister{db: db}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *SQLitePersister) migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// Load returns all rows in insertion order.
func (p *SQLitePersister) Load(ctx context.Context) ([]tasks.Task, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, description, start_at, end_at, priority, completed, completed_at
		FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var list []tasks.Task
	for rows.Next() {
		var (
			t           tasks.Task
			start, end  string
			priority    string
			completed   bool
			completedAt sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &start, &end, &priority, &completed, &completedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if t.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
			return nil, fmt.Errorf("task %s: start: %w", t.ID, err)
		}
		if t.End, err = time.Parse(time.RFC3339Nano, end); err != nil {
			return nil, fmt.Errorf("task %s: end: %w", t.ID, err)
		}
		if completedAt.Valid {
			at, err := time.Parse(time.RFC3339Nano, completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("task %s: completed_at: %w", t.ID, err)
			}
			t.CompletedAt = &at
		}
		t.Priority = tasks.TaskPriority(priority)
		t.Completed = completed
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return list, nil
}

// Save replaces every row with list.
func (p *SQLitePersister) Save(ctx context.Context, list []tasks.Task) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (id, position, title, description, start_at, end_at, priority, completed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range list {
		var completedAt sql.NullString
		if t.CompletedAt != nil {
			completedAt = sql.NullString{String: t.CompletedAt.Format(time.RFC3339Nano), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			t.ID, i, t.Title, t.Description,
			t.Start.Format(time.RFC3339Nano), t.End.Format(time.RFC3339Nano),
			string(t.Priority), t.Completed, completedAt,
		); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('revision', 1)
		ON CONFLICT(key) DO UPDATE SET value = value + 1`); err != nil {
		return fmt.Errorf("bump revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Version returns the revision of the last save; "0" before the first one.
func (p *SQLitePersister) Version(ctx context.Context) (string, error) {
	var rev int64
	err := p.db.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT value FROM meta WHERE key = 'revision'), 0)`).Scan(&rev)
	if err != nil {
		return "", fmt.Errorf("read revision: %w", err)
	}
	return strconv.FormatInt(rev, 10), nil
}

// Close closes the database.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
