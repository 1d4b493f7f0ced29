package store

import (
	"context"
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"grokmcp/internal/model"
)

// CallLog journals upstream tool calls to a local SQLite database. It exists
// for operator inspection; the serving path never reads it.
type CallLog struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewCallLog(path string) *CallLog {
	return &CallLog{path: path}
}

func (l *CallLog) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", l.path)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return err
	}

	schema := `
CREATE TABLE IF NOT EXISTS tool_calls (
  call_id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_unix INTEGER NOT NULL,
  tool TEXT NOT NULL,
  model TEXT NOT NULL,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  is_error INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tool_calls_ts ON tool_calls(ts_unix);
CREATE INDEX IF NOT EXISTS idx_tool_calls_tool ON tool_calls(tool);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return err
	}

	l.db = db
	return nil
}

func (l *CallLog) Record(ctx context.Context, rec model.CallRecord) error {
	l.mu.Lock()
	db := l.db
	l.mu.Unlock()
	if db == nil {
		return errNotInitialized
	}

	isError := 0
	if rec.IsError {
		isError = 1
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO tool_calls (ts_unix, tool, model, duration_ms, is_error, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.TSUnix, rec.Tool, rec.Model, rec.DurationMS, isError, rec.Error,
	)
	return err
}

// Recent returns up to limit records, newest first.
func (l *CallLog) Recent(ctx context.Context, limit int) ([]model.CallRecord, error) {
	l.mu.Lock()
	db := l.db
	l.mu.Unlock()
	if db == nil {
		return nil, errNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx,
		`SELECT ts_unix, tool, model, duration_ms, is_error, error
		 FROM tool_calls ORDER BY ts_unix DESC, call_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CallRecord
	for rows.Next() {
		var rec model.CallRecord
		var isError int
		if err := rows.Scan(&rec.TSUnix, &rec.Tool, &rec.Model, &rec.DurationMS, &isError, &rec.Error); err != nil {
			return nil, err
		}
		rec.IsError = isError != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (l *CallLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
