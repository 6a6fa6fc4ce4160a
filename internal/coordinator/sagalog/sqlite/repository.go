// Package sqlite stores lifecycle log entries in a SQLite file.
//
// WAL mode lets the HTTP handlers read history while simulator runs write.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS lifecycle_log (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id          TEXT    NOT NULL,
    order_id        TEXT    NOT NULL,
    status          TEXT    NOT NULL,
    step            TEXT    NOT NULL DEFAULT '',
    order_status    TEXT    NOT NULL DEFAULT '',
    error_messages  TEXT    NOT NULL DEFAULT '[]',
    trace_id        TEXT    NOT NULL DEFAULT '',
    span_id         TEXT    NOT NULL DEFAULT '',
    recorded_at     TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lifecycle_log_order ON lifecycle_log(order_id, id);
CREATE INDEX IF NOT EXISTS idx_lifecycle_log_trace ON lifecycle_log(trace_id);
`

const columns = `run_id, order_id, status, step, order_status, error_messages, trace_id, span_id, recorded_at`

type Repository struct {
	db *sql.DB
}

// Open creates the database at path if needed and applies the schema.
//
//	repo, err := sqlite.Open("./data/sagalog.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Save(ctx context.Context, e *sagalog.Entry) error {
	errs := e.ErrorMessages
	if errs == nil {
		errs = []string{}
	}
	errJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("sqlite: encode errors for %q: %w", e.OrderID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO lifecycle_log (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID,
		e.OrderID,
		string(e.Status),
		e.Step,
		e.OrderStatus,
		string(errJSON),
		e.TraceID,
		e.SpanID,
		formatTime(e.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save entry for %q: %w", e.OrderID, err)
	}
	return nil
}

func (r *Repository) GetLatest(ctx context.Context, orderID string) (*sagalog.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM lifecycle_log WHERE order_id = ? ORDER BY id DESC LIMIT 1`, orderID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: order %q: %w", orderID, sagalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", orderID, err)
	}
	return &e, nil
}

func (r *Repository) History(ctx context.Context, orderID string) ([]sagalog.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM lifecycle_log WHERE order_id = ? ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", orderID, err)
	}
	defer rows.Close()

	var out []sagalog.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan history for %q: %w", orderID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (sagalog.Entry, error) {
	var (
		e          sagalog.Entry
		status     string
		errJSON    string
		recordedAt string
	)
	err := s.Scan(&e.RunID, &e.OrderID, &status, &e.Step, &e.OrderStatus, &errJSON, &e.TraceID, &e.SpanID, &recordedAt)
	if err != nil {
		return sagalog.Entry{}, err
	}
	e.Status = sagalog.Status(status)

	if err := json.Unmarshal([]byte(errJSON), &e.ErrorMessages); err != nil {
		return sagalog.Entry{}, fmt.Errorf("decode error messages: %w", err)
	}
	if len(e.ErrorMessages) == 0 {
		e.ErrorMessages = nil
	}
	if e.RecordedAt, err = parseTime(recordedAt); err != nil {
		return sagalog.Entry{}, err
	}
	return e, nil
}
