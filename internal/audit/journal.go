// Package audit records what this client did: structured audit events on
// the log stream, and a local SQLite journal of transfer attempts so past
// activity can be inspected without a round trip to the remote API.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// Entry is a single journaled transfer attempt.
type Entry struct {
	ID            int64
	Time          time.Time
	Operation     string
	FromAccount   string
	ToAccount     string
	Amount        float64
	TransactionID string
	Status        string
	Error         string
	RequestID     string
}

// Journal provides SQLite persistence for transfer attempts.
type Journal struct {
	db *sql.DB
}

// Open initializes the journal database and runs migrations.
// busy_timeout avoids "database locked" errors when two invocations race.
func Open(dbPath string) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run audit migrations: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transfer_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		time TEXT NOT NULL,
		operation TEXT NOT NULL,
		from_account TEXT NOT NULL DEFAULT '',
		to_account TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL DEFAULT 0,
		transaction_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		request_id TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_transfer_log_time ON transfer_log(time);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Record appends an entry to the journal.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	query := `
	INSERT INTO transfer_log (time, operation, from_account, to_account, amount, transaction_id, status, error, request_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		e.Time.UTC().Format(time.RFC3339Nano),
		e.Operation,
		e.FromAccount,
		e.ToAccount,
		e.Amount,
		e.TransactionID,
		e.Status,
		e.Error,
		e.RequestID,
	)
	return err
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, time, operation, from_account, to_account, amount, transaction_id, status, error, request_id
	FROM transfer_log
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var timeStr string

		if err := rows.Scan(
			&e.ID,
			&timeStr,
			&e.Operation,
			&e.FromAccount,
			&e.ToAccount,
			&e.Amount,
			&e.TransactionID,
			&e.Status,
			&e.Error,
			&e.RequestID,
		); err != nil {
			return nil, err
		}

		e.Time, _ = time.Parse(time.RFC3339Nano, timeStr)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
