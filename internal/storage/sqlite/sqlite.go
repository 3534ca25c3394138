// Package sqlite implements the bar and factor stores on a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Schema creates all tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS minute_bars (
	code        TEXT NOT NULL,
	datetime    TEXT NOT NULL,
	date        TEXT NOT NULL,
	type        TEXT NOT NULL,
	open        REAL NOT NULL,
	close       REAL NOT NULL,
	high        REAL NOT NULL,
	low         REAL NOT NULL,
	vol         REAL NOT NULL,
	amount      REAL NOT NULL,
	date_stamp  REAL NOT NULL,
	time_stamp  REAL NOT NULL,
	PRIMARY KEY (code, datetime, type)
);

CREATE INDEX IF NOT EXISTS idx_minute_bars_type_date ON minute_bars (type, date);

CREATE TABLE IF NOT EXISTS adjustment_factors (
	code      TEXT NOT NULL,
	date      TEXT NOT NULL,
	forward   REAL NOT NULL,
	backward  REAL NOT NULL,
	PRIMARY KEY (code, date)
);

CREATE TABLE IF NOT EXISTS ingested_files (
	digest       TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	rows         INTEGER NOT NULL,
	ingested_at  INTEGER NOT NULL
);
`

// DB wraps sql.DB for dependency injection.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and applies Schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &DB{DB: db}, nil
}

// isDuplicateKeyError checks if error is a primary key or unique violation.
func isDuplicateKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
