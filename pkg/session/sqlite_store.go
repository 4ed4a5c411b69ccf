package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS session_topics (
	topic     TEXT PRIMARY KEY,
	route_key INTEGER NOT NULL
);`

// SQLiteStore keeps the session in a SQLite database, so several named
// client profiles can share one file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and migrates) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, overlayerrors.NewStorageError("sqlite", "open "+path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, overlayerrors.NewStorageError("sqlite", "migrate", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the stored session. Every Save writes the role row, so its
// absence means ErrNotSaved.
func (s *SQLiteStore) Load(ctx context.Context) (*Session, error) {
	var st State

	var role string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_meta WHERE key = 'router'`).Scan(&role)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotSaved
	case err != nil:
		return nil, overlayerrors.NewStorageError("sqlite", "read role", err)
	}
	st.IsRouter = role == "true"

	rows, err := s.db.QueryContext(ctx, `SELECT topic FROM session_topics ORDER BY topic`)
	if err != nil {
		return nil, overlayerrors.NewStorageError("sqlite", "read topics", err)
	}
	defer rows.Close()

	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, overlayerrors.NewStorageError("sqlite", "scan topic", err)
		}
		st.Topics = append(st.Topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, overlayerrors.NewStorageError("sqlite", "read topics", err)
	}

	return FromState(st), nil
}

// Save replaces the stored session with st in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return overlayerrors.NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_meta (key, value) VALUES ('router', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%t", st.IsRouter),
	); err != nil {
		return overlayerrors.NewStorageError("sqlite", "write role", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_topics`); err != nil {
		return overlayerrors.NewStorageError("sqlite", "clear topics", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO session_topics (topic, route_key) VALUES (?, ?)`)
	if err != nil {
		return overlayerrors.NewStorageError("sqlite", "prepare", err)
	}
	defer stmt.Close()

	for _, topic := range st.Topics {
		// route_key is informational; SQLite integers are signed.
		if _, err := stmt.ExecContext(ctx, topic, int64(protocol.Hash(topic))); err != nil {
			return overlayerrors.NewStorageError("sqlite", "write topic "+topic, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return overlayerrors.NewStorageError("sqlite", "commit", err)
	}
	return nil
}
