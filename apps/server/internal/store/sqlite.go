package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"coup-lite/coup"
)

// SQLiteStore keeps one row per match with the full document as JSON.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS matches (
    code        TEXT PRIMARY KEY,
    phase       TEXT NOT NULL,
    doc         TEXT NOT NULL,
    saved_at_ms INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(doc coup.Document) error {
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal match %s: %w", doc.Code, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO matches (code, phase, doc, saved_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(code) DO UPDATE SET
    phase = excluded.phase,
    doc = excluded.doc,
    saved_at_ms = excluded.saved_at_ms;`,
		doc.Code, string(doc.Phase), string(blob), time.Now().UnixMilli())
	return err
}

func (s *SQLiteStore) Load(code string) (coup.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM matches WHERE code = ?;`, code).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return coup.Document{}, coup.ErrMatchNotFound
	}
	if err != nil {
		return coup.Document{}, err
	}

	var doc coup.Document
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		return coup.Document{}, fmt.Errorf("unmarshal match %s: %w", code, err)
	}
	return doc, nil
}

func (s *SQLiteStore) Delete(code string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE code = ?;`, code)
	return err
}

func (s *SQLiteStore) List() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT code FROM matches ORDER BY saved_at_ms DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
