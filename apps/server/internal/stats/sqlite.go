package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteService struct {
	db *sql.DB
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
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
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSQLiteStatsSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{db: db}, nil
}

func ensureSQLiteStatsSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS match_results (
    code           TEXT PRIMARY KEY,
    winner_id      TEXT NOT NULL,
    turns          INTEGER NOT NULL,
    finished_at_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS match_participants (
    code         TEXT NOT NULL REFERENCES match_results(code) ON DELETE CASCADE,
    player_id    TEXT NOT NULL,
    display_name TEXT NOT NULL,
    is_bot       INTEGER NOT NULL,
    won          INTEGER NOT NULL,
    PRIMARY KEY (code, player_id)
);
CREATE INDEX IF NOT EXISTS idx_participants_player ON match_participants(player_id);`)
	return err
}

func (s *SQLiteService) RecordMatch(result MatchResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO match_results (code, winner_id, turns, finished_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(code) DO NOTHING;`,
		result.Code, result.WinnerID, result.Turns, result.FinishedAt.UnixMilli()); err != nil {
		return err
	}
	for _, p := range result.Participants {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO match_participants (code, player_id, display_name, is_bot, won)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(code, player_id) DO NOTHING;`,
			result.Code, p.PlayerID, p.DisplayName, boolToInt(p.IsBot), boolToInt(p.Won)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteService) PlayerStats(playerID string) (PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st := PlayerStats{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx, `
SELECT COALESCE(MAX(display_name), ''), COUNT(*), COALESCE(SUM(won), 0)
FROM match_participants
WHERE player_id = ?;`, playerID).Scan(&st.DisplayName, &st.Matches, &st.Wins)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	return st, err
}

func (s *SQLiteService) Leaderboard(limit int) ([]PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT player_id, MAX(display_name), COUNT(*), SUM(won) AS wins
FROM match_participants
WHERE is_bot = 0
GROUP BY player_id
ORDER BY wins DESC, COUNT(*) ASC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerStats
	for rows.Next() {
		var st PlayerStats
		if err := rows.Scan(&st.PlayerID, &st.DisplayName, &st.Matches, &st.Wins); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
