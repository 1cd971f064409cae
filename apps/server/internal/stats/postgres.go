package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

type PostgresService struct {
	db *sql.DB
}

func NewPostgresServiceFromEnv() (*PostgresService, error) {
	dsn := strings.TrimSpace(os.Getenv("STATS_DATABASE_URL"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return nil, fmt.Errorf("STATS_DATABASE_URL or DATABASE_URL is required for postgres stats")
	}
	return NewPostgresService(dsn)
}

func NewPostgresService(dsn string) (*PostgresService, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresStatsSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresService{db: db}, nil
}

func ensurePostgresStatsSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS match_results (
    code           TEXT PRIMARY KEY,
    winner_id      TEXT NOT NULL,
    turns          INTEGER NOT NULL,
    finished_at_ms BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS match_participants (
    code         TEXT NOT NULL REFERENCES match_results(code) ON DELETE CASCADE,
    player_id    TEXT NOT NULL,
    display_name TEXT NOT NULL,
    is_bot       BOOLEAN NOT NULL,
    won          BOOLEAN NOT NULL,
    PRIMARY KEY (code, player_id)
);
CREATE INDEX IF NOT EXISTS idx_participants_player ON match_participants(player_id);`)
	return err
}

func (s *PostgresService) RecordMatch(result MatchResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO match_results (code, winner_id, turns, finished_at_ms)
VALUES ($1, $2, $3, $4)
ON CONFLICT (code) DO NOTHING;`,
		result.Code, result.WinnerID, result.Turns, result.FinishedAt.UnixMilli()); err != nil {
		return err
	}
	for _, p := range result.Participants {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO match_participants (code, player_id, display_name, is_bot, won)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (code, player_id) DO NOTHING;`,
			result.Code, p.PlayerID, p.DisplayName, p.IsBot, p.Won); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresService) PlayerStats(playerID string) (PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st := PlayerStats{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx, `
SELECT COALESCE(MAX(display_name), ''), COUNT(*), COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0)
FROM match_participants
WHERE player_id = $1;`, playerID).Scan(&st.DisplayName, &st.Matches, &st.Wins)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	return st, err
}

func (s *PostgresService) Leaderboard(limit int) ([]PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT player_id, MAX(display_name), COUNT(*),
       SUM(CASE WHEN won THEN 1 ELSE 0 END) AS wins
FROM match_participants
WHERE NOT is_bot
GROUP BY player_id
ORDER BY wins DESC, COUNT(*) ASC
LIMIT $1;`, limit)
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

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
