package stats

import "time"

// Participant is one seat in a finished match.
type Participant struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	IsBot       bool   `json:"isBot"`
	Won         bool   `json:"won"`
}

// MatchResult is the audit record written when a match ends.
type MatchResult struct {
	Code         string        `json:"code"`
	WinnerID     string        `json:"winnerId"`
	Turns        int           `json:"turns"`
	FinishedAt   time.Time     `json:"finishedAt"`
	Participants []Participant `json:"participants"`
}

// PlayerStats aggregates a player's record across matches.
type PlayerStats struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Matches     int    `json:"matches"`
	Wins        int    `json:"wins"`
}

// Service records match outcomes and serves aggregates.
type Service interface {
	RecordMatch(result MatchResult) error
	PlayerStats(playerID string) (PlayerStats, error)
	// Leaderboard returns the top players by wins, humans only.
	Leaderboard(limit int) ([]PlayerStats, error)
	Close() error
}
