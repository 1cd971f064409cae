package stats

import (
	"sort"
	"sync"
)

// MemoryService is the zero-config stats backend.
type MemoryService struct {
	mu      sync.Mutex
	players map[string]*PlayerStats
	results []MatchResult
}

func NewMemoryService() *MemoryService {
	return &MemoryService{players: make(map[string]*PlayerStats)}
}

func (s *MemoryService) RecordMatch(result MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, result)
	for _, p := range result.Participants {
		if p.IsBot {
			continue
		}
		st, ok := s.players[p.PlayerID]
		if !ok {
			st = &PlayerStats{PlayerID: p.PlayerID}
			s.players[p.PlayerID] = st
		}
		st.DisplayName = p.DisplayName
		st.Matches++
		if p.Won {
			st.Wins++
		}
	}
	return nil
}

func (s *MemoryService) PlayerStats(playerID string) (PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.players[playerID]; ok {
		return *st, nil
	}
	return PlayerStats{PlayerID: playerID}, nil
}

func (s *MemoryService) Leaderboard(limit int) ([]PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PlayerStats, 0, len(s.players))
	for _, st := range s.players {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Matches < out[j].Matches
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryService) Close() error { return nil }
