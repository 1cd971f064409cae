package coup

import "coup-lite/card"

// PlayerSnapshot is a player as seen from outside the engine.
type PlayerSnapshot struct {
	ID               string        `json:"id"`
	DisplayName      string        `json:"displayName"`
	Seat             int           `json:"seat"`
	Coins            int           `json:"coins"`
	Influence        int           `json:"influence"`
	Alive            bool          `json:"alive"`
	Ready            bool          `json:"ready"`
	Connected        bool          `json:"connected"`
	IsBot            bool          `json:"isBot"`
	ConsecutiveSkips int           `json:"consecutiveSkips"`
	Revealed         []card.Role   `json:"revealed,omitempty"`
	Hand             card.CardList `json:"hand,omitempty"`
}

// Snapshot is a point-in-time copy of a match, safe to hand to other
// goroutines. Hands are always populated; use RedactFor before sending
// it to a client.
type Snapshot struct {
	Code          string           `json:"code"`
	HostID        string           `json:"hostId"`
	Phase         Phase            `json:"phase"`
	Settings      Settings         `json:"settings"`
	Turn          int              `json:"turn"`
	CurrentID     string           `json:"currentId,omitempty"`
	Players       []PlayerSnapshot `json:"players"`
	DeckCount     int              `json:"deckCount"`
	RevealedRoles []card.Role      `json:"revealedRoles,omitempty"`
	Pending       *PendingAction   `json:"pending,omitempty"`
	History       []PendingAction  `json:"history,omitempty"`
	WinnerID      string           `json:"winnerId,omitempty"`
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := Snapshot{
		Code:      g.cfg.Code,
		HostID:    g.hostID,
		Phase:     g.phase,
		Settings:  g.cfg.Settings,
		Turn:      g.turn,
		DeckCount: g.deck.Count(),
		WinnerID:  g.winnerID,
	}
	if g.phase == PhasePlaying && g.currentIdx >= 0 {
		snap.CurrentID = g.players[g.currentIdx].ID
	}
	if g.pending != nil {
		p := *g.pending
		snap.Pending = &p
	}
	if len(g.revealedRoles) > 0 {
		snap.RevealedRoles = make([]card.Role, len(g.revealedRoles))
		copy(snap.RevealedRoles, g.revealedRoles)
	}
	if len(g.history) > 0 {
		snap.History = make([]PendingAction, len(g.history))
		copy(snap.History, g.history)
	}
	snap.Players = make([]PlayerSnapshot, 0, len(g.players))
	for _, p := range g.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:               p.ID,
			DisplayName:      p.DisplayName,
			Seat:             p.Seat,
			Coins:            p.Coins,
			Influence:        p.Influence(),
			Alive:            p.Alive,
			Ready:            p.Ready,
			Connected:        p.Connected,
			IsBot:            p.IsBot(),
			ConsecutiveSkips: p.ConsecutiveSkips,
			Revealed:         append([]card.Role(nil), p.Revealed...),
			Hand:             p.Hand.Clone(),
		})
	}
	return snap
}

// RedactFor strips hidden information for one viewer. Other players'
// hands are dropped until the match ends; influence counts stay.
func (s Snapshot) RedactFor(viewerID string) Snapshot {
	out := s
	out.Players = make([]PlayerSnapshot, len(s.Players))
	copy(out.Players, s.Players)
	if s.Phase == PhaseEnded {
		return out
	}
	for i := range out.Players {
		if out.Players[i].ID != viewerID {
			out.Players[i].Hand = nil
		}
	}
	return out
}
