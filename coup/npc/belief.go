package npc

import (
	"coup-lite/card"
	"coup-lite/coup"
)

// OpponentBelief is what a bot can assert about one player from public
// information alone: the roles that seat has shown face-up and how often
// it has claimed each action.
type OpponentBelief struct {
	PlayerID      string
	Influence     int
	RevealedRoles []card.Role
	ClaimCounts   map[coup.ActionType]int
}

// beliefAbout collects the belief record for one player. The bool is
// false when the player is not in the view at all.
func beliefAbout(view GameView, playerID string) (OpponentBelief, bool) {
	b := OpponentBelief{PlayerID: playerID}
	found := false
	for _, p := range view.Players {
		if p.ID == playerID {
			b.Influence = p.Influence
			b.RevealedRoles = p.Revealed
			found = true
			break
		}
	}
	for _, h := range view.History {
		if h.ActorID != playerID {
			continue
		}
		if b.ClaimCounts == nil {
			b.ClaimCounts = make(map[coup.ActionType]int)
		}
		b.ClaimCounts[h.Type]++
	}
	return b, found
}

// estimateHoldsRole guesses the probability that an opponent holds the
// given role, from the bot's own hand and every seat's face-up reveals.
// With one unseen copy against a two-card hand this lands around 0.25,
// with all three copies loose it saturates.
func estimateHoldsRole(view GameView, playerID string, role card.Role) float64 {
	available := card.CopiesPerRole
	for _, p := range view.Players {
		for _, r := range p.Revealed {
			if r == role {
				available--
			}
		}
	}
	available -= view.Hand.CountRole(role)
	if available <= 0 {
		return 0
	}

	b, found := beliefAbout(view, playerID)
	if !found {
		return 0.5
	}
	if b.Influence <= 0 {
		return 0
	}

	prob := float64(available) / float64(b.Influence) * 0.5
	if prob > 1 {
		prob = 1
	}
	return prob
}

// claimHistoryBonus raises the belief when the player has made the same
// claim before. Repeat claims cap out at +0.3.
func claimHistoryBonus(b OpponentBelief, action coup.ActionType) float64 {
	bonus := float64(b.ClaimCounts[action]) * 0.1
	if bonus > 0.3 {
		bonus = 0.3
	}
	return bonus
}
