package npc

import (
	"coup-lite/card"
	"coup-lite/coup"
)

// GameView is a read-only projection of the match visible to one bot.
// Opponent hands are never present, only influence counts.
type GameView struct {
	SelfID  string
	Hand    card.CardList
	Coins   int
	Players []coup.PlayerSnapshot
	History []coup.PendingAction
	Pending *coup.PendingAction
}

// ViewFromSnapshot builds a bot's view from a snapshot already redacted
// for that bot.
func ViewFromSnapshot(selfID string, snap coup.Snapshot) GameView {
	view := GameView{
		SelfID:  selfID,
		Players: snap.Players,
		History: snap.History,
		Pending: snap.Pending,
	}
	for _, p := range snap.Players {
		if p.ID == selfID {
			view.Hand = p.Hand
			view.Coins = p.Coins
			break
		}
	}
	return view
}

func (v GameView) hasRole(r card.Role) bool {
	return v.Hand.HasRole(r)
}

// opponents returns the living players other than the bot itself.
func (v GameView) opponents() []coup.PlayerSnapshot {
	out := make([]coup.PlayerSnapshot, 0, len(v.Players))
	for _, p := range v.Players {
		if p.ID != v.SelfID && p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// Decision is a turn action chosen by a brain, with how sure it is and
// a short line saying why.
type Decision struct {
	Action     coup.ActionType
	TargetID   string
	Confidence float64
	Reasoning  string
}

// Brain is the decision interface all bot types implement.
type Brain interface {
	// DecideAction is called when it's the bot's turn.
	DecideAction(view GameView) Decision
	// DecideChallenge is called while another player's claim is pending.
	DecideChallenge(view GameView) bool
	// DecideBlock is called while a blockable action is pending.
	DecideBlock(view GameView) (card.Role, bool)
	// Name returns a human-readable identifier for debugging.
	Name() string
}
