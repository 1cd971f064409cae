package coup

import (
	"time"

	"coup-lite/card"
)

// PendingAction is a submitted action waiting out its response window,
// and doubles as the history record once settled.
type PendingAction struct {
	Turn      int        `json:"turn"`
	ActorID   string     `json:"actorId"`
	Type      ActionType `json:"type"`
	TargetID  string     `json:"targetId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`

	// ClaimedRole is set for role-claiming actions and for blocks.
	ClaimedRole card.Role `json:"claimedRole,omitempty"`

	Contested     bool `json:"contested"`
	Resolved      bool `json:"resolved"`
	EffectApplied bool `json:"effectApplied"`
}

// Claims reports whether the entry carries a role claim that a
// challenger could contest.
func (pa *PendingAction) Claims() bool {
	return pa.ClaimedRole != card.RoleInvalid
}

// CardChooser decides which concrete cards a player gives up. The engine
// calls it for influence losses and ambassador exchanges; the server layer
// plugs in human prompts or bot policy, the default keeps things moving.
type CardChooser interface {
	// ChooseCardToLose returns an index into the player's hand.
	ChooseCardToLose(p *Player) int

	// ChooseExchange picks the cards to keep out of hand+drawn.
	// The returned list must have len(hand) cards drawn from the pool.
	ChooseExchange(p *Player, drawn card.CardList) card.CardList
}

// defaultChooser loses the first card and declines the exchange draw.
type defaultChooser struct{}

func (defaultChooser) ChooseCardToLose(p *Player) int { return 0 }

func (defaultChooser) ChooseExchange(p *Player, drawn card.CardList) card.CardList {
	return p.Hand.Clone()
}
