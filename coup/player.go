package coup

import "coup-lite/card"

// ControllerKind separates human seats from bot seats.
type ControllerKind string

const (
	ControllerHuman ControllerKind = "human"
	ControllerBot   ControllerKind = "bot"
)

// Controller records who drives a seat. Bot parameters are kept as plain
// strings so the engine stays decoupled from the npc package.
type Controller struct {
	Kind        ControllerKind `json:"kind"`
	Difficulty  string         `json:"difficulty,omitempty"`
	Personality string         `json:"personality,omitempty"`
}

// Player 座位状态
type Player struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"displayName"`
	Seat        int           `json:"seat"`
	Hand        card.CardList `json:"hand"`
	Coins       int           `json:"coins"`
	Alive       bool          `json:"alive"`
	Ready       bool          `json:"ready"`
	Connected   bool          `json:"connected"`

	// Revealed lists every role this seat has shown face-up: lost
	// influence, challenge proofs, elimination. The cards themselves
	// went back into the deck.
	Revealed []card.Role `json:"revealed,omitempty"`

	// ConsecutiveSkips counts turns skipped in a row by the liveness
	// coordinator. Reset on any voluntary action.
	ConsecutiveSkips int `json:"consecutiveSkips"`

	Controller Controller `json:"controller"`
}

// Influence is the number of face-down cards the player still holds.
func (p *Player) Influence() int {
	return p.Hand.Count()
}

// HasRole reports whether the player truthfully holds the role.
func (p *Player) HasRole(r card.Role) bool {
	return p.Hand.HasRole(r)
}

func (p *Player) IsBot() bool {
	return p.Controller.Kind == ControllerBot
}
