package coup

// Phase 对局阶段
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// ActionType identifies a turn action or a companion history entry.
type ActionType string

const (
	ActionIncome      ActionType = "income"
	ActionForeignAid  ActionType = "foreign-aid"
	ActionCoup        ActionType = "coup"
	ActionTax         ActionType = "tax"
	ActionAssassinate ActionType = "assassinate"
	ActionSteal       ActionType = "steal"
	ActionExchange    ActionType = "exchange"

	// ActionBlock is the counter-claim recorded when a player blocks.
	ActionBlock ActionType = "block"
	// ActionSkip is recorded when the liveness coordinator skips a stalled turn.
	ActionSkip ActionType = "skip"
)

// TurnActions lists the actions a player may submit on their turn.
var TurnActions = []ActionType{
	ActionIncome, ActionForeignAid, ActionCoup,
	ActionTax, ActionAssassinate, ActionSteal, ActionExchange,
}

func (a ActionType) Valid() bool {
	for _, t := range TurnActions {
		if a == t {
			return true
		}
	}
	return false
}

const (
	// StartingCoins is assigned to every player at join time.
	StartingCoins = 2
	// HandSize is the number of cards dealt to each player at start.
	HandSize = 2
	// ForcedCoupThreshold: at 10+ coins the only legal action is coup.
	ForcedCoupThreshold = 10
	// MaxConsecutiveSkips eliminates a player who stalls this many turns in a row.
	MaxConsecutiveSkips = 3

	MinPlayers = 2
	MaxPlayers = 6
)
