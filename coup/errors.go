package coup

import "errors"

var (
	ErrInvalidPhase       = errors.New("invalid phase for this operation")
	ErrNotEnoughPlayers   = errors.New("need at least 2 players")
	ErrPlayersNotReady    = errors.New("all players must be ready")
	ErrMatchFull          = errors.New("match is full")
	ErrUnknownPlayer      = errors.New("player not in match")
	ErrWrongTurn          = errors.New("not this player's turn")
	ErrPlayerDead         = errors.New("player is eliminated")
	ErrInsufficientCoins  = errors.New("not enough coins for this action")
	ErrForcedCoupRequired = errors.New("must coup with 10 or more coins")
	ErrInvalidTarget      = errors.New("invalid target")
	ErrActionInProgress   = errors.New("an action is already pending")
	ErrNoPendingAction    = errors.New("no pending action")
	ErrNotChallengeable   = errors.New("action cannot be challenged")
	ErrRoleCannotBlock    = errors.New("role cannot block this action")
	ErrMatchNotFound      = errors.New("match not found")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
