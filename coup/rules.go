package coup

import "coup-lite/card"

// Static action rules. Pure lookups, never mutated.

var actionCosts = map[ActionType]int{
	ActionIncome:      0,
	ActionForeignAid:  0,
	ActionCoup:        7,
	ActionTax:         0,
	ActionAssassinate: 3,
	ActionSteal:       0,
	ActionExchange:    0,
}

var requiredRoles = map[ActionType]card.Role{
	ActionTax:         card.RoleDuke,
	ActionAssassinate: card.RoleAssassin,
	ActionSteal:       card.RoleCaptain,
	ActionExchange:    card.RoleAmbassador,
}

var blockingRoles = map[ActionType][]card.Role{
	ActionForeignAid:  {card.RoleDuke},
	ActionAssassinate: {card.RoleContessa},
	ActionSteal:       {card.RoleCaptain, card.RoleAmbassador},
}

var targetedActions = map[ActionType]bool{
	ActionCoup:        true,
	ActionAssassinate: true,
	ActionSteal:       true,
}

// Cost returns the coin cost of an action (coup=7, assassinate=3, others 0).
func Cost(a ActionType) int {
	return actionCosts[a]
}

// CanAfford reports whether a player with the given coins can pay for the action.
func CanAfford(coins int, a ActionType) bool {
	return coins >= Cost(a)
}

// MustCoup reports whether the forced-coup rule applies.
func MustCoup(coins int) bool {
	return coins >= ForcedCoupThreshold
}

// RequiresRole reports whether the action carries a role claim
// (and is therefore challengeable).
func RequiresRole(a ActionType) bool {
	_, ok := requiredRoles[a]
	return ok
}

// RequiredRole returns the role an action claims, if any.
func RequiredRole(a ActionType) (card.Role, bool) {
	r, ok := requiredRoles[a]
	return r, ok
}

// IsBlockable reports whether any role can block the action.
func IsBlockable(a ActionType) bool {
	return len(blockingRoles[a]) > 0
}

// BlockingRoles returns the roles able to block an action, in fixed order.
func BlockingRoles(a ActionType) []card.Role {
	roles := blockingRoles[a]
	out := make([]card.Role, len(roles))
	copy(out, roles)
	return out
}

// CanBlockWith reports whether the given role blocks the given action.
func CanBlockWith(a ActionType, role card.Role) bool {
	for _, r := range blockingRoles[a] {
		if r == role {
			return true
		}
	}
	return false
}

// NeedsTarget reports whether the action must name another living player.
func NeedsTarget(a ActionType) bool {
	return targetedActions[a]
}

// NeedsResponse reports whether a response window opens after the action is
// submitted: true when the action is challengeable or blockable.
func NeedsResponse(a ActionType) bool {
	return RequiresRole(a) || IsBlockable(a)
}
