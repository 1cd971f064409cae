package npc

import (
	"math/rand"
	"sort"

	"coup-lite/card"
	"coup-lite/coup"
)

// RuleBrain makes decisions from a PersonalityProfile with tunable
// thresholds and a seeded rng, so a given seed replays identically.
type RuleBrain struct {
	DisplayName string
	Profile     PersonalityProfile
	rng         *rand.Rand
}

func NewRuleBrain(name string, profile PersonalityProfile, seed int64) *RuleBrain {
	return &RuleBrain{
		DisplayName: name,
		Profile:     profile,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (b *RuleBrain) Name() string { return b.DisplayName }

// DecideAction walks a fixed priority ladder: forced coup, aggressive
// coup, assassinate (real then bluffed), tax, steal, exchange, foreign
// aid, income. Each rung fires on a profile-weighted coin flip.
func (b *RuleBrain) DecideAction(view GameView) Decision {
	opps := view.opponents()
	if len(opps) == 0 {
		return Decision{Action: coup.ActionIncome, Confidence: 0.5, Reasoning: "no opponents left"}
	}
	p := b.Profile

	if coup.MustCoup(view.Coins) {
		return Decision{Action: coup.ActionCoup, TargetID: coupTarget(opps).ID,
			Confidence: 1, Reasoning: "forced coup at ten coins"}
	}

	if view.Coins >= coup.Cost(coup.ActionCoup) && b.rng.Float64() < p.Aggressiveness {
		return Decision{Action: coup.ActionCoup, TargetID: coupTarget(opps).ID,
			Confidence: 0.8, Reasoning: "coup the strongest seat"}
	}

	if view.Coins >= coup.Cost(coup.ActionAssassinate) {
		if view.hasRole(card.RoleAssassin) {
			if b.rng.Float64() < 0.7 {
				return Decision{Action: coup.ActionAssassinate, TargetID: assassinateTarget(opps).ID,
					Confidence: 0.9, Reasoning: "assassinate with the Assassin"}
			}
		} else if b.rng.Float64() < p.BluffFrequency*0.5 {
			return Decision{Action: coup.ActionAssassinate, TargetID: assassinateTarget(opps).ID,
				Confidence: 0.4, Reasoning: "bluffed assassinate"}
		}
	}

	if view.hasRole(card.RoleDuke) {
		return Decision{Action: coup.ActionTax, Confidence: 0.9, Reasoning: "tax with the Duke"}
	}
	if b.rng.Float64() < p.BluffFrequency {
		return Decision{Action: coup.ActionTax, Confidence: 0.4, Reasoning: "bluffed tax"}
	}

	if view.hasRole(card.RoleCaptain) {
		if t := stealTarget(opps); t != nil {
			return Decision{Action: coup.ActionSteal, TargetID: t.ID,
				Confidence: 0.9, Reasoning: "steal with the Captain"}
		}
	} else if b.rng.Float64() < p.BluffFrequency*0.7 {
		if t := stealTarget(opps); t != nil {
			return Decision{Action: coup.ActionSteal, TargetID: t.ID,
				Confidence: 0.4, Reasoning: "bluffed steal"}
		}
	}

	if view.hasRole(card.RoleAmbassador) && b.rng.Float64() < 0.6 {
		return Decision{Action: coup.ActionExchange, Confidence: 0.7, Reasoning: "cycle the hand with the Ambassador"}
	}

	if b.rng.Float64() < 0.6 {
		return Decision{Action: coup.ActionForeignAid, Confidence: 0.6, Reasoning: "foreign aid, risk a Duke block"}
	}
	return Decision{Action: coup.ActionIncome, Confidence: 0.5, Reasoning: "income fallback"}
}

// DecideChallenge contests the pending claim when the believed chance
// the actor holds the role falls under the profile threshold.
func (b *RuleBrain) DecideChallenge(view GameView) bool {
	pa := view.Pending
	if pa == nil || !pa.Claims() || pa.ActorID == view.SelfID {
		return false
	}

	ob, _ := beliefAbout(view, pa.ActorID)
	belief := estimateHoldsRole(view, pa.ActorID, pa.ClaimedRole)
	belief += claimHistoryBonus(ob, pa.Type)
	if belief > 1 {
		belief = 1
	}

	// Random holdback keeps the bot from challenging on every read.
	return belief < b.Profile.ChallengeThreshold && b.rng.Float64() > 0.3
}

// DecideBlock answers the pending action with a blocking claim, real or
// bluffed.
func (b *RuleBrain) DecideBlock(view GameView) (card.Role, bool) {
	pa := view.Pending
	if pa == nil || pa.Type == coup.ActionBlock || pa.ActorID == view.SelfID {
		return card.RoleInvalid, false
	}
	roles := coup.BlockingRoles(pa.Type)
	if len(roles) == 0 {
		return card.RoleInvalid, false
	}

	isTarget := pa.TargetID == view.SelfID
	if pa.TargetID != "" && !isTarget {
		return card.RoleInvalid, false
	}

	for _, r := range roles {
		if !view.hasRole(r) {
			continue
		}
		prob := 0.4
		if isTarget {
			prob = 0.9
		}
		if b.rng.Float64() < prob {
			return r, true
		}
		break
	}

	if isTarget && b.rng.Float64() < b.Profile.BluffFrequency {
		return roles[b.rng.Intn(len(roles))], true
	}
	return card.RoleInvalid, false
}

// ChooseCardToLose gives up a duplicate first, then the least useful role.
func (b *RuleBrain) ChooseCardToLose(p *coup.Player) int {
	for i, c := range p.Hand {
		if p.Hand.CountRole(c.Role) > 1 {
			return i
		}
	}
	worst := 0
	for i, c := range p.Hand {
		if roleValue(c.Role) < roleValue(p.Hand[worst].Role) {
			worst = i
		}
	}
	return worst
}

// ChooseExchange keeps the highest-value distinct roles from hand+drawn.
func (b *RuleBrain) ChooseExchange(p *coup.Player, drawn card.CardList) card.CardList {
	pool := p.Hand.Clone()
	for _, c := range drawn {
		pool.Add(c)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return roleValue(pool[i].Role) > roleValue(pool[j].Role)
	})

	want := p.Influence()
	keep := make(card.CardList, 0, want)
	// First pass prefers distinct roles, second pass fills up.
	for _, c := range pool {
		if len(keep) == want {
			break
		}
		if !keep.HasRole(c.Role) {
			keep.Add(c)
		}
	}
	for _, c := range pool {
		if len(keep) == want {
			break
		}
		if indexOfInstance(keep, c.InstanceID) < 0 {
			keep.Add(c)
		}
	}
	return keep
}

func roleValue(r card.Role) int {
	switch r {
	case card.RoleDuke:
		return 5
	case card.RoleContessa:
		return 4
	case card.RoleCaptain:
		return 3
	case card.RoleAssassin:
		return 2
	case card.RoleAmbassador:
		return 1
	}
	return 0
}

func indexOfInstance(list card.CardList, id string) int {
	for i, c := range list {
		if c.InstanceID == id {
			return i
		}
	}
	return -1
}

// coupTarget picks the most dangerous opponent by coins and influence.
func coupTarget(opps []coup.PlayerSnapshot) coup.PlayerSnapshot {
	best := opps[0]
	for _, p := range opps[1:] {
		if p.Coins+p.Influence*3 > best.Coins+best.Influence*3 {
			best = p
		}
	}
	return best
}

// assassinateTarget picks the second-richest opponent: strong, but not
// worth the four extra coins a coup would cost.
func assassinateTarget(opps []coup.PlayerSnapshot) coup.PlayerSnapshot {
	sorted := make([]coup.PlayerSnapshot, len(opps))
	copy(sorted, opps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Coins > sorted[j].Coins
	})
	if len(sorted) > 1 {
		return sorted[1]
	}
	return sorted[0]
}

// stealTarget picks the richest opponent still holding coins, nil if
// everyone is broke.
func stealTarget(opps []coup.PlayerSnapshot) *coup.PlayerSnapshot {
	var best *coup.PlayerSnapshot
	for i := range opps {
		if opps[i].Coins <= 0 {
			continue
		}
		if best == nil || opps[i].Coins > best.Coins {
			best = &opps[i]
		}
	}
	return best
}
