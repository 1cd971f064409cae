package npc

import (
	"math"
	"testing"

	"coup-lite/card"
	"coup-lite/coup"
)

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %.4f, want %.4f", got, want)
	}
}

func TestEstimateBaseCase(t *testing.T) {
	// No reveals, no own copies: 3 available against a 2-card hand.
	view := testView(handOf(card.RoleAssassin, card.RoleContessa), 2, opp("a", 2, 2))
	approx(t, estimateHoldsRole(view, "a", card.RoleDuke), 3.0/2.0*0.5)
}

func TestEstimateOwnCopiesReduceAvailability(t *testing.T) {
	view := testView(handOf(card.RoleDuke, card.RoleDuke), 2, opp("a", 2, 2))
	// One unseen Duke against two cards.
	approx(t, estimateHoldsRole(view, "a", card.RoleDuke), 1.0/2.0*0.5)
}

func TestEstimateRevealsReduceAvailability(t *testing.T) {
	view := testView(handOf(card.RoleDuke), 2, opp("a", 2, 2), opp("b", 2, 1))
	// One Duke shown by each opponent: all three copies accounted for.
	view.Players[1].Revealed = []card.Role{card.RoleDuke}
	view.Players[2].Revealed = []card.Role{card.RoleDuke}
	approx(t, estimateHoldsRole(view, "a", card.RoleDuke), 0)
}

func TestEstimateSingleInfluenceRaisesOdds(t *testing.T) {
	view := testView(handOf(card.RoleAssassin, card.RoleContessa), 2,
		opp("wide", 2, 2), opp("narrow", 2, 1))
	wide := estimateHoldsRole(view, "wide", card.RoleCaptain)
	narrow := estimateHoldsRole(view, "narrow", card.RoleCaptain)
	if narrow <= wide {
		t.Fatalf("fewer cards should concentrate belief: narrow=%.2f wide=%.2f", narrow, wide)
	}
	// 3 copies / 1 card * 0.5 caps at 1.
	approx(t, narrow, 1.0)
}

func TestEstimateUnknownPlayerDefaults(t *testing.T) {
	view := testView(handOf(card.RoleDuke), 2)
	approx(t, estimateHoldsRole(view, "ghost", card.RoleCaptain), 0.5)
}

func TestEstimateEliminatedPlayer(t *testing.T) {
	view := testView(handOf(card.RoleDuke), 2, opp("a", 2, 0))
	approx(t, estimateHoldsRole(view, "a", card.RoleCaptain), 0)
}

func TestClaimHistoryBonus(t *testing.T) {
	view := testView(handOf(card.RoleDuke), 2, opp("a", 2, 2), opp("b", 2, 2))
	view.History = []coup.PendingAction{
		{ActorID: "a", Type: coup.ActionTax},
		{ActorID: "a", Type: coup.ActionTax},
		{ActorID: "b", Type: coup.ActionTax},
		{ActorID: "a", Type: coup.ActionSteal},
	}
	ba, _ := beliefAbout(view, "a")
	bb, _ := beliefAbout(view, "b")
	approx(t, claimHistoryBonus(ba, coup.ActionTax), 0.2)
	approx(t, claimHistoryBonus(bb, coup.ActionTax), 0.1)
	approx(t, claimHistoryBonus(ba, coup.ActionExchange), 0)
}

func TestClaimHistoryBonusCaps(t *testing.T) {
	view := testView(handOf(card.RoleDuke), 2, opp("a", 2, 2))
	for i := 0; i < 10; i++ {
		view.History = append(view.History, coup.PendingAction{ActorID: "a", Type: coup.ActionTax})
	}
	b, _ := beliefAbout(view, "a")
	approx(t, claimHistoryBonus(b, coup.ActionTax), 0.3)
}

func TestBeliefAboutCollectsRevealsAndClaims(t *testing.T) {
	view := testView(handOf(card.RoleDuke), 2, opp("a", 4, 1), opp("b", 2, 2))
	view.Players[1].Revealed = []card.Role{card.RoleCaptain}
	view.History = []coup.PendingAction{
		{ActorID: "a", Type: coup.ActionTax},
		{ActorID: "b", Type: coup.ActionSteal},
		{ActorID: "a", Type: coup.ActionTax},
	}

	b, ok := beliefAbout(view, "a")
	if !ok {
		t.Fatal("player a not found")
	}
	if b.Influence != 1 {
		t.Fatalf("influence = %d", b.Influence)
	}
	if len(b.RevealedRoles) != 1 || b.RevealedRoles[0] != card.RoleCaptain {
		t.Fatalf("revealed = %v", b.RevealedRoles)
	}
	if b.ClaimCounts[coup.ActionTax] != 2 || b.ClaimCounts[coup.ActionSteal] != 0 {
		t.Fatalf("claim counts = %v", b.ClaimCounts)
	}

	if _, ok := beliefAbout(view, "ghost"); ok {
		t.Fatal("unknown player should not resolve")
	}
}
