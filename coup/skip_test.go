package coup

import (
	"errors"
	"testing"

	"coup-lite/card"
)

func TestSkipResolvesStalledResponseWindow(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	if _, err := g.ExecuteAction("p1", ActionForeignAid, ""); err != nil {
		t.Fatalf("foreign aid: %v", err)
	}

	out, err := g.SkipTurn()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if out.Resolved == nil || !out.Resolved.Applied {
		t.Fatalf("stalled window should auto-resolve, got %+v", out)
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins+2 {
		t.Fatalf("p1 coins = %d", got)
	}
	// Auto-resolve is not the actor's fault, no skip is charged.
	if got := player(t, g, "p1").ConsecutiveSkips; got != 0 {
		t.Fatalf("p1 skips = %d", got)
	}
	if g.CurrentPlayer() != "p2" {
		t.Fatalf("turn did not advance")
	}
}

func TestSkipStalledTurnOwner(t *testing.T) {
	g := startedMatch(t, "p1", "p2", "p3")

	out, err := g.SkipTurn()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if out.SkippedID != "p1" || out.Skips != 1 || out.Eliminated {
		t.Fatalf("outcome = %+v", out)
	}
	if g.CurrentPlayer() != "p2" {
		t.Fatalf("turn did not advance")
	}
	last := g.history[len(g.history)-1]
	if last.Type != ActionSkip || last.ActorID != "p1" {
		t.Fatalf("skip not recorded: %+v", last)
	}
}

func TestSkipCounterResetsOnAction(t *testing.T) {
	g := startedMatch(t, "p1", "p2")

	if _, err := g.SkipTurn(); err != nil { // p1 skips
		t.Fatalf("skip p1: %v", err)
	}
	if _, err := g.SkipTurn(); err != nil { // p2 skips
		t.Fatalf("skip p2: %v", err)
	}
	if _, err := g.ExecuteAction("p1", ActionIncome, ""); err != nil {
		t.Fatalf("income: %v", err)
	}
	if got := player(t, g, "p1").ConsecutiveSkips; got != 0 {
		t.Fatalf("p1 skips = %d after acting", got)
	}
	if got := player(t, g, "p2").ConsecutiveSkips; got != 1 {
		t.Fatalf("p2 skips = %d", got)
	}
}

func TestChallengeResetsSkipCounter(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	player(t, g, "p2").ConsecutiveSkips = 2

	if _, err := g.ExecuteAction("p1", ActionTax, ""); err != nil {
		t.Fatalf("tax: %v", err)
	}
	if _, err := g.ChallengeAction("p2"); err != nil {
		t.Fatalf("challenge: %v", err)
	}
	// Challenging is a voluntary act, same as acting or blocking.
	if got := player(t, g, "p2").ConsecutiveSkips; got != 0 {
		t.Fatalf("p2 skips = %d after challenging", got)
	}
}

func TestThreeSkipsEliminate(t *testing.T) {
	g := startedMatch(t, "p1", "p2", "p3")

	for round := 1; round <= MaxConsecutiveSkips; round++ {
		out, err := g.SkipTurn() // p1 stalls every round
		if err != nil {
			t.Fatalf("skip round %d: %v", round, err)
		}
		if out.Skips != round {
			t.Fatalf("round %d skips = %d", round, out.Skips)
		}
		wantGone := round == MaxConsecutiveSkips
		if out.Eliminated != wantGone {
			t.Fatalf("round %d eliminated = %v", round, out.Eliminated)
		}
		if wantGone {
			break
		}
		// The other seats keep playing.
		if _, err := g.ExecuteAction("p2", ActionIncome, ""); err != nil {
			t.Fatalf("p2 income: %v", err)
		}
		if _, err := g.ExecuteAction("p3", ActionIncome, ""); err != nil {
			t.Fatalf("p3 income: %v", err)
		}
	}

	if player(t, g, "p1").Alive {
		t.Fatalf("p1 should be eliminated")
	}
	if g.Phase() != PhasePlaying {
		t.Fatalf("match should continue with two seats")
	}
	if totalCards(g) != card.DeckSize {
		t.Fatalf("card conservation broken: %d", totalCards(g))
	}
}

func TestSkipEliminationEndsHeadsUp(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	player(t, g, "p1").ConsecutiveSkips = MaxConsecutiveSkips - 1

	out, err := g.SkipTurn()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if !out.Eliminated {
		t.Fatalf("outcome = %+v", out)
	}
	if out.WinnerID != "p2" {
		t.Fatalf("winner = %q", out.WinnerID)
	}
	if g.Phase() != PhaseEnded {
		t.Fatalf("phase = %s", g.Phase())
	}
}

func TestSkipOutsidePlaying(t *testing.T) {
	g := newTestMatch(t, "p1", "p2")
	if _, err := g.SkipTurn(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("lobby skip = %v", err)
	}
}
