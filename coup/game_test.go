package coup

import (
	"errors"
	"testing"

	"coup-lite/card"
)

func newTestMatch(t *testing.T, names ...string) *Game {
	t.Helper()
	g, err := NewMatch(Config{
		Code:     "TESTAB",
		HostID:   names[0],
		Settings: DefaultSettings(),
		Seed:     42,
	})
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	for _, n := range names {
		if err := g.Join(n, n, Controller{Kind: ControllerHuman}); err != nil {
			t.Fatalf("Join(%s): %v", n, err)
		}
		if err := g.SetReady(n, true); err != nil {
			t.Fatalf("SetReady(%s): %v", n, err)
		}
	}
	return g
}

func startedMatch(t *testing.T, names ...string) *Game {
	t.Helper()
	g := newTestMatch(t, names...)
	if err := g.Start(names[0]); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return g
}

// rig rebuilds all hands and the deck from a fresh 15-card set so the
// conservation invariant stays exact.
func rig(t *testing.T, g *Game, hands map[string][]card.Role) {
	t.Helper()
	deck := card.NewDeck()
	for _, p := range g.players {
		p.Hand = nil
		for _, r := range hands[p.ID] {
			i := deck.IndexOfRole(r)
			if i < 0 {
				t.Fatalf("rig: no %s left in deck", r)
			}
			c, _ := deck.RemoveAt(i)
			p.Hand.Add(c)
		}
	}
	g.deck = deck
}

func totalCards(g *Game) int {
	n := g.deck.Count()
	for _, p := range g.players {
		n += p.Hand.Count()
	}
	return n
}

func player(t *testing.T, g *Game, id string) *Player {
	t.Helper()
	p := g.findPlayerLocked(id)
	if p == nil {
		t.Fatalf("player %s not found", id)
	}
	return p
}

func TestStartDealsHands(t *testing.T) {
	g := startedMatch(t, "p1", "p2", "p3")

	if g.Phase() != PhasePlaying {
		t.Fatalf("phase = %s, want playing", g.Phase())
	}
	if g.CurrentPlayer() != "p1" {
		t.Fatalf("current = %s, want p1", g.CurrentPlayer())
	}
	for _, p := range g.players {
		if p.Influence() != HandSize {
			t.Fatalf("%s has %d cards", p.ID, p.Influence())
		}
		if p.Coins != StartingCoins {
			t.Fatalf("%s has %d coins", p.ID, p.Coins)
		}
	}
	if g.deck.Count() != card.DeckSize-3*HandSize {
		t.Fatalf("deck = %d", g.deck.Count())
	}
	if totalCards(g) != card.DeckSize {
		t.Fatalf("card conservation broken: %d", totalCards(g))
	}
}

func TestStartGuards(t *testing.T) {
	g := newTestMatch(t, "p1", "p2")
	if err := g.Start("p2"); err == nil {
		t.Fatalf("non-host start should fail")
	}
	if err := g.SetReady("p2", false); err != nil {
		t.Fatalf("SetReady: %v", err)
	}
	if err := g.Start("p1"); !errors.Is(err, ErrPlayersNotReady) {
		t.Fatalf("Start with unready player = %v", err)
	}

	solo := newTestMatch(t, "only")
	if err := solo.Start("only"); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("solo start = %v", err)
	}
}

func TestIncomeAppliesImmediately(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	res, err := g.ExecuteAction("p1", ActionIncome, "")
	if err != nil {
		t.Fatalf("income: %v", err)
	}
	if !res.Applied {
		t.Fatalf("income should apply immediately")
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins+1 {
		t.Fatalf("p1 coins = %d", got)
	}
	if g.CurrentPlayer() != "p2" {
		t.Fatalf("turn did not advance")
	}
}

func TestWrongTurnRejected(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	if _, err := g.ExecuteAction("p2", ActionIncome, ""); !errors.Is(err, ErrWrongTurn) {
		t.Fatalf("out of turn action = %v", err)
	}
}

func TestForeignAidResolvesUnopposed(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	res, err := g.ExecuteAction("p1", ActionForeignAid, "")
	if err != nil {
		t.Fatalf("foreign aid: %v", err)
	}
	if res.Applied {
		t.Fatalf("foreign aid should open a response window")
	}
	if _, ok := g.Pending(); !ok {
		t.Fatalf("no pending action")
	}
	out, err := g.ResolveAction()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !out.Applied {
		t.Fatalf("resolve should apply the effect")
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins+2 {
		t.Fatalf("p1 coins = %d", got)
	}
	if g.CurrentPlayer() != "p2" {
		t.Fatalf("turn did not advance")
	}
}

func TestForcedCoupAtTenCoins(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	player(t, g, "p1").Coins = 10

	if _, err := g.ExecuteAction("p1", ActionIncome, ""); !errors.Is(err, ErrForcedCoupRequired) {
		t.Fatalf("income at 10 coins = %v", err)
	}
	res, err := g.ExecuteAction("p1", ActionCoup, "p2")
	if err != nil {
		t.Fatalf("coup: %v", err)
	}
	if !res.Applied {
		t.Fatalf("coup should settle immediately")
	}
	if got := player(t, g, "p1").Coins; got != 3 {
		t.Fatalf("p1 coins after coup = %d", got)
	}
	if got := player(t, g, "p2").Influence(); got != 1 {
		t.Fatalf("p2 influence = %d", got)
	}
	if totalCards(g) != card.DeckSize {
		t.Fatalf("card conservation broken: %d", totalCards(g))
	}
}

func TestCoupRequiresCoins(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	if _, err := g.ExecuteAction("p1", ActionCoup, "p2"); !errors.Is(err, ErrInsufficientCoins) {
		t.Fatalf("broke coup = %v", err)
	}
}

func TestStealCapsAtTargetCoins(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	player(t, g, "p2").Coins = 1

	if _, err := g.ExecuteAction("p1", ActionSteal, "p2"); err != nil {
		t.Fatalf("steal: %v", err)
	}
	if _, err := g.ResolveAction(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins+1 {
		t.Fatalf("p1 coins = %d", got)
	}
	if got := player(t, g, "p2").Coins; got != 0 {
		t.Fatalf("p2 coins = %d", got)
	}
}

func TestChallengeTruthfulClaim(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleDuke, card.RoleContessa},
		"p2": {card.RoleCaptain, card.RoleCaptain},
	})

	if _, err := g.ExecuteAction("p1", ActionTax, ""); err != nil {
		t.Fatalf("tax: %v", err)
	}
	out, err := g.ChallengeAction("p2")
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if !out.Truthful || out.LoserID != "p2" {
		t.Fatalf("outcome = %+v", out)
	}
	if !out.EffectApplied {
		t.Fatalf("proven tax must still pay out")
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins+3 {
		t.Fatalf("p1 coins = %d", got)
	}
	// p1 showed the Duke and redrew, so the hand stays at two cards.
	if got := player(t, g, "p1").Influence(); got != 2 {
		t.Fatalf("p1 influence = %d", got)
	}
	if got := player(t, g, "p2").Influence(); got != 1 {
		t.Fatalf("p2 influence = %d", got)
	}
	if totalCards(g) != card.DeckSize {
		t.Fatalf("card conservation broken: %d", totalCards(g))
	}
	if g.CurrentPlayer() != "p2" {
		t.Fatalf("turn did not advance")
	}
}

func TestChallengeBluffedClaim(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleCaptain, card.RoleContessa},
		"p2": {card.RoleDuke, card.RoleDuke},
	})

	if _, err := g.ExecuteAction("p1", ActionTax, ""); err != nil {
		t.Fatalf("tax: %v", err)
	}
	out, err := g.ChallengeAction("p2")
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if out.Truthful || out.LoserID != "p1" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.EffectApplied {
		t.Fatalf("busted bluff must not pay out")
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins {
		t.Fatalf("p1 coins = %d", got)
	}
	if got := player(t, g, "p1").Influence(); got != 1 {
		t.Fatalf("p1 influence = %d", got)
	}
}

func TestChallengeUnclaimedAction(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	if _, err := g.ExecuteAction("p1", ActionForeignAid, ""); err != nil {
		t.Fatalf("foreign aid: %v", err)
	}
	if _, err := g.ChallengeAction("p2"); !errors.Is(err, ErrNotChallengeable) {
		t.Fatalf("challenge on foreign aid = %v", err)
	}
}

func TestBlockForeignAidStands(t *testing.T) {
	g := startedMatch(t, "p1", "p2")

	if _, err := g.ExecuteAction("p1", ActionForeignAid, ""); err != nil {
		t.Fatalf("foreign aid: %v", err)
	}
	if _, err := g.BlockAction("p2", card.RoleDuke); err != nil {
		t.Fatalf("block: %v", err)
	}
	pa, ok := g.Pending()
	if !ok || pa.Type != ActionBlock || pa.ActorID != "p2" {
		t.Fatalf("pending = %+v, %v", pa, ok)
	}
	out, err := g.ResolveAction()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Applied {
		t.Fatalf("resolved block must not apply anything")
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins {
		t.Fatalf("p1 coins = %d, blocked aid paid out", got)
	}
	if g.CurrentPlayer() != "p2" {
		t.Fatalf("turn did not advance")
	}
}

func TestBlockChallengedBluff(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleAssassin, card.RoleAssassin},
		"p2": {card.RoleCaptain, card.RoleContessa},
	})

	if _, err := g.ExecuteAction("p1", ActionForeignAid, ""); err != nil {
		t.Fatalf("foreign aid: %v", err)
	}
	if _, err := g.BlockAction("p2", card.RoleDuke); err != nil {
		t.Fatalf("block: %v", err)
	}
	out, err := g.ChallengeAction("p1")
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if out.Truthful || out.LoserID != "p2" {
		t.Fatalf("outcome = %+v", out)
	}
	if !out.EffectApplied {
		t.Fatalf("disproved block must let the aid land")
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins+2 {
		t.Fatalf("p1 coins = %d", got)
	}
	if got := player(t, g, "p2").Influence(); got != 1 {
		t.Fatalf("p2 influence = %d", got)
	}
}

func TestBlockChallengedTruthful(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleAssassin, card.RoleAssassin},
		"p2": {card.RoleDuke, card.RoleContessa},
	})

	if _, err := g.ExecuteAction("p1", ActionForeignAid, ""); err != nil {
		t.Fatalf("foreign aid: %v", err)
	}
	if _, err := g.BlockAction("p2", card.RoleDuke); err != nil {
		t.Fatalf("block: %v", err)
	}
	out, err := g.ChallengeAction("p1")
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if !out.Truthful || out.LoserID != "p1" {
		t.Fatalf("outcome = %+v", out)
	}
	if got := player(t, g, "p1").Coins; got != StartingCoins {
		t.Fatalf("p1 coins = %d, blocked aid paid out", got)
	}
	if got := player(t, g, "p1").Influence(); got != 1 {
		t.Fatalf("p1 influence = %d", got)
	}
	if totalCards(g) != card.DeckSize {
		t.Fatalf("card conservation broken: %d", totalCards(g))
	}
}

func TestOnlyVictimMayBlockSteal(t *testing.T) {
	g := startedMatch(t, "p1", "p2", "p3")
	if _, err := g.ExecuteAction("p1", ActionSteal, "p2"); err != nil {
		t.Fatalf("steal: %v", err)
	}
	if _, err := g.BlockAction("p3", card.RoleCaptain); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("bystander block = %v", err)
	}
	if _, err := g.BlockAction("p2", card.RoleDuke); !errors.Is(err, ErrRoleCannotBlock) {
		t.Fatalf("duke blocking steal = %v", err)
	}
	if _, err := g.BlockAction("p2", card.RoleAmbassador); err != nil {
		t.Fatalf("ambassador block: %v", err)
	}
}

func TestAssassinationEndsMatch(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleAssassin, card.RoleDuke},
		"p2": {card.RoleCaptain},
	})
	player(t, g, "p1").Coins = 3

	if _, err := g.ExecuteAction("p1", ActionAssassinate, "p2"); err != nil {
		t.Fatalf("assassinate: %v", err)
	}
	// Declaring only opens the response window, the cost is not due yet.
	if got := player(t, g, "p1").Coins; got != 3 {
		t.Fatalf("coins charged at declaration: %d", got)
	}
	out, err := g.ResolveAction()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(out.Eliminated) != 1 || out.Eliminated[0] != "p2" {
		t.Fatalf("eliminated = %v", out.Eliminated)
	}
	if out.WinnerID != "p1" {
		t.Fatalf("winner = %q", out.WinnerID)
	}
	if g.Phase() != PhaseEnded {
		t.Fatalf("phase = %s", g.Phase())
	}
	if got := player(t, g, "p1").Coins; got != 0 {
		t.Fatalf("assassination cost not paid at resolution, coins = %d", got)
	}
	if totalCards(g) != card.DeckSize {
		t.Fatalf("card conservation broken: %d", totalCards(g))
	}
}

func TestChallengedAssassinateIsFree(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleDuke, card.RoleContessa},
		"p2": {card.RoleCaptain, card.RoleCaptain},
	})
	player(t, g, "p1").Coins = 3

	if _, err := g.ExecuteAction("p1", ActionAssassinate, "p2"); err != nil {
		t.Fatalf("assassinate: %v", err)
	}
	out, err := g.ChallengeAction("p2")
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if out.Truthful || out.LoserID != "p1" {
		t.Fatalf("outcome = %+v", out)
	}
	// The voided attempt costs nothing.
	if got := player(t, g, "p1").Coins; got != 3 {
		t.Fatalf("p1 coins = %d, want 3", got)
	}
	if got := player(t, g, "p2").Influence(); got != 2 {
		t.Fatalf("p2 influence = %d", got)
	}
}

func TestBlockedAssassinateIsFree(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleAssassin, card.RoleDuke},
		"p2": {card.RoleContessa, card.RoleCaptain},
	})
	player(t, g, "p1").Coins = 3

	if _, err := g.ExecuteAction("p1", ActionAssassinate, "p2"); err != nil {
		t.Fatalf("assassinate: %v", err)
	}
	if _, err := g.BlockAction("p2", card.RoleContessa); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := g.ResolveAction(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := player(t, g, "p1").Coins; got != 3 {
		t.Fatalf("p1 coins = %d, want 3", got)
	}
	if got := player(t, g, "p2").Influence(); got != 2 {
		t.Fatalf("p2 influence = %d", got)
	}
}

func TestRevealsAttributedToSeat(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleDuke, card.RoleContessa},
		"p2": {card.RoleCaptain, card.RoleCaptain},
	})

	if _, err := g.ExecuteAction("p1", ActionTax, ""); err != nil {
		t.Fatalf("tax: %v", err)
	}
	if _, err := g.ChallengeAction("p2"); err != nil {
		t.Fatalf("challenge: %v", err)
	}

	// p1 proved the Duke, p2 paid a card for the failed challenge.
	p1 := player(t, g, "p1")
	if len(p1.Revealed) != 1 || p1.Revealed[0] != card.RoleDuke {
		t.Fatalf("p1 reveals = %v", p1.Revealed)
	}
	p2 := player(t, g, "p2")
	if len(p2.Revealed) != 1 || p2.Revealed[0] != card.RoleCaptain {
		t.Fatalf("p2 reveals = %v", p2.Revealed)
	}
	if n := len(g.revealedRoles); n != 2 {
		t.Fatalf("global reveal log has %d entries", n)
	}

	snap := g.Snapshot().RedactFor("p2")
	for _, p := range snap.Players {
		if p.ID == "p1" && (len(p.Revealed) != 1 || p.Revealed[0] != card.RoleDuke) {
			t.Fatalf("snapshot reveals for p1 = %v", p.Revealed)
		}
	}
}

func TestExchangeDefaultKeepsHand(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	before := player(t, g, "p1").Hand.Clone()

	if _, err := g.ExecuteAction("p1", ActionExchange, ""); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if _, err := g.ResolveAction(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	after := player(t, g, "p1").Hand
	if len(after) != len(before) {
		t.Fatalf("hand size changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("default chooser should keep the original hand")
		}
	}
	if totalCards(g) != card.DeckSize {
		t.Fatalf("card conservation broken: %d", totalCards(g))
	}
}

type keepDrawnChooser struct{}

func (keepDrawnChooser) ChooseCardToLose(p *Player) int { return 0 }

func (keepDrawnChooser) ChooseExchange(p *Player, drawn card.CardList) card.CardList {
	keep := drawn.Clone()
	for _, c := range p.Hand {
		if len(keep) >= p.Influence() {
			break
		}
		keep.Add(c)
	}
	return keep
}

func TestExchangeCustomChooser(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	g.SetCardChooser(keepDrawnChooser{})
	before := player(t, g, "p1").Hand.Clone()

	if _, err := g.ExecuteAction("p1", ActionExchange, ""); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if _, err := g.ResolveAction(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	after := player(t, g, "p1").Hand
	if len(after) != len(before) {
		t.Fatalf("hand size changed: %d -> %d", len(before), len(after))
	}
	if totalCards(g) != card.DeckSize {
		t.Fatalf("card conservation broken: %d", totalCards(g))
	}
}

func TestTurnOrderSkipsEliminated(t *testing.T) {
	g := startedMatch(t, "p1", "p2", "p3")
	rig(t, g, map[string][]card.Role{
		"p1": {card.RoleDuke, card.RoleDuke},
		"p2": {card.RoleCaptain},
		"p3": {card.RoleContessa, card.RoleContessa},
	})
	player(t, g, "p1").Coins = 7

	if _, err := g.ExecuteAction("p1", ActionCoup, "p2"); err != nil {
		t.Fatalf("coup: %v", err)
	}
	if g.CurrentPlayer() != "p3" {
		t.Fatalf("current = %s, want p3", g.CurrentPlayer())
	}
}

func TestJoinAndLeaveLobby(t *testing.T) {
	g := newTestMatch(t, "p1", "p2")

	if err := g.Join("p1", "p1", Controller{}); err == nil {
		t.Fatalf("double join should fail")
	}
	if err := g.Leave("p1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if g.HostID() != "p2" {
		t.Fatalf("host = %s, want p2", g.HostID())
	}
	if got := g.findPlayerLocked("p2").Seat; got != 0 {
		t.Fatalf("p2 seat = %d after compaction", got)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	g := startedMatch(t, "p1", "p2", "p3")
	if _, err := g.ExecuteAction("p1", ActionForeignAid, ""); err != nil {
		t.Fatalf("foreign aid: %v", err)
	}

	doc := g.Document()
	loaded, err := LoadGame(doc)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if loaded.Phase() != PhasePlaying {
		t.Fatalf("phase = %s", loaded.Phase())
	}
	if loaded.CurrentPlayer() != "p1" {
		t.Fatalf("current = %s", loaded.CurrentPlayer())
	}
	pa, ok := loaded.Pending()
	if !ok || pa.Type != ActionForeignAid {
		t.Fatalf("pending = %+v, %v", pa, ok)
	}
	if totalCards(loaded) != card.DeckSize {
		t.Fatalf("card conservation broken after load: %d", totalCards(loaded))
	}

	// The restored match keeps playing.
	if _, err := loaded.ResolveAction(); err != nil {
		t.Fatalf("resolve after load: %v", err)
	}
	if loaded.CurrentPlayer() != "p2" {
		t.Fatalf("turn did not advance after load")
	}
}

func TestSnapshotRedaction(t *testing.T) {
	g := startedMatch(t, "p1", "p2")
	snap := g.Snapshot().RedactFor("p1")

	for _, p := range snap.Players {
		if p.ID == "p1" && len(p.Hand) != HandSize {
			t.Fatalf("viewer hand missing")
		}
		if p.ID != "p1" && p.Hand != nil {
			t.Fatalf("opponent hand leaked")
		}
		if p.ID != "p1" && p.Influence != HandSize {
			t.Fatalf("influence count missing")
		}
	}
}
