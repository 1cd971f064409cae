package coup

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"coup-lite/card"
)

// Game is the authoritative state of one match. All exported methods are
// safe for concurrent use; the server drives one goroutine per match but
// stores and bots may read snapshots from others.
type Game struct {
	cfg Config
	rng *rand.Rand

	mu sync.Mutex

	phase   Phase
	hostID  string
	players []*Player
	deck    card.CardList

	// turn state
	turn       int
	currentIdx int

	pending       *PendingAction
	blockedAction *PendingAction
	history       []PendingAction

	// revealedRoles logs every face-up reveal (influence losses and
	// challenge proofs). The cards themselves go back into the deck.
	revealedRoles []card.Role

	winnerID string

	chooser CardChooser
}

func NewMatch(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Game{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(seed)),
		phase:      PhaseLobby,
		hostID:     cfg.HostID,
		currentIdx: -1,
		chooser:    defaultChooser{},
	}, nil
}

// SetCardChooser replaces the card selection policy. Must be called
// before Start.
func (g *Game) SetCardChooser(c CardChooser) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c != nil {
		g.chooser = c
	}
}

func (g *Game) Code() string       { return g.cfg.Code }
func (g *Game) Settings() Settings { return g.cfg.Settings }

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) HostID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hostID
}

// Join seats a player in the lobby.
func (g *Game) Join(id, displayName string, ctrl Controller) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if len(g.players) >= g.cfg.Settings.MaxPlayers {
		return ErrMatchFull
	}
	if g.findPlayerLocked(id) != nil {
		return fmt.Errorf("player %s: already joined", id)
	}
	if ctrl.Kind == "" {
		ctrl.Kind = ControllerHuman
	}
	g.players = append(g.players, &Player{
		ID:          id,
		DisplayName: displayName,
		Seat:        len(g.players),
		Coins:       StartingCoins,
		Alive:       true,
		Ready:       ctrl.Kind == ControllerBot,
		Connected:   true,
		Controller:  ctrl,
	})
	return nil
}

// Leave removes a player. Only legal in the lobby; mid-game departures go
// through SetConnected and the skip escalation instead.
func (g *Game) Leave(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	idx := -1
	for i, p := range g.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownPlayer
	}
	g.players = append(g.players[:idx], g.players[idx+1:]...)
	for i, p := range g.players {
		p.Seat = i
	}
	if g.hostID == id {
		g.hostID = ""
		for _, p := range g.players {
			if !p.IsBot() {
				g.hostID = p.ID
				break
			}
		}
	}
	return nil
}

// Empty reports whether no human seat remains.
func (g *Game) Empty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.players {
		if !p.IsBot() {
			return false
		}
	}
	return true
}

func (g *Game) SetReady(id string, ready bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	p := g.findPlayerLocked(id)
	if p == nil {
		return ErrUnknownPlayer
	}
	p.Ready = ready
	return nil
}

func (g *Game) SetConnected(id string, connected bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.findPlayerLocked(id)
	if p == nil {
		return ErrUnknownPlayer
	}
	p.Connected = connected
	return nil
}

// Start deals hands and opens the first turn. Host only.
func (g *Game) Start(callerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if callerID != g.hostID {
		return fmt.Errorf("player %s: only the host can start", callerID)
	}
	if len(g.players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	for _, p := range g.players {
		if !p.Ready {
			return ErrPlayersNotReady
		}
	}

	g.deck = card.NewDeck()
	g.deck.Shuffle(g.rng)
	for _, p := range g.players {
		cards, ok := g.deck.PopCards(HandSize)
		if !ok {
			return ErrInvalidState("deck exhausted during deal")
		}
		p.Hand = cards
		p.Coins = StartingCoins
		p.Alive = true
	}

	g.phase = PhasePlaying
	g.turn = 1
	g.currentIdx = 0
	return nil
}

// CurrentPlayer returns the id whose turn it is, or "" outside Playing.
func (g *Game) CurrentPlayer() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlaying || g.currentIdx < 0 {
		return ""
	}
	return g.players[g.currentIdx].ID
}

// Pending returns a copy of the live pending action, if any.
func (g *Game) Pending() (PendingAction, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return PendingAction{}, false
	}
	return *g.pending, true
}

// ActionResult reports what ExecuteAction did.
type ActionResult struct {
	Action     PendingAction
	Applied    bool // effect applied immediately, no response window
	Eliminated []string
	WinnerID   string
}

// ExecuteAction submits the current player's turn action. Actions without
// a response window (income, coup) apply immediately and advance the turn;
// the rest become pending until resolved, blocked or challenged.
func (g *Game) ExecuteAction(actorID string, action ActionType, targetID string) (*ActionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhasePlaying {
		return nil, ErrInvalidPhase
	}
	if g.pending != nil {
		return nil, ErrActionInProgress
	}
	actor := g.players[g.currentIdx]
	if actor.ID != actorID {
		return nil, ErrWrongTurn
	}
	if !actor.Alive {
		return nil, ErrPlayerDead
	}
	if !action.Valid() {
		return nil, fmt.Errorf("action %q: %w", action, ErrInvalidState("unknown action"))
	}
	if !CanAfford(actor.Coins, action) {
		return nil, ErrInsufficientCoins
	}
	if MustCoup(actor.Coins) && action != ActionCoup {
		return nil, ErrForcedCoupRequired
	}

	var target *Player
	if NeedsTarget(action) {
		target = g.findPlayerLocked(targetID)
		if target == nil || !target.Alive || target.ID == actorID {
			return nil, ErrInvalidTarget
		}
	} else {
		targetID = ""
	}

	actor.ConsecutiveSkips = 0

	pa := PendingAction{
		Turn:      g.turn,
		ActorID:   actorID,
		Type:      action,
		TargetID:  targetID,
		CreatedAt: time.Now(),
	}
	if role, ok := RequiredRole(action); ok {
		pa.ClaimedRole = role
	}

	res := &ActionResult{}
	if NeedsResponse(action) {
		g.pending = &pa
		res.Action = pa
		return res, nil
	}

	res.Eliminated = g.applyEffectLocked(&pa)
	pa.Resolved = true
	g.history = append(g.history, pa)
	res.Action = pa
	res.Applied = true
	g.advanceTurnLocked()
	res.WinnerID = g.winnerID
	return res, nil
}

// ResolveOutcome reports a pending action settling unopposed.
type ResolveOutcome struct {
	Action     PendingAction
	Applied    bool
	Eliminated []string
	WinnerID   string
}

// ResolveAction settles the pending action after its response window
// closed with no challenge. A resolved block simply voids the blocked
// action; anything else applies its effect.
func (g *Game) ResolveAction() (*ResolveOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhasePlaying {
		return nil, ErrInvalidPhase
	}
	if g.pending == nil {
		return nil, ErrNoPendingAction
	}
	return g.resolveLocked(), nil
}

func (g *Game) resolveLocked() *ResolveOutcome {
	pa := g.pending
	out := &ResolveOutcome{}
	if pa.Type != ActionBlock {
		out.Eliminated = g.applyEffectLocked(pa)
		out.Applied = true
	}
	pa.Resolved = true
	g.history = append(g.history, *pa)
	out.Action = *pa
	g.advanceTurnLocked()
	out.WinnerID = g.winnerID
	return out
}

// ChallengeOutcome reports how a challenge settled.
type ChallengeOutcome struct {
	ChallengerID  string
	Truthful      bool
	LoserID       string
	RevealedRole  card.Role
	EffectApplied bool
	Eliminated    []string
	WinnerID      string
}

// ChallengeAction contests the pending claim. A truthful actor reveals the
// claimed card, shuffles it back and redraws, and the challenger loses an
// influence; a bluffing actor loses one instead and the action is voided.
// Challenging a truthful block voids the blocked action; disproving a
// bluffed block lets the original action land.
func (g *Game) ChallengeAction(challengerID string) (*ChallengeOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhasePlaying {
		return nil, ErrInvalidPhase
	}
	pa := g.pending
	if pa == nil {
		return nil, ErrNoPendingAction
	}
	if !pa.Claims() {
		return nil, ErrNotChallengeable
	}
	challenger := g.findPlayerLocked(challengerID)
	if challenger == nil {
		return nil, ErrUnknownPlayer
	}
	if !challenger.Alive {
		return nil, ErrPlayerDead
	}
	if challengerID == pa.ActorID {
		return nil, fmt.Errorf("player %s: cannot challenge own claim", challengerID)
	}
	actor := g.findPlayerLocked(pa.ActorID)
	if actor == nil {
		return nil, ErrInvalidState("pending actor missing")
	}

	challenger.ConsecutiveSkips = 0
	pa.Contested = true
	pa.Resolved = true
	out := &ChallengeOutcome{
		ChallengerID: challengerID,
		RevealedRole: pa.ClaimedRole,
	}

	if actor.HasRole(pa.ClaimedRole) {
		// Claim proved. The shown card recycles and the actor redraws.
		out.Truthful = true
		out.LoserID = challengerID
		g.recycleRoleLocked(actor, pa.ClaimedRole)
		out.Eliminated = g.loseInfluenceLocked(challenger)

		if pa.Type != ActionBlock && g.phase == PhasePlaying {
			out.Eliminated = append(out.Eliminated, g.applyEffectLocked(pa)...)
			out.EffectApplied = true
		}
	} else {
		// Caught bluffing.
		out.LoserID = pa.ActorID
		out.Eliminated = g.loseInfluenceLocked(actor)

		if pa.Type == ActionBlock && g.blockedAction != nil && g.phase == PhasePlaying {
			// The block was a lie, the original action lands after all.
			orig := g.blockedAction
			out.Eliminated = append(out.Eliminated, g.applyEffectLocked(orig)...)
			out.EffectApplied = true
		}
	}

	g.history = append(g.history, *pa)
	if g.phase == PhasePlaying {
		g.advanceTurnLocked()
	}
	out.WinnerID = g.winnerID
	return out, nil
}

// BlockOutcome reports a block claim opening its own response window.
type BlockOutcome struct {
	Block PendingAction
}

// BlockAction counters the pending action with a blocking role claim. The
// block replaces the pending action and is itself open to challenge for
// one response window.
func (g *Game) BlockAction(blockerID string, role card.Role) (*BlockOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhasePlaying {
		return nil, ErrInvalidPhase
	}
	pa := g.pending
	if pa == nil {
		return nil, ErrNoPendingAction
	}
	if pa.Type == ActionBlock {
		return nil, fmt.Errorf("block: %w", ErrActionInProgress)
	}
	if !CanBlockWith(pa.Type, role) {
		return nil, ErrRoleCannotBlock
	}
	blocker := g.findPlayerLocked(blockerID)
	if blocker == nil {
		return nil, ErrUnknownPlayer
	}
	if !blocker.Alive {
		return nil, ErrPlayerDead
	}
	if blockerID == pa.ActorID {
		return nil, fmt.Errorf("player %s: cannot block own action", blockerID)
	}
	// Only the victim may block a targeted action.
	if pa.TargetID != "" && pa.TargetID != blockerID {
		return nil, ErrInvalidTarget
	}

	// The blocked action settles without effect; the block is now live.
	pa.Resolved = true
	g.history = append(g.history, *pa)
	g.blockedAction = pa

	block := &PendingAction{
		Turn:        g.turn,
		ActorID:     blockerID,
		Type:        ActionBlock,
		TargetID:    pa.ActorID,
		ClaimedRole: role,
		CreatedAt:   time.Now(),
	}
	g.pending = block
	blocker.ConsecutiveSkips = 0
	return &BlockOutcome{Block: *block}, nil
}

// SkipOutcome reports what the liveness coordinator did for a stalled turn.
type SkipOutcome struct {
	// Resolved is set when a stalled response window was force-settled.
	Resolved *ResolveOutcome

	// SkippedID is set when the turn owner stalled and was skipped.
	SkippedID  string
	Skips      int
	Eliminated bool
	WinnerID   string
}

// SkipTurn is the deadline handler. A stalled response window resolves the
// pending action as unopposed; a stalled turn owner is skipped, and three
// skips in a row eliminate the seat.
func (g *Game) SkipTurn() (*SkipOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhasePlaying {
		return nil, ErrInvalidPhase
	}
	if g.pending != nil {
		res := g.resolveLocked()
		return &SkipOutcome{Resolved: res, WinnerID: res.WinnerID}, nil
	}

	p := g.players[g.currentIdx]
	p.ConsecutiveSkips++
	out := &SkipOutcome{SkippedID: p.ID, Skips: p.ConsecutiveSkips}

	g.history = append(g.history, PendingAction{
		Turn:      g.turn,
		ActorID:   p.ID,
		Type:      ActionSkip,
		CreatedAt: time.Now(),
		Resolved:  true,
	})

	if p.ConsecutiveSkips >= MaxConsecutiveSkips {
		g.eliminateLocked(p)
		out.Eliminated = true
	}
	if g.phase == PhasePlaying {
		g.advanceTurnLocked()
	}
	out.WinnerID = g.winnerID
	return out, nil
}

func (g *Game) findPlayerLocked(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// applyEffectLocked performs a settled action's effect and returns any
// player ids eliminated by it.
func (g *Game) applyEffectLocked(pa *PendingAction) []string {
	actor := g.findPlayerLocked(pa.ActorID)
	if actor == nil || !actor.Alive {
		return nil
	}
	pa.EffectApplied = true

	switch pa.Type {
	case ActionIncome:
		actor.Coins++
	case ActionForeignAid:
		actor.Coins += 2
	case ActionTax:
		actor.Coins += 3
	case ActionSteal:
		if target := g.findPlayerLocked(pa.TargetID); target != nil && target.Alive {
			take := 2
			if target.Coins < take {
				take = target.Coins
			}
			target.Coins -= take
			actor.Coins += take
		}
	case ActionCoup, ActionAssassinate:
		// The cost comes due at resolution, so a blocked or disproved
		// attempt is free.
		actor.Coins -= Cost(pa.Type)
		if target := g.findPlayerLocked(pa.TargetID); target != nil && target.Alive {
			return g.loseInfluenceLocked(target)
		}
	case ActionExchange:
		g.exchangeLocked(actor)
	}
	return nil
}

// loseInfluenceLocked removes one card from the player and returns the
// eliminated ids (at most one). The card's role is logged face-up and the
// card itself shuffles back into the deck.
func (g *Game) loseInfluenceLocked(p *Player) []string {
	if p.Influence() == 0 {
		return nil
	}
	idx := g.chooser.ChooseCardToLose(p)
	if idx < 0 || idx >= p.Influence() {
		idx = 0
	}
	lost := p.Hand[idx]
	p.Hand.RemoveAt(idx)
	p.Revealed = append(p.Revealed, lost.Role)
	g.revealedRoles = append(g.revealedRoles, lost.Role)
	g.deck.Add(lost)
	g.deck.Shuffle(g.rng)

	if p.Influence() == 0 {
		g.eliminateLocked(p)
		return []string{p.ID}
	}
	return nil
}

// recycleRoleLocked returns the proven card to the deck and redraws.
func (g *Game) recycleRoleLocked(p *Player, role card.Role) {
	idx := p.Hand.IndexOfRole(role)
	if idx < 0 {
		return
	}
	shown := p.Hand[idx]
	p.Hand.RemoveAt(idx)
	p.Revealed = append(p.Revealed, shown.Role)
	g.revealedRoles = append(g.revealedRoles, shown.Role)
	g.deck.Add(shown)
	g.deck.Shuffle(g.rng)
	if drawn, ok := g.deck.PopCard(); ok {
		p.Hand.Add(drawn)
	}
}

func (g *Game) exchangeLocked(p *Player) {
	drawn, ok := g.deck.PopCards(2)
	if !ok {
		drawn, ok = g.deck.PopCards(1)
		if !ok {
			return
		}
	}
	pool := p.Hand.Clone()
	for _, c := range drawn {
		pool.Add(c)
	}

	keep := g.chooser.ChooseExchange(p, drawn)
	if !validExchange(pool, keep, p.Influence()) {
		keep = p.Hand.Clone()
	}

	// Everything not kept goes back to the deck.
	returned := pool
	for _, c := range keep {
		if i := indexOfInstance(returned, c.InstanceID); i >= 0 {
			returned.RemoveAt(i)
		}
	}
	p.Hand = keep
	for _, c := range returned {
		g.deck.Add(c)
	}
	g.deck.Shuffle(g.rng)
}

func validExchange(pool, keep card.CardList, want int) bool {
	if len(keep) != want {
		return false
	}
	rest := pool.Clone()
	for _, c := range keep {
		i := indexOfInstance(rest, c.InstanceID)
		if i < 0 {
			return false
		}
		rest.RemoveAt(i)
	}
	return true
}

func indexOfInstance(list card.CardList, id string) int {
	for i, c := range list {
		if c.InstanceID == id {
			return i
		}
	}
	return -1
}

// eliminateLocked retires a seat. Remaining cards recycle into the deck so
// the full 15 stay in circulation between hands and stock.
func (g *Game) eliminateLocked(p *Player) {
	for _, c := range p.Hand {
		p.Revealed = append(p.Revealed, c.Role)
		g.revealedRoles = append(g.revealedRoles, c.Role)
		g.deck.Add(c)
	}
	p.Hand = nil
	p.Alive = false
	g.deck.Shuffle(g.rng)
	g.checkWinLocked()
}

func (g *Game) checkWinLocked() {
	var last *Player
	alive := 0
	for _, p := range g.players {
		if p.Alive {
			alive++
			last = p
		}
	}
	if alive <= 1 {
		g.phase = PhaseEnded
		g.pending = nil
		g.blockedAction = nil
		if last != nil {
			g.winnerID = last.ID
		}
	}
}

func (g *Game) advanceTurnLocked() {
	g.pending = nil
	g.blockedAction = nil
	if g.phase != PhasePlaying {
		return
	}
	for i := 1; i <= len(g.players); i++ {
		idx := (g.currentIdx + i) % len(g.players)
		if g.players[idx].Alive {
			g.currentIdx = idx
			g.turn++
			return
		}
	}
}
