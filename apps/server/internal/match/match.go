package match

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"coup-lite/apps/server/internal/codec"
	"coup-lite/apps/server/internal/stats"
	"coup-lite/apps/server/internal/store"
	"coup-lite/card"
	"coup-lite/coup"
	"coup-lite/coup/npc"
)

// Match wraps one game behind an actor goroutine. All mutations go
// through the event channel so timers, bot decisions and player input
// are serialized.
type Match struct {
	Code string

	mu       sync.RWMutex
	game     *coup.Game
	players  map[string]*PlayerConn // playerID -> connection state
	closed   bool
	stopOnce sync.Once

	events chan Event
	done   chan struct{}

	// Server sequence for event ordering
	serverSeq uint64

	// Timers and lifecycle metadata.
	turnDeadline     time.Time
	responseDeadline time.Time
	emptySince       time.Time

	// Response-window bookkeeping. promptSeq identifies the live
	// pending action; accepts and bot responses carry it so stale
	// replies are discarded.
	promptSeq     uint64
	accepted      map[string]bool
	botTurnSeen   int // last turn number bots were scheduled for
	resultStored  bool

	// Callback to deliver an encoded frame to one player.
	broadcast func(playerID string, data []byte)

	matchStore store.Store
	statsSvc   stats.Service
	npcManager *npc.Manager
}

// PlayerConn tracks a seat's connection liveness.
type PlayerConn struct {
	PlayerID    string
	DisplayName string
	Online      bool
	LastSeen    time.Time
}

// Event types for the actor message queue
type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventReady
	EventStart
	EventAddBot
	EventAction
	EventBlock
	EventChallenge
	EventAccept
	EventTimeout
	EventConnLost
	EventConnResume
	EventClose
)

// Event represents a message to the match actor
type Event struct {
	Type        EventType
	PlayerID    string
	DisplayName string
	Action      coup.ActionType
	TargetID    string
	Role        card.Role
	Ready       bool
	Difficulty  string
	Personality string
	PromptSeq   uint64
	Timestamp   time.Time
	Response    chan error
}

var ErrMatchClosed = errors.New("match closed")

const (
	responseWindowSec = 10
	offlineSeatTTL    = 30 * time.Second
)

// New creates a match actor around a fresh game.
func New(
	cfg coup.Config,
	broadcastFn func(playerID string, data []byte),
	matchStore store.Store,
	statsSvc stats.Service,
	npcMgr *npc.Manager,
) (*Match, error) {
	game, err := coup.NewMatch(cfg)
	if err != nil {
		return nil, err
	}
	return wrap(game, broadcastFn, matchStore, statsSvc, npcMgr), nil
}

// Resume rebuilds a match actor from a persisted document.
func Resume(
	doc coup.Document,
	broadcastFn func(playerID string, data []byte),
	matchStore store.Store,
	statsSvc stats.Service,
	npcMgr *npc.Manager,
) (*Match, error) {
	game, err := coup.LoadGame(doc)
	if err != nil {
		return nil, err
	}
	m := wrap(game, broadcastFn, matchStore, statsSvc, npcMgr)
	log.Printf("[Match %s] Resumed from store (phase=%s, turn=%d)", m.Code, doc.Phase, doc.Turn)
	return m, nil
}

func wrap(
	game *coup.Game,
	broadcastFn func(playerID string, data []byte),
	matchStore store.Store,
	statsSvc stats.Service,
	npcMgr *npc.Manager,
) *Match {
	m := &Match{
		Code:       game.Code(),
		game:       game,
		players:    make(map[string]*PlayerConn),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		accepted:   make(map[string]bool),
		emptySince: time.Now(),
		broadcast:  broadcastFn,
		matchStore: matchStore,
		statsSvc:   statsSvc,
		npcManager: npcMgr,
	}
	if npcMgr != nil {
		// Bot brains pick which card to lose and which to keep on exchange.
		game.SetCardChooser(npcMgr)
	}

	// Seed connection tracking for resumed matches. Everyone starts
	// offline until their socket reattaches.
	for _, p := range game.Snapshot().Players {
		if m.isNPC(p.ID) {
			continue
		}
		m.players[p.ID] = &PlayerConn{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			LastSeen:    time.Now(),
		}
	}

	go m.run()

	settings := game.Settings()
	log.Printf("[Match %s] Created (max=%d, turn=%ds)", m.Code, settings.MaxPlayers, settings.SecondsPerTurn)
	return m
}

// run is the main actor loop
func (m *Match) run() {
	// Sub-second heartbeat for turn/response deadlines.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case event := <-m.events:
			err := m.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			m.tick()
		case <-m.done:
			log.Printf("[Match %s] Actor stopped", m.Code)
			return
		}
	}
}

func (m *Match) handleEvent(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed && e.Type != EventClose {
		return ErrMatchClosed
	}

	switch e.Type {
	case EventJoin:
		return m.handleJoin(e.PlayerID, e.DisplayName)
	case EventLeave:
		return m.handleLeave(e.PlayerID)
	case EventReady:
		return m.handleReady(e.PlayerID, e.Ready)
	case EventStart:
		return m.handleStart(e.PlayerID)
	case EventAddBot:
		return m.handleAddBot(e.PlayerID, e.Difficulty, e.Personality)
	case EventAction:
		return m.handleAction(e.PlayerID, e.Action, e.TargetID)
	case EventBlock:
		return m.handleBlock(e.PlayerID, e.Role)
	case EventChallenge:
		return m.handleChallenge(e.PlayerID)
	case EventAccept:
		return m.handleAccept(e.PlayerID, e.PromptSeq)
	case EventTimeout:
		return m.handleTimeout(e.Timestamp)
	case EventConnLost:
		return m.handleConnLost(e.PlayerID, e.Timestamp)
	case EventConnResume:
		return m.handleConnResume(e.PlayerID, e.Timestamp)
	case EventClose:
		m.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (m *Match) handleJoin(playerID, displayName string) error {
	now := time.Now()

	if conn := m.players[playerID]; conn != nil {
		// Rejoin of a known seat.
		conn.Online = true
		conn.LastSeen = now
		m.sendSnapshot(playerID)
		m.sendPromptIfActing(playerID)
		log.Printf("[Match %s] Player %s rejoined", m.Code, playerID)
		return nil
	}

	err := m.game.Join(playerID, displayName, coup.Controller{Kind: coup.ControllerHuman})
	if err != nil {
		return err
	}
	m.players[playerID] = &PlayerConn{
		PlayerID:    playerID,
		DisplayName: displayName,
		Online:      true,
		LastSeen:    now,
	}
	m.updateEmptySinceLocked(now)
	m.persistLocked()
	m.broadcastState()
	log.Printf("[Match %s] Player %s (%s) joined", m.Code, playerID, displayName)
	return nil
}

func (m *Match) handleLeave(playerID string) error {
	if err := m.game.Leave(playerID); err != nil {
		return err
	}
	delete(m.players, playerID)
	m.updateEmptySinceLocked(time.Now())
	m.persistLocked()
	m.broadcastState()
	log.Printf("[Match %s] Player %s left", m.Code, playerID)
	return nil
}

func (m *Match) handleReady(playerID string, ready bool) error {
	if err := m.game.SetReady(playerID, ready); err != nil {
		return err
	}
	m.persistLocked()
	m.broadcastState()
	return nil
}

func (m *Match) handleStart(callerID string) error {
	if err := m.game.Start(callerID); err != nil {
		return err
	}
	log.Printf("[Match %s] Started by %s", m.Code, callerID)
	m.persistLocked()
	m.broadcastState()
	m.armTurnLocked(time.Now())
	return nil
}

func (m *Match) handleAddBot(callerID, difficulty, personality string) error {
	if m.npcManager == nil {
		return fmt.Errorf("bots not available")
	}
	if callerID != m.game.HostID() {
		return fmt.Errorf("only the host can add bots")
	}

	inst, err := m.npcManager.Spawn(m.game, difficulty, personality)
	if err != nil {
		return err
	}
	m.persistLocked()
	m.broadcastState()
	log.Printf("[Match %s] Bot %s (%s/%s) joined", m.Code, inst.DisplayName, difficulty, personality)
	return nil
}

func (m *Match) handleAction(playerID string, action coup.ActionType, targetID string) error {
	result, err := m.game.ExecuteAction(playerID, action, targetID)
	if err != nil {
		return err
	}
	m.persistLocked()

	if result.Applied {
		m.broadcastToAll(codec.ServerActionResolved, codec.ActionResolvedPayload{
			Action:     result.Action,
			Applied:    true,
			Eliminated: result.Eliminated,
		})
		m.broadcastState()
		m.afterResolutionLocked(result.WinnerID)
		return nil
	}

	// Response window opens.
	m.openResponseWindowLocked(result.Action)
	return nil
}

func (m *Match) handleBlock(playerID string, role card.Role) error {
	outcome, err := m.game.BlockAction(playerID, role)
	if err != nil {
		return err
	}
	m.persistLocked()

	m.broadcastToAll(codec.ServerBlockDeclared, codec.BlockDeclaredPayload{Block: outcome.Block})
	// The block itself is open to challenge for a fresh window.
	m.openResponseWindowLocked(outcome.Block)
	return nil
}

func (m *Match) handleChallenge(playerID string) error {
	outcome, err := m.game.ChallengeAction(playerID)
	if err != nil {
		return err
	}
	m.persistLocked()

	m.broadcastToAll(codec.ServerChallengeResult, codec.ChallengeResultPayload{
		ChallengerID:  outcome.ChallengerID,
		Truthful:      outcome.Truthful,
		LoserID:       outcome.LoserID,
		RevealedRole:  outcome.RevealedRole.String(),
		EffectApplied: outcome.EffectApplied,
		Eliminated:    outcome.Eliminated,
	})
	m.broadcastState()
	m.afterResolutionLocked(outcome.WinnerID)
	return nil
}

// handleAccept records a "no contest" response. Once every live
// responder has accepted, the pending action settles early instead of
// waiting out the window.
func (m *Match) handleAccept(playerID string, promptSeq uint64) error {
	if promptSeq != 0 && promptSeq != m.promptSeq {
		return nil // stale response, window already moved on
	}
	pending, ok := m.game.Pending()
	if !ok {
		return coup.ErrNoPendingAction
	}
	if playerID == pending.ActorID {
		return nil
	}
	m.accepted[playerID] = true

	if !m.allRespondersAcceptedLocked(pending) {
		return nil
	}
	return m.resolvePendingLocked()
}

func (m *Match) allRespondersAcceptedLocked(pending coup.PendingAction) bool {
	for _, p := range m.game.Snapshot().Players {
		if !p.Alive || p.ID == pending.ActorID {
			continue
		}
		if !m.accepted[p.ID] {
			return false
		}
	}
	return true
}

func (m *Match) resolvePendingLocked() error {
	outcome, err := m.game.ResolveAction()
	if err != nil {
		return err
	}
	m.persistLocked()
	m.broadcastToAll(codec.ServerActionResolved, codec.ActionResolvedPayload{
		Action:     outcome.Action,
		Applied:    outcome.Applied,
		Eliminated: outcome.Eliminated,
	})
	m.broadcastState()
	m.afterResolutionLocked(outcome.WinnerID)
	return nil
}

func (m *Match) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	now := time.Now()
	if err := m.handleTimeout(now); err != nil {
		log.Printf("[Match %s] timeout handler failed: %v", m.Code, err)
	}
	m.releaseOfflineSeats(now)
}

// handleTimeout fires the liveness coordinator when a deadline lapses.
// A lapsed response window settles the pending action without charging
// a skip; a lapsed turn charges one and escalates to elimination.
func (m *Match) handleTimeout(now time.Time) error {
	if !m.responseDeadline.IsZero() && !now.Before(m.responseDeadline) {
		m.clearTimersLocked()
		return m.skipLocked("response window lapsed")
	}
	if !m.turnDeadline.IsZero() && !now.Before(m.turnDeadline) {
		m.clearTimersLocked()
		return m.skipLocked("turn deadline lapsed")
	}
	return nil
}

func (m *Match) skipLocked(reason string) error {
	outcome, err := m.game.SkipTurn()
	if err != nil {
		return err
	}
	m.persistLocked()

	if outcome.Resolved != nil {
		log.Printf("[Match %s] %s, auto-resolving %s", m.Code, reason, outcome.Resolved.Action.Type)
		m.broadcastToAll(codec.ServerActionResolved, codec.ActionResolvedPayload{
			Action:     outcome.Resolved.Action,
			Applied:    outcome.Resolved.Applied,
			Eliminated: outcome.Resolved.Eliminated,
		})
		m.broadcastState()
		m.afterResolutionLocked(outcome.Resolved.WinnerID)
		return nil
	}

	log.Printf("[Match %s] %s, skipping %s (skips=%d, eliminated=%v)",
		m.Code, reason, outcome.SkippedID, outcome.Skips, outcome.Eliminated)
	m.broadcastToAll(codec.ServerPlayerSkipped, codec.PlayerSkippedPayload{
		PlayerID:   outcome.SkippedID,
		Skips:      outcome.Skips,
		Eliminated: outcome.Eliminated,
	})
	m.broadcastState()
	m.afterResolutionLocked(outcome.WinnerID)
	return nil
}

// releaseOfflineSeats removes lobby players whose connection has been
// gone long enough. Mid-game seats stay; skip escalation handles them.
func (m *Match) releaseOfflineSeats(now time.Time) {
	if m.game.Phase() != coup.PhaseLobby {
		return
	}
	for playerID, conn := range m.players {
		if conn == nil || conn.Online {
			continue
		}
		if now.Sub(conn.LastSeen) < offlineSeatTTL {
			continue
		}
		if err := m.handleLeave(playerID); err != nil {
			conn.LastSeen = now
			log.Printf("[Match %s] auto-leave failed for offline player %s: %v", m.Code, playerID, err)
			continue
		}
		log.Printf("[Match %s] Auto-removed offline player %s after %s", m.Code, playerID, offlineSeatTTL)
	}
}

func (m *Match) handleConnLost(playerID string, ts time.Time) error {
	conn := m.players[playerID]
	if conn == nil {
		return nil
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	conn.Online = false
	conn.LastSeen = ts
	_ = m.game.SetConnected(playerID, false)
	log.Printf("[Match %s] Player %s connection lost", m.Code, playerID)
	return nil
}

func (m *Match) handleConnResume(playerID string, ts time.Time) error {
	conn := m.players[playerID]
	if conn == nil {
		return nil
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	conn.Online = true
	conn.LastSeen = ts
	_ = m.game.SetConnected(playerID, true)
	m.sendSnapshot(playerID)
	m.sendPromptIfActing(playerID)
	log.Printf("[Match %s] Player %s connection resumed", m.Code, playerID)
	return nil
}

// afterResolutionLocked re-arms timers or finishes the match after any
// state transition that may have advanced the turn.
func (m *Match) afterResolutionLocked(winnerID string) {
	if m.game.Phase() == coup.PhaseEnded {
		m.finishLocked(winnerID)
		return
	}
	if pending, ok := m.game.Pending(); ok {
		// A challenge can leave a pending action alive (e.g. the
		// original action after a failed block). Reopen its window.
		m.openResponseWindowLocked(pending)
		return
	}
	m.armTurnLocked(time.Now())
}

func (m *Match) armTurnLocked(now time.Time) {
	m.clearTimersLocked()
	if m.game.Phase() != coup.PhasePlaying {
		return
	}
	snap := m.game.Snapshot()
	if snap.CurrentID == "" {
		return
	}

	limit := time.Duration(m.game.Settings().SecondsPerTurn) * time.Second
	m.turnDeadline = now.Add(limit)

	mustCoup := false
	for _, p := range snap.Players {
		if p.ID == snap.CurrentID {
			mustCoup = coup.MustCoup(p.Coins)
			break
		}
	}
	m.broadcastToAll(codec.ServerTurnPrompt, codec.TurnPromptPayload{
		PlayerID:     snap.CurrentID,
		Turn:         snap.Turn,
		DeadlineTsMs: m.turnDeadline.UnixMilli(),
		MustCoup:     mustCoup,
	})
	m.scheduleBotTurnLocked(snap)
}

func (m *Match) openResponseWindowLocked(pending coup.PendingAction) {
	m.clearTimersLocked()
	m.responseDeadline = time.Now().Add(responseWindowSec * time.Second)
	m.promptSeq++
	m.accepted = make(map[string]bool)

	m.broadcastToAll(codec.ServerActionPending, codec.ActionPendingPayload{
		Action:       pending,
		RespondByTs:  m.responseDeadline.UnixMilli(),
		CanChallenge: pending.Claims(),
		CanBlock:     pending.Type != coup.ActionBlock && coup.IsBlockable(pending.Type),
	})
	m.scheduleBotResponsesLocked(pending)
}

func (m *Match) clearTimersLocked() {
	m.turnDeadline = time.Time{}
	m.responseDeadline = time.Time{}
}

func (m *Match) finishLocked(winnerID string) {
	m.clearTimersLocked()

	snap := m.game.Snapshot()
	winnerName := ""
	participants := make([]stats.Participant, 0, len(snap.Players))
	for _, p := range snap.Players {
		if p.ID == winnerID {
			winnerName = p.DisplayName
		}
		participants = append(participants, stats.Participant{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			IsBot:       p.IsBot,
			Won:         p.ID == winnerID,
		})
	}

	m.broadcastToAll(codec.ServerMatchEnded, codec.MatchEndedPayload{
		WinnerID:   winnerID,
		WinnerName: winnerName,
		Turns:      snap.Turn,
	})

	if m.statsSvc != nil && !m.resultStored {
		m.resultStored = true
		result := stats.MatchResult{
			Code:         m.Code,
			WinnerID:     winnerID,
			Turns:        snap.Turn,
			FinishedAt:   time.Now(),
			Participants: participants,
		}
		if err := m.statsSvc.RecordMatch(result); err != nil {
			log.Printf("[Match %s] failed to record result: %v", m.Code, err)
		}
	}
	log.Printf("[Match %s] Ended, winner=%s (%s) after %d turns", m.Code, winnerID, winnerName, snap.Turn)
}

// --- Bot scheduling ---

func (m *Match) isNPC(playerID string) bool {
	if m.npcManager == nil {
		return false
	}
	return m.npcManager.IsBot(playerID)
}

// scheduleBotTurnLocked runs the acting bot's brain in a goroutine and
// injects the decision back into the actor queue after a think delay.
func (m *Match) scheduleBotTurnLocked(snap coup.Snapshot) {
	if m.npcManager == nil || !m.isNPC(snap.CurrentID) {
		return
	}
	if m.botTurnSeen == snap.Turn {
		return
	}
	m.botTurnSeen = snap.Turn

	playerID := snap.CurrentID
	thinkDelay := m.npcManager.ThinkDelay(playerID)

	go func() {
		time.Sleep(thinkDelay)

		decision := m.npcManager.OnTurn(playerID, snap.RedactFor(playerID))
		inst := m.npcManager.Get(playerID)
		if inst != nil {
			log.Printf("[Match %s] Bot %s decides: %s target=%s",
				m.Code, inst.DisplayName, decision.Action, decision.TargetID)
		}
		err := m.SubmitEvent(Event{
			Type:     EventAction,
			PlayerID: playerID,
			Action:   decision.Action,
			TargetID: decision.TargetID,
		})
		if err != nil && !errors.Is(err, ErrMatchClosed) {
			// Safe fallback before the skip timer fires.
			_ = m.SubmitEvent(Event{
				Type:     EventAction,
				PlayerID: playerID,
				Action:   coup.ActionIncome,
			})
		}
	}()
}

// scheduleBotResponsesLocked asks every live bot bystander whether to
// challenge, block or accept the pending action.
func (m *Match) scheduleBotResponsesLocked(pending coup.PendingAction) {
	if m.npcManager == nil {
		return
	}
	snap := m.game.Snapshot()
	promptSeq := m.promptSeq

	for _, p := range snap.Players {
		if !p.Alive || p.ID == pending.ActorID || !m.isNPC(p.ID) {
			continue
		}
		playerID := p.ID
		thinkDelay := m.npcManager.ThinkDelay(playerID)

		go func() {
			time.Sleep(thinkDelay)

			view := snap.RedactFor(playerID)
			if m.npcManager.ShouldChallenge(playerID, view) {
				err := m.SubmitEvent(Event{Type: EventChallenge, PlayerID: playerID})
				if err == nil || errors.Is(err, ErrMatchClosed) {
					return
				}
				// Window already closed; fall through to accept.
			} else if role, ok := m.npcManager.ShouldBlock(playerID, view); ok {
				err := m.SubmitEvent(Event{Type: EventBlock, PlayerID: playerID, Role: role})
				if err == nil || errors.Is(err, ErrMatchClosed) {
					return
				}
			}
			_ = m.SubmitEvent(Event{
				Type:      EventAccept,
				PlayerID:  playerID,
				PromptSeq: promptSeq,
			})
		}()
	}
}

// --- Actor plumbing ---

// SubmitEvent sends an event to the actor and waits for the result.
func (m *Match) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return ErrMatchClosed
	}

	select {
	case m.events <- e:
	case <-m.done:
		return ErrMatchClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-m.done:
		return ErrMatchClosed
	}
}

// Stop shuts down the match actor
func (m *Match) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Match) stopLocked() {
	m.closed = true
	m.clearTimersLocked()
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

func (m *Match) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// IsIdleFor reports whether the match has had no connected humans for
// at least ttl, or has been over for that long.
func (m *Match) IsIdleFor(ttl time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, conn := range m.players {
		if conn != nil && conn.Online {
			return false
		}
	}
	if m.emptySince.IsZero() {
		return false
	}
	return time.Since(m.emptySince) >= ttl
}

func (m *Match) updateEmptySinceLocked(now time.Time) {
	anyOnline := false
	for _, conn := range m.players {
		if conn != nil && conn.Online {
			anyOnline = true
			break
		}
	}
	if anyOnline {
		m.emptySince = time.Time{}
	} else if m.emptySince.IsZero() {
		m.emptySince = now
	}
}

func (m *Match) Snapshot() coup.Snapshot {
	return m.game.Snapshot()
}

func (m *Match) Phase() coup.Phase {
	return m.game.Phase()
}

func (m *Match) persistLocked() {
	if m.matchStore == nil {
		return
	}
	if err := m.matchStore.Save(m.game.Document()); err != nil {
		log.Printf("[Match %s] persist failed: %v", m.Code, err)
	}
}

// --- Broadcast helpers ---

func (m *Match) nextSeq() uint64 {
	m.serverSeq++
	return m.serverSeq
}

func (m *Match) sendToPlayer(playerID string, typ codec.ServerType, payload any) {
	if m.broadcast == nil {
		return
	}
	data, err := codec.Encode(m.Code, m.nextSeq(), typ, payload)
	if err != nil {
		log.Printf("[Match %s] encode %s failed: %v", m.Code, typ, err)
		return
	}
	m.broadcast(playerID, data)
}

func (m *Match) broadcastToAll(typ codec.ServerType, payload any) {
	if m.broadcast == nil {
		return
	}
	data, err := codec.Encode(m.Code, m.nextSeq(), typ, payload)
	if err != nil {
		log.Printf("[Match %s] encode %s failed: %v", m.Code, typ, err)
		return
	}
	for playerID, conn := range m.players {
		if conn == nil || !conn.Online {
			continue
		}
		m.broadcast(playerID, data)
	}
}

// broadcastState sends each player their own redacted view.
func (m *Match) broadcastState() {
	snap := m.game.Snapshot()
	for playerID, conn := range m.players {
		if conn == nil || !conn.Online {
			continue
		}
		m.sendToPlayer(playerID, codec.ServerMatchState, snap.RedactFor(playerID))
	}
}

func (m *Match) sendSnapshot(playerID string) {
	snap := m.game.Snapshot()
	m.sendToPlayer(playerID, codec.ServerMatchState, snap.RedactFor(playerID))
}

func (m *Match) sendPromptIfActing(playerID string) {
	if m.game.Phase() != coup.PhasePlaying {
		return
	}
	if m.game.CurrentPlayer() != playerID || m.turnDeadline.IsZero() {
		return
	}
	snap := m.game.Snapshot()
	mustCoup := false
	for _, p := range snap.Players {
		if p.ID == playerID {
			mustCoup = coup.MustCoup(p.Coins)
			break
		}
	}
	m.sendToPlayer(playerID, codec.ServerTurnPrompt, codec.TurnPromptPayload{
		PlayerID:     playerID,
		Turn:         snap.Turn,
		DeadlineTsMs: m.turnDeadline.UnixMilli(),
		MustCoup:     mustCoup,
	})
}
