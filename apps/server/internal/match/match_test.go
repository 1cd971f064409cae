package match

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"coup-lite/apps/server/internal/codec"
	"coup-lite/apps/server/internal/stats"
	"coup-lite/apps/server/internal/store"
	"coup-lite/coup"
)

// frameSink collects broadcast frames per player.
type frameSink struct {
	mu     sync.Mutex
	frames map[string][]codec.ServerEnvelope
}

func newFrameSink() *frameSink {
	return &frameSink{frames: make(map[string][]codec.ServerEnvelope)}
}

func (s *frameSink) send(playerID string, data []byte) {
	var env codec.ServerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}
	s.mu.Lock()
	s.frames[playerID] = append(s.frames[playerID], env)
	s.mu.Unlock()
}

func (s *frameSink) typesFor(playerID string) []codec.ServerType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []codec.ServerType
	for _, env := range s.frames[playerID] {
		out = append(out, env.Type)
	}
	return out
}

func (s *frameSink) sawType(playerID string, typ codec.ServerType) bool {
	for _, t := range s.typesFor(playerID) {
		if t == typ {
			return true
		}
	}
	return false
}

func newTestMatch(t *testing.T, secondsPerTurn int, sink *frameSink) *Match {
	t.Helper()
	settings := coup.DefaultSettings()
	settings.SecondsPerTurn = secondsPerTurn

	broadcast := func(string, []byte) {}
	if sink != nil {
		broadcast = sink.send
	}
	m, err := New(coup.Config{
		Code:     "TESTAB",
		HostID:   "p1",
		Settings: settings,
		Seed:     42,
	}, broadcast, store.NewMemoryStore(), stats.NewMemoryService(), nil)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	t.Cleanup(m.Stop)
	return m
}

func joinAndStart(t *testing.T, m *Match, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := m.SubmitEvent(Event{Type: EventJoin, PlayerID: id, DisplayName: id}); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		if err := m.SubmitEvent(Event{Type: EventReady, PlayerID: id, Ready: true}); err != nil {
			t.Fatalf("ready %s: %v", id, err)
		}
	}
	if err := m.SubmitEvent(Event{Type: EventStart, PlayerID: ids[0]}); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestJoinReadyStart(t *testing.T) {
	sink := newFrameSink()
	m := newTestMatch(t, 30, sink)
	joinAndStart(t, m, "p1", "p2")

	snap := m.Snapshot()
	if snap.Phase != coup.PhasePlaying {
		t.Fatalf("phase = %s", snap.Phase)
	}
	if snap.CurrentID != "p1" {
		t.Fatalf("first turn should be host's, got %s", snap.CurrentID)
	}
	if !sink.sawType("p2", codec.ServerTurnPrompt) {
		t.Fatalf("p2 never saw a turn prompt: %v", sink.typesFor("p2"))
	}
}

func TestStartRejectedForNonHost(t *testing.T) {
	m := newTestMatch(t, 30, nil)
	for _, id := range []string{"p1", "p2"} {
		if err := m.SubmitEvent(Event{Type: EventJoin, PlayerID: id, DisplayName: id}); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := m.SubmitEvent(Event{Type: EventReady, PlayerID: id, Ready: true}); err != nil {
			t.Fatalf("ready: %v", err)
		}
	}
	if err := m.SubmitEvent(Event{Type: EventStart, PlayerID: "p2"}); err == nil {
		t.Fatal("non-host start should fail")
	}
}

func TestImmediateActionAdvancesTurn(t *testing.T) {
	m := newTestMatch(t, 30, nil)
	joinAndStart(t, m, "p1", "p2")

	if err := m.SubmitEvent(Event{Type: EventAction, PlayerID: "p1", Action: coup.ActionIncome}); err != nil {
		t.Fatalf("income: %v", err)
	}

	snap := m.Snapshot()
	if snap.CurrentID != "p2" {
		t.Fatalf("turn should pass to p2, got %s", snap.CurrentID)
	}
	for _, p := range snap.Players {
		if p.ID == "p1" && p.Coins != coup.StartingCoins+1 {
			t.Fatalf("p1 coins = %d", p.Coins)
		}
	}
}

func TestAcceptResolvesEarly(t *testing.T) {
	sink := newFrameSink()
	m := newTestMatch(t, 30, sink)
	joinAndStart(t, m, "p1", "p2", "p3")

	if err := m.SubmitEvent(Event{Type: EventAction, PlayerID: "p1", Action: coup.ActionForeignAid}); err != nil {
		t.Fatalf("foreign aid: %v", err)
	}
	if _, ok := m.game.Pending(); !ok {
		t.Fatal("foreign aid should open a response window")
	}

	// One accept is not enough.
	if err := m.SubmitEvent(Event{Type: EventAccept, PlayerID: "p2"}); err != nil {
		t.Fatalf("accept p2: %v", err)
	}
	if _, ok := m.game.Pending(); !ok {
		t.Fatal("pending should survive a partial accept")
	}

	if err := m.SubmitEvent(Event{Type: EventAccept, PlayerID: "p3"}); err != nil {
		t.Fatalf("accept p3: %v", err)
	}
	if _, ok := m.game.Pending(); ok {
		t.Fatal("pending should resolve once everyone accepted")
	}

	snap := m.Snapshot()
	for _, p := range snap.Players {
		if p.ID == "p1" && p.Coins != coup.StartingCoins+2 {
			t.Fatalf("foreign aid not applied, coins = %d", p.Coins)
		}
	}
	if !sink.sawType("p2", codec.ServerActionResolved) {
		t.Fatalf("p2 frames: %v", sink.typesFor("p2"))
	}
}

func TestChallengeThroughActor(t *testing.T) {
	sink := newFrameSink()
	m := newTestMatch(t, 30, sink)
	joinAndStart(t, m, "p1", "p2")

	if err := m.SubmitEvent(Event{Type: EventAction, PlayerID: "p1", Action: coup.ActionTax}); err != nil {
		t.Fatalf("tax: %v", err)
	}
	if err := m.SubmitEvent(Event{Type: EventChallenge, PlayerID: "p2"}); err != nil {
		t.Fatalf("challenge: %v", err)
	}

	if _, ok := m.game.Pending(); ok {
		t.Fatal("challenge should settle the pending action")
	}
	if !sink.sawType("p1", codec.ServerChallengeResult) {
		t.Fatalf("p1 frames: %v", sink.typesFor("p1"))
	}
	// Either way, somebody lost a card.
	snap := m.Snapshot()
	total := 0
	for _, p := range snap.Players {
		total += p.Influence
	}
	if total != 3 {
		t.Fatalf("expected 3 influence remaining after challenge, got %d", total)
	}
}

func TestTurnTimeoutSkipsStalledPlayer(t *testing.T) {
	sink := newFrameSink()
	m := newTestMatch(t, 1, sink)
	joinAndStart(t, m, "p1", "p2")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.Snapshot().CurrentID == "p2" {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	snap := m.Snapshot()
	if snap.CurrentID != "p2" {
		t.Fatalf("stalled p1 was never skipped, current=%s", snap.CurrentID)
	}
	for _, p := range snap.Players {
		if p.ID == "p1" && p.ConsecutiveSkips != 1 {
			t.Fatalf("p1 skips = %d", p.ConsecutiveSkips)
		}
	}
	if !sink.sawType("p2", codec.ServerPlayerSkipped) {
		t.Fatalf("p2 frames: %v", sink.typesFor("p2"))
	}
}

func TestResumeFromDocument(t *testing.T) {
	st := store.NewMemoryStore()
	m, err := New(coup.Config{
		Code:     "TESTCD",
		HostID:   "p1",
		Settings: coup.DefaultSettings(),
		Seed:     7,
	}, func(string, []byte) {}, st, stats.NewMemoryService(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	joinAndStart(t, m, "p1", "p2")
	if err := m.SubmitEvent(Event{Type: EventAction, PlayerID: "p1", Action: coup.ActionIncome}); err != nil {
		t.Fatalf("income: %v", err)
	}
	m.Stop()

	doc, err := st.Load("TESTCD")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	resumed, err := Resume(doc, func(string, []byte) {}, st, stats.NewMemoryService(), nil)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	defer resumed.Stop()

	snap := resumed.Snapshot()
	if snap.Phase != coup.PhasePlaying || snap.CurrentID != "p2" {
		t.Fatalf("resumed state wrong: phase=%s current=%s", snap.Phase, snap.CurrentID)
	}
	// The resumed actor keeps accepting events.
	if err := resumed.SubmitEvent(Event{Type: EventAction, PlayerID: "p2", Action: coup.ActionIncome}); err != nil {
		t.Fatalf("income on resumed match: %v", err)
	}
}

func TestClosedMatchRejectsEvents(t *testing.T) {
	m := newTestMatch(t, 30, nil)
	m.Stop()
	if err := m.SubmitEvent(Event{Type: EventJoin, PlayerID: "p1", DisplayName: "p1"}); err != ErrMatchClosed {
		t.Fatalf("expected ErrMatchClosed, got %v", err)
	}
}
