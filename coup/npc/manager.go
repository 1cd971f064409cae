package npc

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"coup-lite/card"
	"coup-lite/coup"
)

// Instance represents an active bot seated in a match.
type Instance struct {
	PlayerID    string
	DisplayName string
	Difficulty  Difficulty
	Personality Personality
	Brain       Brain
	ThinkDelay  time.Duration
}

// Manager owns bot lifecycle and decision dispatch.
type Manager struct {
	mu        sync.RWMutex
	instances map[string]*Instance // keyed by player id
	names     *NameAllocator
	rng       *rand.Rand
}

func NewManager() *Manager {
	seed := time.Now().UnixNano()
	return &Manager{
		instances: make(map[string]*Instance),
		names:     NewNameAllocator(seed),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Spawn creates a bot and seats it in the match.
func (m *Manager) Spawn(g *coup.Game, difficulty, personality string) (*Instance, error) {
	d := ParseDifficulty(difficulty)
	p := ParsePersonality(personality)

	m.mu.Lock()
	seed := m.rng.Int63()
	// Think delay of 1.5-4s keeps bot pacing readable for humans.
	thinkDelay := time.Duration(1500+m.rng.Intn(2500)) * time.Millisecond
	m.mu.Unlock()

	id := "bot-" + uuid.NewString()
	name := m.names.Acquire()
	brain := NewRuleBrain(name, ProfileFor(d, p), seed)

	if err := g.Join(id, name, coup.Controller{
		Kind:        coup.ControllerBot,
		Difficulty:  string(d),
		Personality: string(p),
	}); err != nil {
		m.names.Release(name)
		return nil, fmt.Errorf("spawn bot %s: %w", name, err)
	}

	inst := &Instance{
		PlayerID:    id,
		DisplayName: name,
		Difficulty:  d,
		Personality: p,
		Brain:       brain,
		ThinkDelay:  thinkDelay,
	}
	m.mu.Lock()
	m.instances[id] = inst
	m.mu.Unlock()

	log.Printf("[NPC] Spawned %s (%s/%s) as %s", name, d, p, id)
	return inst, nil
}

// Despawn removes a bot from tracking and frees its name.
func (m *Manager) Despawn(playerID string) {
	m.mu.Lock()
	inst := m.instances[playerID]
	delete(m.instances, playerID)
	m.mu.Unlock()

	if inst != nil {
		m.names.Release(inst.DisplayName)
		log.Printf("[NPC] Despawned %s (%s)", inst.DisplayName, playerID)
	}
}

func (m *Manager) IsBot(playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[playerID] != nil
}

func (m *Manager) Get(playerID string) *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[playerID]
}

func (m *Manager) ThinkDelay(playerID string) time.Duration {
	m.mu.RLock()
	inst := m.instances[playerID]
	m.mu.RUnlock()
	if inst == nil {
		return time.Second
	}
	return inst.ThinkDelay
}

// OnTurn asks the bot for its turn action. The snapshot must already be
// redacted for the bot.
func (m *Manager) OnTurn(playerID string, snap coup.Snapshot) Decision {
	inst := m.Get(playerID)
	if inst == nil {
		log.Printf("[NPC] OnTurn called for unknown player %s", playerID)
		return Decision{Action: coup.ActionIncome, Confidence: 0.5, Reasoning: "no brain registered"}
	}
	d := inst.Brain.DecideAction(ViewFromSnapshot(playerID, snap))
	log.Printf("[NPC] %s decides: %s target=%s conf=%.2f (%s)",
		inst.DisplayName, d.Action, d.TargetID, d.Confidence, d.Reasoning)
	return d
}

// ShouldChallenge asks the bot whether to contest the pending claim.
func (m *Manager) ShouldChallenge(playerID string, snap coup.Snapshot) bool {
	inst := m.Get(playerID)
	if inst == nil {
		return false
	}
	return inst.Brain.DecideChallenge(ViewFromSnapshot(playerID, snap))
}

// ShouldBlock asks the bot whether and with which role to block.
func (m *Manager) ShouldBlock(playerID string, snap coup.Snapshot) (card.Role, bool) {
	inst := m.Get(playerID)
	if inst == nil {
		return card.RoleInvalid, false
	}
	return inst.Brain.DecideBlock(ViewFromSnapshot(playerID, snap))
}

// ChooseCardToLose implements coup.CardChooser, routing the choice to
// the seated bot's brain and defaulting humans to their first card
// until the gateway supplies a real prompt.
func (m *Manager) ChooseCardToLose(p *coup.Player) int {
	if inst := m.Get(p.ID); inst != nil {
		if c, ok := inst.Brain.(coup.CardChooser); ok {
			return c.ChooseCardToLose(p)
		}
	}
	return 0
}

// ChooseExchange implements coup.CardChooser.
func (m *Manager) ChooseExchange(p *coup.Player, drawn card.CardList) card.CardList {
	if inst := m.Get(p.ID); inst != nil {
		if c, ok := inst.Brain.(coup.CardChooser); ok {
			return c.ChooseExchange(p, drawn)
		}
	}
	return p.Hand.Clone()
}
