package lobby

import (
	"fmt"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"coup-lite/apps/server/internal/match"
	"coup-lite/apps/server/internal/stats"
	"coup-lite/apps/server/internal/store"
	"coup-lite/coup"
	"coup-lite/coup/npc"
)

const (
	// Matches with no connected humans for this long get reaped.
	idleMatchTTL = 10 * time.Minute
	reapInterval = time.Minute

	// Finished/reaped match documents kept hot for post-game views.
	archiveSize = 128

	codeRetries = 5
)

// Lobby manages all live matches and the archive of finished ones.
type Lobby struct {
	mu      sync.RWMutex
	matches map[string]*match.Match

	matchStore store.Store
	statsSvc   stats.Service
	npcManager *npc.Manager

	// Set by the gateway before any match is created.
	broadcast func(playerID string, data []byte)

	// Recently finished or reaped matches, served without hitting the store.
	archive *lru.Cache[string, coup.Document]

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new lobby
func New(matchStore store.Store, statsSvc stats.Service, npcManager *npc.Manager) *Lobby {
	archive, err := lru.New[string, coup.Document](archiveSize)
	if err != nil {
		panic(err) // only fails on non-positive size
	}
	return &Lobby{
		matches:    make(map[string]*match.Match),
		matchStore: matchStore,
		statsSvc:   statsSvc,
		npcManager: npcManager,
		archive:    archive,
		done:       make(chan struct{}),
	}
}

// SetBroadcast wires the frame delivery callback. Must be called before
// CreateMatch or RestoreFromStore.
func (l *Lobby) SetBroadcast(fn func(playerID string, data []byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.broadcast = fn
}

// CreateMatch allocates a join code and spins up a match actor.
func (l *Lobby) CreateMatch(hostID string, settings coup.Settings) (*match.Match, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < codeRetries; i++ {
		code, err := coup.NewMatchCode()
		if err != nil {
			return nil, err
		}
		if _, taken := l.matches[code]; taken {
			continue
		}

		m, err := match.New(coup.Config{
			Code:     code,
			HostID:   hostID,
			Settings: settings,
		}, l.broadcast, l.matchStore, l.statsSvc, l.npcManager)
		if err != nil {
			return nil, err
		}
		l.matches[code] = m
		log.Printf("[Lobby] Match %s created by %s", code, hostID)
		return m, nil
	}
	return nil, fmt.Errorf("could not allocate a unique match code")
}

// GetMatch returns a live match by join code.
func (l *Lobby) GetMatch(code string) *match.Match {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.matches[code]
}

// ListMatches returns the join codes of all live matches.
func (l *Lobby) ListMatches() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	codes := make([]string, 0, len(l.matches))
	for code := range l.matches {
		codes = append(codes, code)
	}
	return codes
}

// FindMatchFor returns the live match a player is seated in, if any.
func (l *Lobby) FindMatchFor(playerID string) *match.Match {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, m := range l.matches {
		for _, p := range m.Snapshot().Players {
			if p.ID == playerID {
				return m
			}
		}
	}
	return nil
}

// ArchivedMatch returns the document of a finished or reaped match,
// from the hot cache first and the store as fallback.
func (l *Lobby) ArchivedMatch(code string) (coup.Document, bool) {
	if doc, ok := l.archive.Get(code); ok {
		return doc, true
	}
	if l.matchStore == nil {
		return coup.Document{}, false
	}
	doc, err := l.matchStore.Load(code)
	if err != nil {
		return coup.Document{}, false
	}
	l.archive.Add(code, doc)
	return doc, true
}

// RestoreFromStore revives persisted matches after a restart. Finished
// matches go straight to the archive; the rest get live actors again.
func (l *Lobby) RestoreFromStore() error {
	if l.matchStore == nil {
		return nil
	}
	codes, err := l.matchStore.List()
	if err != nil {
		return err
	}

	restored := 0
	for _, code := range codes {
		doc, err := l.matchStore.Load(code)
		if err != nil {
			log.Printf("[Lobby] restore %s: load failed: %v", code, err)
			continue
		}
		if doc.Phase == coup.PhaseEnded {
			l.archive.Add(code, doc)
			continue
		}
		m, err := match.Resume(doc, l.broadcast, l.matchStore, l.statsSvc, l.npcManager)
		if err != nil {
			log.Printf("[Lobby] restore %s: resume failed: %v", code, err)
			continue
		}
		l.mu.Lock()
		l.matches[code] = m
		l.mu.Unlock()
		restored++
	}
	if restored > 0 {
		log.Printf("[Lobby] Restored %d matches from store", restored)
	}
	return nil
}

// StartReaper launches the background loop that retires idle matches.
func (l *Lobby) StartReaper() {
	go func() {
		ticker := time.NewTicker(reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.reapIdleMatches()
			case <-l.done:
				return
			}
		}
	}()
}

func (l *Lobby) reapIdleMatches() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for code, m := range l.matches {
		if !m.IsClosed() && !m.IsIdleFor(idleMatchTTL) {
			continue
		}
		l.retireLocked(code, m)
	}
}

func (l *Lobby) retireLocked(code string, m *match.Match) {
	m.Stop()
	delete(l.matches, code)

	ended := m.Phase() == coup.PhaseEnded
	if l.matchStore != nil {
		if doc, err := l.matchStore.Load(code); err == nil {
			l.archive.Add(code, doc)
		}
		if !ended {
			// Abandoned mid-game; nothing worth keeping.
			if err := l.matchStore.Delete(code); err != nil {
				log.Printf("[Lobby] delete %s from store failed: %v", code, err)
			}
		}
	}
	log.Printf("[Lobby] Match %s retired (ended=%v)", code, ended)
}

// Stop shuts down the reaper and every live match actor.
func (l *Lobby) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
	l.mu.Lock()
	defer l.mu.Unlock()
	for code, m := range l.matches {
		m.Stop()
		delete(l.matches, code)
	}
}
