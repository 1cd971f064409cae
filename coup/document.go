package coup

import (
	"math/rand"
	"time"

	"coup-lite/card"
)

// Document is the full persistable state of a match. It round-trips
// through JSON for the match stores.
type Document struct {
	Code          string          `json:"code"`
	HostID        string          `json:"hostId"`
	Settings      Settings        `json:"settings"`
	Phase         Phase           `json:"phase"`
	Turn          int             `json:"turn"`
	CurrentIdx    int             `json:"currentIdx"`
	Players       []Player        `json:"players"`
	Deck          card.CardList   `json:"deck"`
	Pending       *PendingAction  `json:"pending,omitempty"`
	BlockedAction *PendingAction  `json:"blockedAction,omitempty"`
	History       []PendingAction `json:"history,omitempty"`
	RevealedRoles []card.Role     `json:"revealedRoles,omitempty"`
	WinnerID      string          `json:"winnerId,omitempty"`
	SavedAt       time.Time       `json:"savedAt"`
}

// Document exports the match for persistence.
func (g *Game) Document() Document {
	g.mu.Lock()
	defer g.mu.Unlock()

	doc := Document{
		Code:       g.cfg.Code,
		HostID:     g.hostID,
		Settings:   g.cfg.Settings,
		Phase:      g.phase,
		Turn:       g.turn,
		CurrentIdx: g.currentIdx,
		Deck:       g.deck.Clone(),
		WinnerID:   g.winnerID,
		SavedAt:    time.Now(),
	}
	if g.pending != nil {
		p := *g.pending
		doc.Pending = &p
	}
	if g.blockedAction != nil {
		p := *g.blockedAction
		doc.BlockedAction = &p
	}
	doc.Players = make([]Player, 0, len(g.players))
	for _, p := range g.players {
		cp := *p
		cp.Hand = p.Hand.Clone()
		cp.Revealed = append([]card.Role(nil), p.Revealed...)
		doc.Players = append(doc.Players, cp)
	}
	doc.History = make([]PendingAction, len(g.history))
	copy(doc.History, g.history)
	doc.RevealedRoles = make([]card.Role, len(g.revealedRoles))
	copy(doc.RevealedRoles, g.revealedRoles)
	return doc
}

// LoadGame rebuilds a match from a persisted document.
func LoadGame(doc Document) (*Game, error) {
	cfg := Config{Code: doc.Code, HostID: doc.HostID, Settings: doc.Settings}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	g := &Game{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		phase:      doc.Phase,
		hostID:     doc.HostID,
		turn:       doc.Turn,
		currentIdx: doc.CurrentIdx,
		deck:       doc.Deck.Clone(),
		winnerID:   doc.WinnerID,
		chooser:    defaultChooser{},
	}
	for i := range doc.Players {
		cp := doc.Players[i]
		cp.Hand = doc.Players[i].Hand.Clone()
		cp.Revealed = append([]card.Role(nil), doc.Players[i].Revealed...)
		g.players = append(g.players, &cp)
	}
	if doc.Pending != nil {
		p := *doc.Pending
		g.pending = &p
	}
	if doc.BlockedAction != nil {
		p := *doc.BlockedAction
		g.blockedAction = &p
	}
	g.history = make([]PendingAction, len(doc.History))
	copy(g.history, doc.History)
	g.revealedRoles = make([]card.Role, len(doc.RevealedRoles))
	copy(g.revealedRoles, doc.RevealedRoles)
	return g, nil
}
