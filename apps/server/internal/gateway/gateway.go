package gateway

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"coup-lite/apps/server/internal/auth"
	"coup-lite/apps/server/internal/codec"
	"coup-lite/apps/server/internal/lobby"
	"coup-lite/apps/server/internal/match"
	"coup-lite/card"
	"coup-lite/coup"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: Restrict in production
	},
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID          string
	PlayerID    string
	DisplayName string
	Authed      bool
	Conn        *websocket.Conn
	Send        chan []byte
	Gateway     *Gateway
	LastPing    time.Time

	// Current match association
	MatchCode string
	Match     *match.Match
}

// Gateway manages WebSocket connections and routes client envelopes to
// the lobby and match actors.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	playerConns map[string]*Connection // playerID -> connection
	nextConnID  uint64
	errorSeq    uint64

	lobby   *lobby.Lobby
	authSvc auth.Service
}

// New creates a new Gateway instance
func New(lby *lobby.Lobby, authSvc auth.Service) *Gateway {
	g := &Gateway{
		connections: make(map[string]*Connection),
		playerConns: make(map[string]*Connection),
		lobby:       lby,
		authSvc:     authSvc,
	}
	lby.SetBroadcast(g.SendToPlayer)
	return g
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{
		ID:       connID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Gateway:  g,
		LastPing: time.Now(),
	}
	g.connections[connID] = c
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s, total: %d", connID, len(g.connections))

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}

		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	env, err := codec.DecodeClient(data)
	if err != nil {
		log.Printf("[Gateway] Failed to decode: %v", err)
		c.sendError(1, "invalid message format")
		return
	}

	if !c.Authed && env.Type != codec.ClientAuth {
		c.sendError(2, "authenticate first")
		return
	}

	switch env.Type {
	case codec.ClientAuth:
		c.handleAuth(env)
	case codec.ClientCreateMatch:
		c.handleCreateMatch(env)
	case codec.ClientJoinMatch:
		c.handleJoinMatch(env)
	case codec.ClientLeaveMatch:
		c.handleLeaveMatch()
	case codec.ClientReady:
		c.handleReady(env)
	case codec.ClientStartMatch:
		c.submitToMatch(match.Event{Type: match.EventStart, PlayerID: c.PlayerID})
	case codec.ClientAddBot:
		c.handleAddBot(env)
	case codec.ClientAction:
		c.handleAction(env)
	case codec.ClientBlock:
		c.handleBlock(env)
	case codec.ClientChallenge:
		c.submitToMatch(match.Event{Type: match.EventChallenge, PlayerID: c.PlayerID})
	case codec.ClientAccept:
		c.submitToMatch(match.Event{Type: match.EventAccept, PlayerID: c.PlayerID})
	default:
		log.Printf("[Gateway] Unknown client type: %s", env.Type)
	}
}

func (c *Connection) handleAuth(env codec.ClientEnvelope) {
	var req codec.AuthRequest
	if err := codec.DecodePayload(env, &req); err != nil {
		c.sendError(1, "invalid auth payload")
		return
	}

	var acct auth.Account
	if req.SessionToken != "" {
		resolved, ok := c.Gateway.authSvc.ResolveSession(req.SessionToken)
		if !ok {
			c.sendError(10, "invalid session token")
			return
		}
		acct = resolved
	} else {
		created, _, err := c.Gateway.authSvc.Guest(req.DisplayName)
		if err != nil {
			c.sendError(11, "guest login failed")
			return
		}
		acct = created
	}

	c.PlayerID = fmt.Sprintf("u%d", acct.ID)
	c.DisplayName = acct.Username
	c.Authed = true
	c.Gateway.registerPlayer(c)

	c.sendFrame(codec.ServerWelcome, codec.WelcomePayload{
		PlayerID:    c.PlayerID,
		DisplayName: c.DisplayName,
	})
	log.Printf("[Gateway] %s authenticated as %s (%s)", c.ID, c.PlayerID, c.DisplayName)

	// Reattach to a live match after a reconnect.
	if m := c.Gateway.lobby.FindMatchFor(c.PlayerID); m != nil {
		c.MatchCode = m.Code
		c.Match = m
		_ = m.SubmitEvent(match.Event{Type: match.EventConnResume, PlayerID: c.PlayerID})
	}
}

func (c *Connection) handleCreateMatch(env codec.ClientEnvelope) {
	var req codec.CreateMatchRequest
	if err := codec.DecodePayload(env, &req); err != nil {
		c.sendError(1, "invalid create payload")
		return
	}

	settings := coup.DefaultSettings()
	if req.MaxPlayers > 0 {
		settings.MaxPlayers = req.MaxPlayers
	}
	if req.SecondsPerTurn > 0 {
		settings.SecondsPerTurn = req.SecondsPerTurn
	}
	settings.AllowSpectators = req.AllowSpectators

	m, err := c.Gateway.lobby.CreateMatch(c.PlayerID, settings)
	if err != nil {
		c.sendError(3, err.Error())
		return
	}
	if err := m.SubmitEvent(match.Event{
		Type:        match.EventJoin,
		PlayerID:    c.PlayerID,
		DisplayName: c.DisplayName,
	}); err != nil {
		c.sendError(3, err.Error())
		return
	}

	c.MatchCode = m.Code
	c.Match = m
	log.Printf("[Gateway] %s created match %s", c.PlayerID, m.Code)
}

func (c *Connection) handleJoinMatch(env codec.ClientEnvelope) {
	var req codec.JoinMatchRequest
	if err := codec.DecodePayload(env, &req); err != nil {
		c.sendError(1, "invalid join payload")
		return
	}

	m := c.Gateway.lobby.GetMatch(env.MatchCode)
	if m == nil {
		c.sendError(4, "match not found")
		return
	}

	displayName := c.DisplayName
	if req.DisplayName != "" {
		displayName = req.DisplayName
	}
	if err := m.SubmitEvent(match.Event{
		Type:        match.EventJoin,
		PlayerID:    c.PlayerID,
		DisplayName: displayName,
	}); err != nil {
		c.sendError(4, err.Error())
		return
	}

	c.MatchCode = m.Code
	c.Match = m
	log.Printf("[Gateway] %s joined match %s", c.PlayerID, m.Code)
}

func (c *Connection) handleLeaveMatch() {
	if c.Match == nil {
		return
	}
	if err := c.Match.SubmitEvent(match.Event{Type: match.EventLeave, PlayerID: c.PlayerID}); err != nil {
		c.sendError(5, err.Error())
		return
	}
	c.MatchCode = ""
	c.Match = nil
}

func (c *Connection) handleReady(env codec.ClientEnvelope) {
	var req codec.ReadyRequest
	if err := codec.DecodePayload(env, &req); err != nil {
		c.sendError(1, "invalid ready payload")
		return
	}
	c.submitToMatch(match.Event{Type: match.EventReady, PlayerID: c.PlayerID, Ready: req.Ready})
}

func (c *Connection) handleAddBot(env codec.ClientEnvelope) {
	var req codec.AddBotRequest
	if err := codec.DecodePayload(env, &req); err != nil {
		c.sendError(1, "invalid add-bot payload")
		return
	}
	c.submitToMatch(match.Event{
		Type:        match.EventAddBot,
		PlayerID:    c.PlayerID,
		Difficulty:  req.Difficulty,
		Personality: req.Personality,
	})
}

func (c *Connection) handleAction(env codec.ClientEnvelope) {
	var req codec.ActionRequest
	if err := codec.DecodePayload(env, &req); err != nil {
		c.sendError(1, "invalid action payload")
		return
	}

	action := coup.ActionType(req.Action)
	if !action.Valid() {
		c.sendError(6, fmt.Sprintf("unknown action %q", req.Action))
		return
	}
	c.submitToMatch(match.Event{
		Type:     match.EventAction,
		PlayerID: c.PlayerID,
		Action:   action,
		TargetID: req.TargetID,
	})
}

func (c *Connection) handleBlock(env codec.ClientEnvelope) {
	var req codec.BlockRequest
	if err := codec.DecodePayload(env, &req); err != nil {
		c.sendError(1, "invalid block payload")
		return
	}

	role, ok := card.ParseRole(req.Role)
	if !ok {
		c.sendError(7, fmt.Sprintf("unknown role %q", req.Role))
		return
	}
	c.submitToMatch(match.Event{Type: match.EventBlock, PlayerID: c.PlayerID, Role: role})
}

func (c *Connection) submitToMatch(e match.Event) {
	if c.Match == nil {
		c.sendError(5, "not in a match")
		return
	}
	if err := c.Match.SubmitEvent(e); err != nil {
		c.sendError(8, err.Error())
	}
}

func (c *Connection) sendError(code int, msg string) {
	c.Gateway.mu.Lock()
	c.Gateway.errorSeq++
	seq := c.Gateway.errorSeq
	c.Gateway.mu.Unlock()

	data, err := codec.Encode(c.MatchCode, seq, codec.ServerError, codec.ErrorPayload{
		Code:    code,
		Message: msg,
	})
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Connection) sendFrame(typ codec.ServerType, payload any) {
	data, err := codec.Encode(c.MatchCode, 0, typ, payload)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) registerPlayer(c *Connection) {
	g.mu.Lock()
	prev := g.playerConns[c.PlayerID]
	g.playerConns[c.PlayerID] = c
	g.mu.Unlock()

	// A newer connection replaces the old one. The Send channel is never
	// closed here, the old socket's pumps may still try to write to it;
	// closing the conn makes both pumps shut themselves down.
	if prev != nil && prev != c {
		prev.Conn.Close()
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	current := g.playerConns[c.PlayerID] == c
	if current {
		delete(g.playerConns, c.PlayerID)
	}
	total := len(g.connections)
	g.mu.Unlock()

	// A replaced connection must not report the player gone, the fresh
	// socket already took over the seat.
	if current && c.Match != nil {
		_ = c.Match.SubmitEvent(match.Event{Type: match.EventConnLost, PlayerID: c.PlayerID})
	}
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, total)
}

// SendToPlayer delivers an encoded frame to a player's live connection.
func (g *Gateway) SendToPlayer(playerID string, data []byte) {
	g.mu.RLock()
	c := g.playerConns[playerID]
	g.mu.RUnlock()

	if c != nil {
		select {
		case c.Send <- data:
		default:
			// Drop if buffer full
		}
	}
}

// Broadcast sends a message to all connections
func (g *Gateway) Broadcast(message []byte) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.connections {
		select {
		case c.Send <- message:
		default:
			// Drop message if buffer full
		}
	}
}
