package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"coup-lite/coup"
)

// Wire format: JSON envelopes in both directions. Client messages carry a
// type tag plus a type-specific payload; server messages additionally
// carry a per-match sequence number so clients can detect gaps after a
// reconnect.

type ClientType string

const (
	ClientAuth        ClientType = "auth"
	ClientCreateMatch ClientType = "create-match"
	ClientJoinMatch   ClientType = "join-match"
	ClientLeaveMatch  ClientType = "leave-match"
	ClientReady       ClientType = "ready"
	ClientStartMatch  ClientType = "start-match"
	ClientAddBot      ClientType = "add-bot"
	ClientAction      ClientType = "action"
	ClientBlock       ClientType = "block"
	ClientChallenge   ClientType = "challenge"
	ClientAccept      ClientType = "accept"
)

type ClientEnvelope struct {
	Type      ClientType      `json:"type"`
	MatchCode string          `json:"matchCode,omitempty"`
	ClientSeq uint64          `json:"clientSeq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Client payloads.

type AuthRequest struct {
	SessionToken string `json:"sessionToken"`
	DisplayName  string `json:"displayName,omitempty"`
}

type CreateMatchRequest struct {
	MaxPlayers      int  `json:"maxPlayers,omitempty"`
	SecondsPerTurn  int  `json:"secondsPerTurn,omitempty"`
	AllowSpectators bool `json:"allowSpectators"`
}

type JoinMatchRequest struct {
	DisplayName string `json:"displayName,omitempty"`
}

type ReadyRequest struct {
	Ready bool `json:"ready"`
}

type AddBotRequest struct {
	Difficulty  string `json:"difficulty,omitempty"`
	Personality string `json:"personality,omitempty"`
}

type ActionRequest struct {
	Action   string `json:"action"`
	TargetID string `json:"targetId,omitempty"`
}

type BlockRequest struct {
	Role string `json:"role"`
}

func DecodeClient(data []byte) (ClientEnvelope, error) {
	var env ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode client envelope: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("client envelope missing type")
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into dst.
func DecodePayload(env ClientEnvelope, dst any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}

type ServerType string

const (
	ServerWelcome         ServerType = "welcome"
	ServerError           ServerType = "error"
	ServerMatchState      ServerType = "match-state"
	ServerTurnPrompt      ServerType = "turn-prompt"
	ServerActionPending   ServerType = "action-pending"
	ServerActionResolved  ServerType = "action-resolved"
	ServerBlockDeclared   ServerType = "block-declared"
	ServerChallengeResult ServerType = "challenge-result"
	ServerPlayerSkipped   ServerType = "player-skipped"
	ServerMatchEnded      ServerType = "match-ended"
)

type ServerEnvelope struct {
	Type       ServerType `json:"type"`
	MatchCode  string     `json:"matchCode,omitempty"`
	ServerSeq  uint64     `json:"serverSeq"`
	ServerTsMs int64      `json:"serverTsMs"`
	Payload    any        `json:"payload,omitempty"`
}

// Server payloads.

type WelcomePayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type TurnPromptPayload struct {
	PlayerID     string `json:"playerId"`
	Turn         int    `json:"turn"`
	DeadlineTsMs int64  `json:"deadlineTsMs"`
	MustCoup     bool   `json:"mustCoup"`
}

type ActionPendingPayload struct {
	Action       coup.PendingAction `json:"action"`
	RespondByTs  int64              `json:"respondByTs"`
	CanChallenge bool               `json:"canChallenge"`
	CanBlock     bool               `json:"canBlock"`
}

type ActionResolvedPayload struct {
	Action     coup.PendingAction `json:"action"`
	Applied    bool               `json:"applied"`
	Eliminated []string           `json:"eliminated,omitempty"`
}

type BlockDeclaredPayload struct {
	Block coup.PendingAction `json:"block"`
}

type ChallengeResultPayload struct {
	ChallengerID  string   `json:"challengerId"`
	Truthful      bool     `json:"truthful"`
	LoserID       string   `json:"loserId"`
	RevealedRole  string   `json:"revealedRole"`
	EffectApplied bool     `json:"effectApplied"`
	Eliminated    []string `json:"eliminated,omitempty"`
}

type PlayerSkippedPayload struct {
	PlayerID   string `json:"playerId"`
	Skips      int    `json:"skips"`
	Eliminated bool   `json:"eliminated"`
}

type MatchEndedPayload struct {
	WinnerID   string `json:"winnerId"`
	WinnerName string `json:"winnerName"`
	Turns      int    `json:"turns"`
}

// Encode wraps a payload in a server envelope and marshals it.
func Encode(matchCode string, serverSeq uint64, typ ServerType, payload any) ([]byte, error) {
	env := ServerEnvelope{
		Type:       typ,
		MatchCode:  matchCode,
		ServerSeq:  serverSeq,
		ServerTsMs: time.Now().UnixMilli(),
		Payload:    payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", typ, err)
	}
	return data, nil
}
