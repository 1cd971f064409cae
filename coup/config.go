package coup

import "fmt"

// Settings are the host-chosen match parameters, persisted with the match.
type Settings struct {
	MaxPlayers      int  `json:"maxPlayers"`
	SecondsPerTurn  int  `json:"secondsPerTurn"`
	AllowSpectators bool `json:"allowSpectators"`
}

// DefaultSettings mirrors the lobby defaults: 6 seats, 30s turns.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:      MaxPlayers,
		SecondsPerTurn:  30,
		AllowSpectators: true,
	}
}

func (s Settings) validate() error {
	if s.MaxPlayers < MinPlayers || s.MaxPlayers > MaxPlayers {
		return fmt.Errorf("MaxPlayers must be in [%d,%d], got %d", MinPlayers, MaxPlayers, s.MaxPlayers)
	}
	if s.SecondsPerTurn <= 0 {
		return fmt.Errorf("SecondsPerTurn must be > 0, got %d", s.SecondsPerTurn)
	}
	return nil
}

// Config creates a match.
type Config struct {
	Code     string
	HostID   string
	Settings Settings

	// RNG seed (0 => time-based)
	Seed int64
}

func (c Config) validate() error {
	if len(c.Code) != CodeLength {
		return fmt.Errorf("match code must be %d chars, got %q", CodeLength, c.Code)
	}
	if c.HostID == "" {
		return fmt.Errorf("empty host id")
	}
	return c.Settings.validate()
}
