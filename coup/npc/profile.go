package npc

// Difficulty selects the base decision thresholds for a bot.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Personality layers a play style on top of the difficulty base.
type Personality string

const (
	PersonalityBalanced   Personality = "balanced"
	PersonalityAggressive Personality = "aggressive"
	PersonalityDefensive  Personality = "defensive"
	PersonalityBluffer    Personality = "bluffer"
)

// PersonalityProfile defines the tunable parameters for a RuleBrain.
type PersonalityProfile struct {
	BluffFrequency     float64 `json:"bluffFrequency"`     // 0.0-1.0: how often to claim roles it does not hold
	ChallengeThreshold float64 `json:"challengeThreshold"` // challenge when the belief falls below this
	BlockThreshold     float64 `json:"blockThreshold"`     // tolerance before blocking on a real card
	Aggressiveness     float64 `json:"aggressiveness"`     // 0.0-1.0: appetite for coups and attacks
}

var difficultyProfiles = map[Difficulty]PersonalityProfile{
	DifficultyEasy: {
		BluffFrequency:     0.1,
		ChallengeThreshold: 0.8,
		BlockThreshold:     0.8,
		Aggressiveness:     0.3,
	},
	DifficultyMedium: {
		BluffFrequency:     0.3,
		ChallengeThreshold: 0.6,
		BlockThreshold:     0.6,
		Aggressiveness:     0.5,
	},
	DifficultyHard: {
		BluffFrequency:     0.5,
		ChallengeThreshold: 0.4,
		BlockThreshold:     0.4,
		Aggressiveness:     0.7,
	},
}

// ProfileFor builds the decision parameters for a difficulty and
// personality pair. The personality overrides individual fields of the
// difficulty base.
func ProfileFor(d Difficulty, p Personality) PersonalityProfile {
	prof, ok := difficultyProfiles[d]
	if !ok {
		prof = difficultyProfiles[DifficultyMedium]
	}
	switch p {
	case PersonalityAggressive:
		prof.Aggressiveness = 0.9
		prof.BluffFrequency = 0.6
	case PersonalityDefensive:
		prof.Aggressiveness = 0.2
		prof.ChallengeThreshold = 0.7
	case PersonalityBluffer:
		prof.BluffFrequency = 0.8
		prof.ChallengeThreshold = 0.3
	}
	return prof
}

// ParseDifficulty falls back to medium on unknown input.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s)
	}
	return DifficultyMedium
}

// ParsePersonality falls back to balanced on unknown input.
func ParsePersonality(s string) Personality {
	switch Personality(s) {
	case PersonalityBalanced, PersonalityAggressive, PersonalityDefensive, PersonalityBluffer:
		return Personality(s)
	}
	return PersonalityBalanced
}
