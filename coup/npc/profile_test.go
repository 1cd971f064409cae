package npc

import "testing"

func TestProfileDifficultyBase(t *testing.T) {
	cases := []struct {
		d     Difficulty
		bluff float64
		chal  float64
		aggr  float64
	}{
		{DifficultyEasy, 0.1, 0.8, 0.3},
		{DifficultyMedium, 0.3, 0.6, 0.5},
		{DifficultyHard, 0.5, 0.4, 0.7},
	}
	for _, c := range cases {
		p := ProfileFor(c.d, PersonalityBalanced)
		if p.BluffFrequency != c.bluff || p.ChallengeThreshold != c.chal || p.Aggressiveness != c.aggr {
			t.Errorf("%s profile = %+v", c.d, p)
		}
	}
}

func TestPersonalityOverrides(t *testing.T) {
	aggr := ProfileFor(DifficultyEasy, PersonalityAggressive)
	if aggr.Aggressiveness != 0.9 || aggr.BluffFrequency != 0.6 {
		t.Errorf("aggressive = %+v", aggr)
	}
	// Untouched fields keep the difficulty base.
	if aggr.ChallengeThreshold != 0.8 {
		t.Errorf("aggressive challenge threshold = %v", aggr.ChallengeThreshold)
	}

	def := ProfileFor(DifficultyHard, PersonalityDefensive)
	if def.Aggressiveness != 0.2 || def.ChallengeThreshold != 0.7 {
		t.Errorf("defensive = %+v", def)
	}

	blf := ProfileFor(DifficultyMedium, PersonalityBluffer)
	if blf.BluffFrequency != 0.8 || blf.ChallengeThreshold != 0.3 {
		t.Errorf("bluffer = %+v", blf)
	}
}

func TestParseFallbacks(t *testing.T) {
	if ParseDifficulty("nightmare") != DifficultyMedium {
		t.Errorf("unknown difficulty should fall back to medium")
	}
	if ParsePersonality("chaotic") != PersonalityBalanced {
		t.Errorf("unknown personality should fall back to balanced")
	}
	if ParseDifficulty("hard") != DifficultyHard {
		t.Errorf("valid difficulty mangled")
	}
}

func TestNameAllocatorUniqueness(t *testing.T) {
	a := NewNameAllocator(1)
	seen := make(map[string]bool)
	for i := 0; i < len(botNames); i++ {
		n := a.Acquire()
		if seen[n] {
			t.Fatalf("duplicate name %q", n)
		}
		seen[n] = true
	}
	// Pool exhausted: overflow names get a numeric suffix.
	extra := a.Acquire()
	if seen[extra] {
		t.Fatalf("overflow name %q collides with pool", extra)
	}

	a.Release("Duke Bot")
	if !seen["Duke Bot"] {
		t.Fatalf("test setup: Duke Bot never allocated")
	}
}
