package card

import (
	"math/rand"
	"testing"
)

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	if deck.Count() != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, deck.Count())
	}

	seen := make(map[string]bool, DeckSize)
	for _, role := range Roles {
		if got := deck.CountRole(role); got != CopiesPerRole {
			t.Fatalf("role %s: expected %d copies, got %d", role, CopiesPerRole, got)
		}
	}
	for _, c := range deck {
		if seen[c.InstanceID] {
			t.Fatalf("duplicate instance id %s", c.InstanceID)
		}
		seen[c.InstanceID] = true
	}
}

func TestShufflePreservesCards(t *testing.T) {
	deck := NewDeck()
	before := deck.Clone()
	deck.Shuffle(rand.New(rand.NewSource(7)))

	if deck.Count() != before.Count() {
		t.Fatalf("shuffle changed deck size: %d -> %d", before.Count(), deck.Count())
	}
	for _, role := range Roles {
		if deck.CountRole(role) != CopiesPerRole {
			t.Fatalf("shuffle changed composition for %s", role)
		}
	}
}

func TestPopCards(t *testing.T) {
	deck := NewDeck()
	top := deck[deck.Count()-1]

	cards, ok := deck.PopCards(2)
	if !ok || len(cards) != 2 {
		t.Fatalf("PopCards(2) failed")
	}
	if cards[0] != top {
		t.Fatalf("expected top card %v first, got %v", top, cards[0])
	}
	if deck.Count() != DeckSize-2 {
		t.Fatalf("expected %d remaining, got %d", DeckSize-2, deck.Count())
	}

	if _, ok := deck.PopCards(DeckSize); ok {
		t.Fatalf("expected PopCards beyond size to fail")
	}
}

func TestParseRole(t *testing.T) {
	for _, role := range Roles {
		parsed, ok := ParseRole(role.String())
		if !ok || parsed != role {
			t.Fatalf("ParseRole(%q) = %v, %v", role.String(), parsed, ok)
		}
	}
	if _, ok := ParseRole("Jester"); ok {
		t.Fatalf("expected unknown role to fail")
	}
}
