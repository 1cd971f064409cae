package card

import "fmt"

// Card is a single influence card. Instances are never created or destroyed
// during a match; they move between hands and the deck.
type Card struct {
	Role       Role   `json:"role"`
	InstanceID string `json:"instanceId"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s(%s)", c.Role, c.InstanceID)
}

// NewDeck builds an unshuffled deck: 3 instances of each of the 5 roles,
// with stable instance ids like "Duke-1".
func NewDeck() CardList {
	deck := make(CardList, 0, DeckSize)
	for _, role := range Roles {
		for i := 1; i <= CopiesPerRole; i++ {
			deck = append(deck, Card{
				Role:       role,
				InstanceID: fmt.Sprintf("%s-%d", role, i),
			})
		}
	}
	return deck
}
