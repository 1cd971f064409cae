package card

import "math/rand"

// CardList is a pile of cards. The last element is the top of a draw pile.
type CardList []Card

func (ds *CardList) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

// Shuffle applies a uniform Fisher-Yates shuffle using the provided source.
func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

// PopCard removes and returns the top card. ok is false on an empty pile.
func (ds *CardList) PopCard() (Card, bool) {
	totalCount := ds.Count()
	if totalCount == 0 {
		return Card{}, false
	}
	c := (*ds)[totalCount-1]
	*ds = (*ds)[:totalCount-1]
	return c, true
}

// PopCards removes size cards from the top of the pile.
func (ds *CardList) PopCards(size int) ([]Card, bool) {
	if size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	for i := 0; i < size; i++ {
		c, _ := ds.PopCard()
		cards[i] = c
	}
	return cards, true
}

// HasRole reports whether the list contains at least one card of the role.
func (ds CardList) HasRole(role Role) bool {
	return ds.IndexOfRole(role) >= 0
}

// IndexOfRole returns the index of the first card with the role, or -1.
func (ds CardList) IndexOfRole(role Role) int {
	for i, c := range ds {
		if c.Role == role {
			return i
		}
	}
	return -1
}

// CountRole returns how many instances of the role the list holds.
func (ds CardList) CountRole(role Role) int {
	n := 0
	for _, c := range ds {
		if c.Role == role {
			n++
		}
	}
	return n
}

// RemoveAt removes and returns the card at index i, preserving order.
func (ds *CardList) RemoveAt(i int) (Card, bool) {
	if i < 0 || i >= ds.Count() {
		return Card{}, false
	}
	c := (*ds)[i]
	*ds = append((*ds)[:i], (*ds)[i+1:]...)
	return c, true
}

// Clone returns an independent copy of the list.
func (ds CardList) Clone() CardList {
	out := make(CardList, len(ds))
	copy(out, ds)
	return out
}
