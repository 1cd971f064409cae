package npc

import (
	"fmt"
	"math/rand"
	"sync"
)

var botNames = []string{
	"Duke Bot",
	"Assassin AI",
	"Captain Code",
	"Ambassador Algorithm",
	"Contessa CPU",
	"Bluff Master",
	"Strategic Steve",
	"Tactical Tina",
	"Clever Claude",
	"Sneaky Sarah",
	"Bold Boris",
	"Cautious Carl",
	"Lucky Lucy",
	"Brave Bob",
	"Cunning Chloe",
	"Royal Raymond",
	"Noble Nancy",
	"Sly Sam",
	"Wise William",
	"Fearless Fiona",
}

// NameAllocator hands out bot display names without repeats. Once the
// pool runs dry it appends a random number instead of blocking.
type NameAllocator struct {
	mu   sync.Mutex
	used map[string]bool
	rng  *rand.Rand
}

func NewNameAllocator(seed int64) *NameAllocator {
	return &NameAllocator{
		used: make(map[string]bool),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (a *NameAllocator) Acquire() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	free := make([]string, 0, len(botNames))
	for _, n := range botNames {
		if !a.used[n] {
			free = append(free, n)
		}
	}
	if len(free) == 0 {
		base := botNames[a.rng.Intn(len(botNames))]
		return fmt.Sprintf("%s %d", base, a.rng.Intn(1000))
	}
	name := free[a.rng.Intn(len(free))]
	a.used[name] = true
	return name
}

func (a *NameAllocator) Release(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.used, name)
}
