package service

import (
	"math/rand/v2"
	"sync"
)

// Shuffler is a uniform shuffle over a seedable source, safe for concurrent use.
type Shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewShuffler(seed uint64) *Shuffler {
	return &Shuffler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func NewRandomShuffler() *Shuffler {
	return &Shuffler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// shuffle permutes items in place (Fisher-Yates).
func shuffle[T any](s *Shuffler, items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
