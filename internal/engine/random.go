package engine

import (
	"math/rand"
	"sync"
)

// RandomSource drives the subject shuffle. Seeded sources make generation reproducible.
type RandomSource interface {
	Intn(n int) int
	Seed() int64
}

type seededSource struct {
	mu   sync.Mutex
	seed int64
	rng  *rand.Rand
}

// NewSeededSource returns a deterministic source for the given seed.
func NewSeededSource(seed int64) RandomSource {
	return &seededSource{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

func (s *seededSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *seededSource) Seed() int64 { return s.seed }

// shuffleSubjects applies a Fisher-Yates permutation in place.
func shuffleSubjects(src RandomSource, subjects []Subject) {
	for i := len(subjects) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		subjects[i], subjects[j] = subjects[j], subjects[i]
	}
}
