package weather

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Jitter is the randomness source for synthetic forecast days and mock data.
// Implementations must return values within the inclusive bounds.
type Jitter interface {
	Int(lo, hi int) int
	Float(lo, hi float64) float64
}

// RandJitter is a seedable, concurrency-safe Jitter.
type RandJitter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandJitter creates a Jitter from seed. A zero seed uses the current time.
func NewRandJitter(seed uint64) *RandJitter {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandJitter{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (j *RandJitter) Int(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return lo + j.rng.IntN(hi-lo+1)
}

func (j *RandJitter) Float(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return lo + j.rng.Float64()*(hi-lo)
}
