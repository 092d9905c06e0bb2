package recommend

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler draws up to k distinct elements of ids.
type Sampler interface {
	Sample(ids []int, k int) []int
}

// RandSampler is a Sampler over math/rand, safe for concurrent use.
type RandSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSampler seeds the source with seed, or with the clock when seed is 0.
func NewRandSampler(seed int64) *RandSampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandSampler) Sample(ids []int, k int) []int {
	if k > len(ids) {
		k = len(ids)
	}
	if k <= 0 {
		return []int{}
	}

	pool := append([]int(nil), ids...)

	s.mu.Lock()
	defer s.mu.Unlock()
	// partial Fisher-Yates
	for i := 0; i < k; i++ {
		j := i + s.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
