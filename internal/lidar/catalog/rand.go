package catalog

import "math/rand/v2"

// Rand is the random source consumed by the simulator. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64
	// IntN returns a pseudo-random number in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// NewRand returns a PCG-backed generator seeded from seed.
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// Uniform draws from [lo, hi).
func Uniform(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
