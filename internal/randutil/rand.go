// Package randutil mixes a caller-supplied seed into the two seed words of
// a PCG generator, so that N workers seeded from sequential or related integers
// (worker index, iteration count) still get decorrelated RNG streams
// (spec §9 "Parallel RNG: each worker must own its RNG... no shared RNG").
package randutil

import "math/rand/v2"

// goldenRatio64 is the fractional part of the golden ratio scaled to 64
// bits, a standard splitmix64 constant used to decorrelate two mixes of the
// same seed.
const goldenRatio64 = 0x9e3779b97f4a7c15

// New builds a *rand.Rand seeded deterministically from seed. Two calls with
// the same seed produce identical streams; nearby seeds (e.g. consecutive
// worker indices) produce streams that are not trivially correlated because
// each half of the PCG state is passed through its own splitmix64 mix.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// mix is the splitmix64 finalizer: a fixed-point bijection that scatters
// nearby inputs to unrelated outputs.
func mix(z uint64) uint64 {
	z += goldenRatio64
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
