// Package random provides the seeded stream shared by the batch iterator and
// the sampling selector.
package random

import "math/rand/v2"

const golden = 0x9e3779b97f4a7c15

// SplitMix64 is a fixed-increment generator: the state advances by a
// constant on every call and the output is a mixed copy of the state.
// The same seed always yields the same stream.
type SplitMix64 struct {
	state uint64
}

var _ rand.Source = (*SplitMix64)(nil)

func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// Uint64 returns the next value of the stream.
func (s *SplitMix64) Uint64() uint64 {
	s.state += golden
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// New returns a *rand.Rand driven by a SplitMix64 seeded with seed.
func New(seed int64) *rand.Rand {
	return rand.New(NewSplitMix64(uint64(seed)))
}
