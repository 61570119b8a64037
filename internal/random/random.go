// Package random isolates the randomness behind simulated phrase selection and
// failure injection so callers can substitute deterministic sequences.
package random

import (
	"math/rand/v2"
	"sync"
)

// Source is the subset of *rand.Rand the engines rely on.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// New returns a process-seeded source safe for concurrent use.
func New() Source {
	return &lockedSource{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// Seeded returns a reproducible source.
func Seeded(seed1, seed2 uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed1, seed2))}
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Fixed replays scripted values, cycling when exhausted. With no scripted
// values IntN returns 0 and Float64 returns 0.99.
type Fixed struct {
	Ints   []int
	Floats []float64

	mu       sync.Mutex
	intPos   int
	floatPos int
}

func (f *Fixed) IntN(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Ints) == 0 || n <= 0 {
		return 0
	}
	v := f.Ints[f.intPos%len(f.Ints)]
	f.intPos++
	if v < 0 {
		v = -v
	}
	return v % n
}

func (f *Fixed) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Floats) == 0 {
		return 0.99
	}
	v := f.Floats[f.floatPos%len(f.Floats)]
	f.floatPos++
	return v
}
