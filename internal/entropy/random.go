// Package entropy supplies the random draws combat needs. Production can pull
// true randomness from random.org with a crypto/rand fallback; tests inject a
// fixed or seeded source.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
)

// Source yields floats in [0, 1).
type Source interface {
	Float() float64
}

// Fixed always returns the same value. Useful for deterministic tests.
type Fixed float64

func (f Fixed) Float() float64 { return float64(f) }

// Seeded is a reproducible pseudo-random source, safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a source that replays the same sequence for the same seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Crypto draws from crypto/rand.
type Crypto struct{}

func (Crypto) Float() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	// 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// FromConfig picks a random.org-backed pool when an API key is configured,
// otherwise crypto/rand.
func FromConfig(apiKey string) Source {
	if apiKey == "" {
		return Crypto{}
	}
	return NewPool(NewRandomOrg(apiKey), Crypto{})
}
